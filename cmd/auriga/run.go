package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tbonnaire/auriga/internal/config"
	"github.com/tbonnaire/auriga/internal/engine"
	"github.com/tbonnaire/auriga/internal/experience"
	"github.com/tbonnaire/auriga/internal/prompt"
	"github.com/tbonnaire/auriga/internal/reasoning"
	"github.com/tbonnaire/auriga/internal/remote"
	"github.com/tbonnaire/auriga/internal/taskgraph"
)

var (
	runUser         string
	runAllowControl bool
	runModel        string
	runTemplates    string
	runVerbose      bool
)

var runCmd = &cobra.Command{
	Use:   "run \"<request>\"",
	Short: "Run a request through the full orchestration cycle",
	Long: `Analyzes the request, plans dependent tasks, executes them
concurrently, and synthesizes the results into one answer.

The run is recorded in the experience network so similar future requests
benefit from it. Pass --user to build a per-user profile as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRequest(args[0])
	},
}

func init() {
	runCmd.Flags().StringVar(&runUser, "user", "", "User ID to record the run against")
	runCmd.Flags().BoolVar(&runAllowControl, "allow-control", false, "Allow remote control actions on this machine")
	runCmd.Flags().StringVar(&runModel, "model", "", "Override the configured model")
	runCmd.Flags().StringVar(&runTemplates, "templates", "", "Prompt template YAML file")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "Print the session log after the run")
}

func runRequest(content string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if runModel != "" {
		cfg.Anthropic.Model = runModel
	}
	if runTemplates != "" {
		cfg.Prompts.TemplatesPath = runTemplates
	}
	if runAllowControl {
		cfg.Remote.AllowControl = true
	}

	client, err := reasoning.NewClient(reasoning.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return err
	}

	compiler := prompt.NewCompiler()
	if cfg.Prompts.TemplatesPath != "" {
		if cfg.Prompts.Watch {
			watcher, err := prompt.Watch(compiler, cfg.Prompts.TemplatesPath, func(err error) {
				fmt.Fprintf(os.Stderr, "template reload: %v\n", err)
			})
			if err != nil {
				return fmt.Errorf("watching templates: %w", err)
			}
			defer watcher.Close()
		} else if err := compiler.LoadFile(cfg.Prompts.TemplatesPath); err != nil {
			return fmt.Errorf("loading templates: %w", err)
		}
	}

	network, store, err := openNetwork(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	logger, err := engine.NewDebugLogger(cfg.Engine.DebugLogPath)
	if err != nil {
		return fmt.Errorf("opening debug log: %w", err)
	}
	defer logger.Close()

	eng := engine.New(
		taskgraph.NewStore(),
		client,
		compiler,
		network,
		remote.NewStaticGate(cfg.Remote.AllowControl),
		nil,
		logger,
		engine.Config{
			ReasoningTimeout: cfg.Engine.ReasoningTimeout,
			MaxRetries:       cfg.Engine.MaxRetries,
			PollInterval:     cfg.Engine.PollInterval,
			MaxPollInterval:  cfg.Engine.MaxPollInterval,
			ActionPause:      cfg.Engine.ActionPause,
			Model:            cfg.Anthropic.Model,
			SystemPrompt:     cfg.Prompts.SystemPrompt,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s %s\n\n", color.CyanString("▸"), content)
	result, err := eng.Execute(ctx, runUser, content)
	printRunResult(result, client.Tracker())
	if err != nil {
		return err
	}

	// Persist what the run taught the network.
	if err := store.Save(network.Export()); err != nil {
		return fmt.Errorf("saving experience network: %w", err)
	}
	return nil
}

// openNetwork loads the persisted experience network, or starts an empty one
// when no database exists yet.
func openNetwork(cfg *config.Config) (*experience.Network, *experience.Store, error) {
	path := cfg.Network.DBPath
	if path == "" {
		path = experience.DefaultDBPath()
	}
	store, err := experience.OpenStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening experience store: %w", err)
	}
	snap, err := store.Load()
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("loading experience network: %w", err)
	}
	network := experience.NewNetwork()
	network.Import(snap)
	return network, store, nil
}

// printRunResult reports the run's outcome per task, the final answer, and
// token usage.
func printRunResult(result *engine.Result, tracker *reasoning.TokenTracker) {
	if result == nil {
		return
	}

	if len(result.Outcomes) > 0 {
		ids := make([]string, 0, len(result.Outcomes))
		for id := range result.Outcomes {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			outcome := result.Outcomes[id]
			if outcome.Success {
				fmt.Printf("  %s %s\n", color.GreenString("✓"), id)
			} else {
				fmt.Printf("  %s %s: %s\n", color.RedString("✗"), id, outcome.Error)
			}
		}
		fmt.Println()
	}

	if result.FinalAnswer != "" {
		fmt.Println(result.FinalAnswer)
		fmt.Println()
	}

	if result.Session != nil {
		status := color.GreenString(string(result.Session.Status))
		if result.Session.Status != "completed" {
			status = color.RedString(string(result.Session.Status))
		}
		fmt.Printf("Session %s: %s (%d%%)\n", result.Session.ID, status, result.Session.Progress)
		if runVerbose {
			fmt.Println(strings.Join(result.Session.Logs, "\n"))
		}
	}

	if tracker != nil {
		in, out := tracker.Total()
		fmt.Printf("Tokens: %d in / %d out across %d calls\n", in, out, tracker.Calls())
	}
}
