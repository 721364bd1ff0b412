package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tbonnaire/auriga/internal/config"
	"github.com/tbonnaire/auriga/internal/experience"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Inspect and manage the experience network",
}

var networkReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the experience network",
	RunE: func(cmd *cobra.Command, args []string) error {
		network, store, err := openConfiguredNetwork()
		if err != nil {
			return err
		}
		defer store.Close()

		report := network.Report()
		fmt.Printf("%s %d nodes, %d user profiles\n\n",
			color.CyanString("Network:"), report.NodeCount, report.UserCount)

		if len(report.TopNodes) > 0 {
			fmt.Println("Top nodes:")
			for _, node := range report.TopNodes {
				fmt.Printf("  %3d%%  %s  [%s]  %d connections\n",
					node.Effectiveness, node.ID, strings.Join(node.Tags, ", "), node.ConnectionCount)
			}
			fmt.Println()
		}
		if len(report.TopTags) > 0 {
			fmt.Println("Top tags:")
			for _, tag := range report.TopTags {
				fmt.Printf("  %4d  %s\n", tag.Count, tag.Tag)
			}
		}
		return nil
	},
}

var networkExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the experience network to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, store, err := openConfiguredNetwork()
		if err != nil {
			return err
		}
		defer store.Close()

		data, err := json.MarshalIndent(network.Export(), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding network: %w", err)
		}
		if err := os.WriteFile(args[0], data, 0644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Printf("%s exported to %s\n", color.GreenString("✓"), args[0])
		return nil
	},
}

var networkImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge a JSON export into the experience network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading import: %w", err)
		}
		var snap experience.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("decoding import: %w", err)
		}

		network, store, err := openConfiguredNetwork()
		if err != nil {
			return err
		}
		defer store.Close()

		network.Import(&snap)
		if err := store.Save(network.Export()); err != nil {
			return fmt.Errorf("saving network: %w", err)
		}
		fmt.Printf("%s imported %d nodes, %d profiles\n",
			color.GreenString("✓"), len(snap.Nodes), len(snap.Profiles))
		return nil
	},
}

var networkSuggestUser string

var networkSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest prompts for a user based on predicted needs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if networkSuggestUser == "" {
			return fmt.Errorf("--user is required")
		}
		network, store, err := openConfiguredNetwork()
		if err != nil {
			return err
		}
		defer store.Close()

		suggestions := network.SuggestPrompts(networkSuggestUser)
		if len(suggestions) == 0 {
			fmt.Println("No suggestions yet. Run a few requests first.")
			return nil
		}
		for _, s := range suggestions {
			fmt.Printf("%s %.0f%%  %s\n", color.CyanString("▸"), s.Confidence*100, s.Prompt)
			if s.Description != "" {
				fmt.Printf("      %s\n", s.Description)
			}
		}
		return nil
	},
}

func init() {
	networkSuggestCmd.Flags().StringVar(&networkSuggestUser, "user", "", "User ID to suggest prompts for")

	networkCmd.AddCommand(networkReportCmd)
	networkCmd.AddCommand(networkExportCmd)
	networkCmd.AddCommand(networkImportCmd)
	networkCmd.AddCommand(networkSuggestCmd)
}

// openConfiguredNetwork opens the configured experience store and loads the
// network from it.
func openConfiguredNetwork() (*experience.Network, *experience.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return openNetwork(cfg)
}
