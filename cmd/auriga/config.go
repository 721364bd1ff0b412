package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tbonnaire/auriga/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Auriga configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/auriga/config.yaml
Project-specific overrides can be placed in .auriga.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	// Mask API key if set
	apiKeyDisplay := "(not set)"
	if cfg.Anthropic.APIKey != "" {
		apiKeyDisplay = "****"
	}

	fmt.Printf("anthropic.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("anthropic.aws_profile: %s\n", cfg.Anthropic.AWSProfile)
	fmt.Printf("engine.reasoning_timeout: %s\n", cfg.Engine.ReasoningTimeout)
	fmt.Printf("engine.max_retries: %d\n", cfg.Engine.MaxRetries)
	fmt.Printf("engine.poll_interval: %s\n", cfg.Engine.PollInterval)
	fmt.Printf("engine.max_poll_interval: %s\n", cfg.Engine.MaxPollInterval)
	fmt.Printf("engine.action_pause: %s\n", cfg.Engine.ActionPause)
	fmt.Printf("engine.debug_log_path: %s\n", cfg.Engine.DebugLogPath)
	fmt.Printf("network.db_path: %s\n", cfg.Network.DBPath)
	fmt.Printf("prompts.templates_path: %s\n", cfg.Prompts.TemplatesPath)
	fmt.Printf("prompts.watch: %t\n", cfg.Prompts.Watch)
	fmt.Printf("prompts.system_prompt: %s\n", cfg.Prompts.SystemPrompt)
	fmt.Printf("remote.allow_control: %t\n", cfg.Remote.AllowControl)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: %s\n", key, value)
}

// setConfigKey sets and persists a single configuration value.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if cfg.Anthropic.APIKey == "" {
			return "(not set)", nil
		}
		return "****", nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "engine.reasoning_timeout":
		return cfg.Engine.ReasoningTimeout.String(), nil
	case "engine.max_retries":
		return strconv.Itoa(cfg.Engine.MaxRetries), nil
	case "engine.poll_interval":
		return cfg.Engine.PollInterval.String(), nil
	case "engine.max_poll_interval":
		return cfg.Engine.MaxPollInterval.String(), nil
	case "engine.action_pause":
		return cfg.Engine.ActionPause.String(), nil
	case "engine.debug_log_path":
		return cfg.Engine.DebugLogPath, nil
	case "network.db_path":
		return cfg.Network.DBPath, nil
	case "prompts.templates_path":
		return cfg.Prompts.TemplatesPath, nil
	case "prompts.watch":
		return strconv.FormatBool(cfg.Prompts.Watch), nil
	case "prompts.system_prompt":
		return cfg.Prompts.SystemPrompt, nil
	case "remote.allow_control":
		return strconv.FormatBool(cfg.Remote.AllowControl), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "engine.reasoning_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for reasoning_timeout: %w", err)
		}
		cfg.Engine.ReasoningTimeout = d
	case "engine.max_retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_retries: %w", err)
		}
		cfg.Engine.MaxRetries = n
	case "engine.poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for poll_interval: %w", err)
		}
		cfg.Engine.PollInterval = d
	case "engine.max_poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for max_poll_interval: %w", err)
		}
		cfg.Engine.MaxPollInterval = d
	case "engine.action_pause":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for action_pause: %w", err)
		}
		cfg.Engine.ActionPause = d
	case "engine.debug_log_path":
		cfg.Engine.DebugLogPath = value
	case "network.db_path":
		cfg.Network.DBPath = value
	case "prompts.templates_path":
		cfg.Prompts.TemplatesPath = value
	case "prompts.watch":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for prompts.watch: %w", err)
		}
		cfg.Prompts.Watch = b
	case "prompts.system_prompt":
		cfg.Prompts.SystemPrompt = value
	case "remote.allow_control":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for allow_control: %w", err)
		}
		cfg.Remote.AllowControl = b
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
