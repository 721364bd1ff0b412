// Package config handles configuration loading and management for Auriga.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Auriga.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Network   NetworkConfig   `mapstructure:"network"`
	Prompts   PromptsConfig   `mapstructure:"prompts"`
	Remote    RemoteConfig    `mapstructure:"remote"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// EngineConfig holds run scheduling settings.
type EngineConfig struct {
	// ReasoningTimeout bounds each model call.
	ReasoningTimeout time.Duration `mapstructure:"reasoning_timeout"`
	// MaxRetries is the number of extra attempts for structured phases.
	MaxRetries int `mapstructure:"max_retries"`
	// PollInterval is the initial execution scheduling interval.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// MaxPollInterval caps the scheduling backoff.
	MaxPollInterval time.Duration `mapstructure:"max_poll_interval"`
	// ActionPause is the delay between remote control actions.
	ActionPause time.Duration `mapstructure:"action_pause"`
	// DebugLogPath is the engine debug log file; empty disables it.
	DebugLogPath string `mapstructure:"debug_log_path"`
}

// NetworkConfig holds experience network persistence settings.
type NetworkConfig struct {
	// DBPath is the sqlite database file; empty uses the XDG data path.
	DBPath string `mapstructure:"db_path"`
}

// PromptsConfig holds prompt template settings.
type PromptsConfig struct {
	// TemplatesPath is an optional YAML file overriding built-in templates.
	TemplatesPath string `mapstructure:"templates_path"`
	// Watch reloads the template file when it changes on disk.
	Watch bool `mapstructure:"watch"`
	// SystemPrompt overrides the built-in system prompt when non-empty.
	SystemPrompt string `mapstructure:"system_prompt"`
}

// RemoteConfig holds remote control settings.
type RemoteConfig struct {
	// AllowControl grants permission for control actions on this machine.
	AllowControl bool `mapstructure:"allow_control"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, AURIGA_*)
// 2. Project config (.auriga.yaml in current directory or parent)
// 3. User config (~/.config/auriga/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("AURIGA")

	// Map specific environment variables
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "AURIGA_MODEL")
	v.BindEnv("remote.allow_control", "AURIGA_ALLOW_CONTROL")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("engine.reasoning_timeout", cfg.Engine.ReasoningTimeout.String())
	v.Set("engine.max_retries", cfg.Engine.MaxRetries)
	v.Set("engine.poll_interval", cfg.Engine.PollInterval.String())
	v.Set("engine.max_poll_interval", cfg.Engine.MaxPollInterval.String())
	v.Set("engine.action_pause", cfg.Engine.ActionPause.String())
	v.Set("engine.debug_log_path", cfg.Engine.DebugLogPath)
	v.Set("network.db_path", cfg.Network.DBPath)
	v.Set("prompts.templates_path", cfg.Prompts.TemplatesPath)
	v.Set("prompts.watch", cfg.Prompts.Watch)
	v.Set("prompts.system_prompt", cfg.Prompts.SystemPrompt)
	v.Set("remote.allow_control", cfg.Remote.AllowControl)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Anthropic defaults
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	// Engine defaults
	v.SetDefault("engine.reasoning_timeout", "2m")
	v.SetDefault("engine.max_retries", 2)
	v.SetDefault("engine.poll_interval", "50ms")
	v.SetDefault("engine.max_poll_interval", "1s")
	v.SetDefault("engine.action_pause", "500ms")
	v.SetDefault("engine.debug_log_path", "")

	// Network defaults
	v.SetDefault("network.db_path", "")

	// Prompt defaults
	v.SetDefault("prompts.templates_path", "")
	v.SetDefault("prompts.watch", false)
	v.SetDefault("prompts.system_prompt", "")

	// Remote defaults
	v.SetDefault("remote.allow_control", false)
}

// getUserConfigDir returns the XDG config directory for Auriga.
func getUserConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "auriga")
	}

	// Fall back to ~/.config/auriga
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "auriga")
	}
	return filepath.Join(home, ".config", "auriga")
}

// findProjectConfig searches for .auriga.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".auriga.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			ReasoningTimeout: 2 * time.Minute,
			MaxRetries:       2,
			PollInterval:     50 * time.Millisecond,
			MaxPollInterval:  time.Second,
			ActionPause:      500 * time.Millisecond,
		},
	}
}
