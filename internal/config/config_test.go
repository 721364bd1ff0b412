package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Engine.ReasoningTimeout != 2*time.Minute {
		t.Errorf("expected reasoning timeout 2m, got %v", cfg.Engine.ReasoningTimeout)
	}

	if cfg.Engine.MaxRetries != 2 {
		t.Errorf("expected max retries 2, got %d", cfg.Engine.MaxRetries)
	}

	if cfg.Engine.PollInterval != 50*time.Millisecond {
		t.Errorf("expected poll interval 50ms, got %v", cfg.Engine.PollInterval)
	}

	if cfg.Engine.ActionPause != 500*time.Millisecond {
		t.Errorf("expected action pause 500ms, got %v", cfg.Engine.ActionPause)
	}

	if cfg.Remote.AllowControl {
		t.Error("expected remote control to be disabled by default")
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `anthropic:
  api_key: test-key
  model: test-model
engine:
  reasoning_timeout: 30s
  max_retries: 1
prompts:
  templates_path: /etc/auriga/templates.yaml
  watch: true
remote:
  allow_control: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api key 'test-key', got %q", cfg.Anthropic.APIKey)
	}

	if cfg.Anthropic.Model != "test-model" {
		t.Errorf("expected model 'test-model', got %q", cfg.Anthropic.Model)
	}

	if cfg.Engine.ReasoningTimeout != 30*time.Second {
		t.Errorf("expected reasoning timeout 30s, got %v", cfg.Engine.ReasoningTimeout)
	}

	if cfg.Engine.MaxRetries != 1 {
		t.Errorf("expected max retries 1, got %d", cfg.Engine.MaxRetries)
	}

	if cfg.Prompts.TemplatesPath != "/etc/auriga/templates.yaml" {
		t.Errorf("unexpected templates path %q", cfg.Prompts.TemplatesPath)
	}

	if !cfg.Prompts.Watch {
		t.Error("expected prompts.watch to be true")
	}

	if !cfg.Remote.AllowControl {
		t.Error("expected remote.allow_control to be true")
	}
}

func TestLoadFromPathKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `anthropic:
  api_key: only-key
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Engine.ReasoningTimeout != 2*time.Minute {
		t.Errorf("expected default reasoning timeout, got %v", cfg.Engine.ReasoningTimeout)
	}

	if cfg.Engine.MaxRetries != 2 {
		t.Errorf("expected default max retries, got %d", cfg.Engine.MaxRetries)
	}
}

func TestExpandEnvInAPIKey(t *testing.T) {
	t.Setenv("AURIGA_TEST_KEY", "expanded-secret")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `anthropic:
  api_key: ${AURIGA_TEST_KEY}
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "expanded-secret" {
		t.Errorf("expected expanded key, got %q", cfg.Anthropic.APIKey)
	}
}
