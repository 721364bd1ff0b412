package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompileSubstitutesVariables(t *testing.T) {
	c := NewCompiler()
	compiled, err := c.Compile(PhaseAnalysis, map[string]string{
		"userRequest": "build a two-step report",
	}, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(compiled.Content, "build a two-step report") {
		t.Errorf("expected substituted request in content")
	}
	if strings.Contains(compiled.Content, "{{userRequest}}") {
		t.Errorf("expected placeholder replaced")
	}
}

func TestCompileMissingVariableLeavesPlaceholder(t *testing.T) {
	c := NewCompiler()
	compiled, err := c.Compile(PhaseAnalysis, nil, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(compiled.Content, "{{userRequest}}") {
		t.Errorf("expected placeholder kept when variable missing")
	}
}

func TestCompileMissingTemplate(t *testing.T) {
	c := &Compiler{templates: map[string]*Template{}}
	_, err := c.Compile(PhaseAnalysis, nil, "", "")
	if !errors.Is(err, ErrMissingTemplate) {
		t.Fatalf("expected ErrMissingTemplate, got %v", err)
	}
}

func TestLookupFallbackChain(t *testing.T) {
	c := NewCompiler()
	c.Register(&Template{Phase: PhaseExecution, Provider: "anthropic", Text: "provider {{x}}", Variables: []string{"x"}})
	c.Register(&Template{Phase: PhaseExecution, Provider: "anthropic", Model: "claude", Text: "model {{x}}", Variables: []string{"x"}})

	got, err := c.Compile(PhaseExecution, map[string]string{"x": "v"}, "anthropic", "claude")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "model v" {
		t.Errorf("expected model-specific template, got %q", got.Content)
	}

	got, err = c.Compile(PhaseExecution, map[string]string{"x": "v"}, "anthropic", "other")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "provider v" {
		t.Errorf("expected provider template, got %q", got.Content)
	}

	got, err = c.Compile(PhaseExecution, map[string]string{"taskDescription": "d"}, "openai", "gpt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got.Content, "Autonomous Task Execution") {
		t.Errorf("expected default template for unknown provider")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	data := `templates:
  - phase: analysis
    text: "custom analysis of {{userRequest}}"
    variables: [userRequest]
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := NewCompiler()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	compiled, err := c.Compile(PhaseAnalysis, map[string]string{"userRequest": "x"}, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if compiled.Content != "custom analysis of x" {
		t.Errorf("expected override, got %q", compiled.Content)
	}
}

func TestLoadFileRejectsBadPhase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	data := `templates:
  - phase: nonsense
    text: "body"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := NewCompiler()
	if err := c.LoadFile(path); err == nil {
		t.Fatal("expected error for unknown phase")
	}
}
