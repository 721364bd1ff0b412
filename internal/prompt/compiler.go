// Package prompt manages prompt templates and their compilation. Templates
// are keyed by phase with optional provider- and model-specific overrides,
// and can be loaded from YAML files on top of the built-in defaults.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrMissingTemplate indicates no template is registered for the requested phase.
var ErrMissingTemplate = errors.New("no template registered for phase")

// Phase identifies which stage of a run a template serves.
type Phase string

const (
	// PhaseAnalysis analyzes and decomposes the user request.
	PhaseAnalysis Phase = "analysis"
	// PhasePlanning plans the tasks to execute.
	PhasePlanning Phase = "planning"
	// PhaseExecution executes a planned task.
	PhaseExecution Phase = "execution"
	// PhaseSynthesis synthesizes task results into a final answer.
	PhaseSynthesis Phase = "synthesis"
)

// Valid returns true if the phase is a known value.
func (p Phase) Valid() bool {
	switch p {
	case PhaseAnalysis, PhasePlanning, PhaseExecution, PhaseSynthesis:
		return true
	default:
		return false
	}
}

// Template is a prompt template with its declared variables.
type Template struct {
	// Phase is the run phase this template serves.
	Phase Phase `yaml:"phase"`
	// Provider restricts the template to one AI provider, if set.
	Provider string `yaml:"provider,omitempty"`
	// Model restricts the template to one model, if set.
	Model string `yaml:"model,omitempty"`
	// Text is the template body; variables appear as {{name}}.
	Text string `yaml:"text"`
	// Variables lists the variable names the template substitutes.
	Variables []string `yaml:"variables"`
	// Description explains what the template is for.
	Description string `yaml:"description,omitempty"`
}

// Compiled is a template with its variables substituted, ready to send.
type Compiled struct {
	// Phase is the run phase the prompt serves.
	Phase Phase
	// Content is the compiled prompt text.
	Content string
	// Variables holds the values that were substituted.
	Variables map[string]string
}

// Compiler holds the template registry. Lookup falls back from
// phase+provider+model to phase+provider to phase.
type Compiler struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewCompiler creates a compiler pre-loaded with the default templates.
func NewCompiler() *Compiler {
	c := &Compiler{templates: make(map[string]*Template)}
	for _, t := range defaultTemplates() {
		c.Register(t)
	}
	return c
}

// Register adds or replaces a template under its phase/provider/model key.
func (c *Compiler) Register(t *Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates[templateKey(t.Phase, t.Provider, t.Model)] = t
}

// templateFile is the YAML document shape for template files.
type templateFile struct {
	Templates []*Template `yaml:"templates"`
}

// LoadFile registers every template from a YAML file, overriding any
// previously registered template with the same key.
func (c *Compiler) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read templates: %w", err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	for i, t := range file.Templates {
		if !t.Phase.Valid() {
			return fmt.Errorf("template %d: unknown phase %q", i, t.Phase)
		}
		if strings.TrimSpace(t.Text) == "" {
			return fmt.Errorf("template %d: empty text", i)
		}
		c.Register(t)
	}
	return nil
}

// lookup finds the most specific template for a phase, trying
// phase+provider+model, then phase+provider, then phase.
func (c *Compiler) lookup(phase Phase, provider, model string) *Template {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if provider != "" && model != "" {
		if t, ok := c.templates[templateKey(phase, provider, model)]; ok {
			return t
		}
	}
	if provider != "" {
		if t, ok := c.templates[templateKey(phase, provider, "")]; ok {
			return t
		}
	}
	return c.templates[templateKey(phase, "", "")]
}

// Compile substitutes the given variables into the best matching template
// for the phase. Declared variables missing from vars are left in place.
// Fails with ErrMissingTemplate if no template serves the phase.
func (c *Compiler) Compile(phase Phase, vars map[string]string, provider, model string) (*Compiled, error) {
	t := c.lookup(phase, provider, model)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingTemplate, phase)
	}

	content := t.Text
	for _, name := range t.Variables {
		value, ok := vars[name]
		if !ok {
			continue
		}
		content = strings.ReplaceAll(content, "{{"+name+"}}", value)
	}

	return &Compiled{Phase: phase, Content: content, Variables: vars}, nil
}

// templateKey builds the registry key for a phase/provider/model combination.
func templateKey(phase Phase, provider, model string) string {
	key := string(phase)
	if provider != "" {
		key += "_" + provider
	}
	if model != "" {
		key += "_" + model
	}
	return key
}
