package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tbonnaire/auriga/pkg/models"
)

// extractJSON pulls the first JSON object out of a model response. Responses
// are asked to be bare JSON, but models routinely wrap them in code fences
// or surrounding prose, so the scan tolerates both.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	// Fenced block first.
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			if candidate := strings.TrimSpace(rest[:end]); strings.HasPrefix(candidate, "{") {
				return candidate, nil
			}
		}
	}

	// Balanced-brace scan, ignoring braces inside string literals.
	start := strings.Index(text, "{")
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced JSON object", ErrMalformedResponse)
}

// ParseAnalysis parses and validates an analysis-phase response.
func ParseAnalysis(text string) (*models.RequestAnalysis, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var analysis models.RequestAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(analysis.MainObjective) == "" {
		return nil, fmt.Errorf("%w: analysis missing main objective", ErrMalformedResponse)
	}
	switch analysis.Complexity {
	case models.ComplexitySimple, models.ComplexityMedium, models.ComplexityComplex:
	case "":
		analysis.Complexity = models.ComplexityMedium
	default:
		return nil, fmt.Errorf("%w: unknown complexity %q", ErrMalformedResponse, analysis.Complexity)
	}
	return &analysis, nil
}

// ParsePlan parses and validates a planning-phase response. Plans must have
// at least one task, unique non-empty task IDs, and dependencies that
// reference tasks inside the plan.
func ParsePlan(text string) (*models.TaskPlan, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var plan models.TaskPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(plan.Tasks) == 0 {
		return nil, fmt.Errorf("%w: plan has no tasks", ErrMalformedResponse)
	}

	ids := make(map[string]bool, len(plan.Tasks))
	for _, step := range plan.Tasks {
		if strings.TrimSpace(step.ID) == "" {
			return nil, fmt.Errorf("%w: plan step missing id", ErrMalformedResponse)
		}
		if strings.TrimSpace(step.Description) == "" {
			return nil, fmt.Errorf("%w: plan step %s missing description", ErrMalformedResponse, step.ID)
		}
		if ids[step.ID] {
			return nil, fmt.Errorf("%w: duplicate plan step id %s", ErrMalformedResponse, step.ID)
		}
		ids[step.ID] = true
	}
	for _, step := range plan.Tasks {
		for _, dep := range step.Dependencies {
			if !ids[dep] {
				return nil, fmt.Errorf("%w: plan step %s depends on unknown step %s", ErrMalformedResponse, step.ID, dep)
			}
		}
	}
	return &plan, nil
}

// ParseExecutionReport parses and validates an execution-phase response.
func ParseExecutionReport(text string) (*models.ExecutionReport, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var report models.ExecutionReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	switch report.Outcome {
	case models.OutcomeSuccess, models.OutcomePartial, models.OutcomeFailure:
	default:
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrMalformedResponse, report.Outcome)
	}
	return &report, nil
}
