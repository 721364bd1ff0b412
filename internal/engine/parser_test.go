package engine

import (
	"errors"
	"testing"

	"github.com/tbonnaire/auriga/pkg/models"
)

func TestParseAnalysisFromFencedBlock(t *testing.T) {
	text := "Here is my analysis:\n```json\n" +
		`{"mainObjective": "summarize the report", "knowledgeDomains": ["writing"], "constraints": [], "complexity": "simple", "clarificationNeeded": false}` +
		"\n```\nLet me know if you need more."

	analysis, err := ParseAnalysis(text)
	if err != nil {
		t.Fatalf("ParseAnalysis failed: %v", err)
	}
	if analysis.MainObjective != "summarize the report" {
		t.Errorf("unexpected objective %q", analysis.MainObjective)
	}
	if analysis.Complexity != models.ComplexitySimple {
		t.Errorf("unexpected complexity %q", analysis.Complexity)
	}
}

func TestParseAnalysisFromSurroundingProse(t *testing.T) {
	text := `Sure. {"mainObjective": "plan a trip", "complexity": "medium", "clarificationNeeded": false} Hope that helps.`

	analysis, err := ParseAnalysis(text)
	if err != nil {
		t.Fatalf("ParseAnalysis failed: %v", err)
	}
	if analysis.MainObjective != "plan a trip" {
		t.Errorf("unexpected objective %q", analysis.MainObjective)
	}
}

func TestParseAnalysisBracesInsideStrings(t *testing.T) {
	text := `{"mainObjective": "explain {curly} syntax", "complexity": "simple"}`

	analysis, err := ParseAnalysis(text)
	if err != nil {
		t.Fatalf("ParseAnalysis failed: %v", err)
	}
	if analysis.MainObjective != "explain {curly} syntax" {
		t.Errorf("unexpected objective %q", analysis.MainObjective)
	}
}

func TestParseAnalysisRejectsMissingObjective(t *testing.T) {
	_, err := ParseAnalysis(`{"mainObjective": "", "complexity": "simple"}`)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParseAnalysisRejectsUnknownComplexity(t *testing.T) {
	_, err := ParseAnalysis(`{"mainObjective": "x", "complexity": "impossible"}`)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParseAnalysisDefaultsComplexity(t *testing.T) {
	analysis, err := ParseAnalysis(`{"mainObjective": "x"}`)
	if err != nil {
		t.Fatalf("ParseAnalysis failed: %v", err)
	}
	if analysis.Complexity != models.ComplexityMedium {
		t.Errorf("expected medium default, got %q", analysis.Complexity)
	}
}

func TestParseAnalysisNoJSON(t *testing.T) {
	_, err := ParseAnalysis("I cannot answer that.")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParsePlanValid(t *testing.T) {
	text := `{"tasks": [
		{"id": "task-1", "description": "gather data", "dependencies": []},
		{"id": "task-2", "description": "analyze data", "dependencies": ["task-1"]}
	]}`

	plan, err := ParsePlan(text)
	if err != nil {
		t.Fatalf("ParsePlan failed: %v", err)
	}
	if len(plan.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(plan.Tasks))
	}
	if plan.Tasks[1].Dependencies[0] != "task-1" {
		t.Errorf("unexpected dependency %v", plan.Tasks[1].Dependencies)
	}
}

func TestParsePlanRejectsEmpty(t *testing.T) {
	_, err := ParsePlan(`{"tasks": []}`)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParsePlanRejectsDuplicateIDs(t *testing.T) {
	_, err := ParsePlan(`{"tasks": [
		{"id": "task-1", "description": "a"},
		{"id": "task-1", "description": "b"}
	]}`)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParsePlanRejectsUnknownDependency(t *testing.T) {
	_, err := ParsePlan(`{"tasks": [
		{"id": "task-1", "description": "a", "dependencies": ["task-9"]}
	]}`)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParseExecutionReportValid(t *testing.T) {
	text := "```json\n" + `{
		"taskId": "task-1",
		"steps": [{"stepNumber": 1, "description": "searched", "toolUsed": "search", "result": "found it"}],
		"outcome": "success",
		"result": "done",
		"issues": []
	}` + "\n```"

	report, err := ParseExecutionReport(text)
	if err != nil {
		t.Fatalf("ParseExecutionReport failed: %v", err)
	}
	if report.Outcome != models.OutcomeSuccess {
		t.Errorf("unexpected outcome %q", report.Outcome)
	}
	if len(report.Steps) != 1 || report.Steps[0].ToolUsed != "search" {
		t.Errorf("unexpected steps %+v", report.Steps)
	}
}

func TestParseExecutionReportRejectsUnknownOutcome(t *testing.T) {
	_, err := ParseExecutionReport(`{"taskId": "task-1", "outcome": "maybe", "result": "x"}`)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParseExecutionReportWithActions(t *testing.T) {
	text := `{
		"taskId": "task-1",
		"outcome": "success",
		"result": "clicked the button",
		"actions": [{"actionType": "mouse_click", "parameters": {"x": 100, "y": 200}, "purpose": "submit form"}]
	}`

	report, err := ParseExecutionReport(text)
	if err != nil {
		t.Fatalf("ParseExecutionReport failed: %v", err)
	}
	if len(report.Actions) != 1 || report.Actions[0].ActionType != "mouse_click" {
		t.Errorf("unexpected actions %+v", report.Actions)
	}
}
