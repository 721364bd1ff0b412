package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbonnaire/auriga/pkg/models"
)

func TestExecuteSequenceDeniedWithoutPermission(t *testing.T) {
	gate := NewStaticGate(false)
	actions := []models.RemoteAction{
		{ActionType: string(ActionScreenshot), Purpose: "inspect state"},
	}

	_, err := ExecuteSequence(context.Background(), gate, actions, time.Millisecond)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if len(gate.Performed()) != 0 {
		t.Errorf("expected no actions performed, got %d", len(gate.Performed()))
	}
}

func TestExecuteSequencePerformsInOrder(t *testing.T) {
	gate := NewStaticGate(true)
	actions := []models.RemoteAction{
		{ActionType: string(ActionOpenApplication), Parameters: map[string]any{"name": "editor"}},
		{ActionType: string(ActionTextInput), Parameters: map[string]any{"text": "hello"}},
		{ActionType: string(ActionScreenshot)},
	}

	result, err := ExecuteSequence(context.Background(), gate, actions, time.Millisecond)
	if err != nil {
		t.Fatalf("ExecuteSequence failed: %v", err)
	}
	if result.Failed != 0 {
		t.Errorf("expected no failures, got %d", result.Failed)
	}
	performed := gate.Performed()
	if len(performed) != 3 {
		t.Fatalf("expected 3 performed actions, got %d", len(performed))
	}
	if performed[0].Action != ActionOpenApplication || performed[2].Action != ActionScreenshot {
		t.Errorf("actions performed out of order: %v", performed)
	}
	if result.Err() != nil {
		t.Errorf("expected nil summary error, got %v", result.Err())
	}
}

func TestExecuteSequenceContinuesPastFailures(t *testing.T) {
	gate := &failingGate{failOn: ActionMouseClick}
	actions := []models.RemoteAction{
		{ActionType: string(ActionMouseMove), Parameters: map[string]any{"x": 10, "y": 20}},
		{ActionType: string(ActionMouseClick), Parameters: map[string]any{"x": 10, "y": 20}},
		{ActionType: string(ActionScreenshot)},
	}

	result, err := ExecuteSequence(context.Background(), gate, actions, time.Millisecond)
	if err != nil {
		t.Fatalf("ExecuteSequence failed: %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", result.Failed)
	}
	if len(result.Results) != 3 {
		t.Errorf("expected 3 results, got %d", len(result.Results))
	}
	if result.Err() == nil {
		t.Error("expected non-nil summary error")
	}
}

func TestExecuteSequenceEmptyIsNoop(t *testing.T) {
	result, err := ExecuteSequence(context.Background(), NewStaticGate(false), nil, time.Millisecond)
	if err != nil {
		t.Fatalf("expected nil error for empty sequence, got %v", err)
	}
	if len(result.Results) != 0 {
		t.Errorf("expected no results, got %d", len(result.Results))
	}
}

func TestExecuteSequenceStopsOnCancel(t *testing.T) {
	gate := NewStaticGate(true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	actions := []models.RemoteAction{
		{ActionType: string(ActionScreenshot)},
	}
	_, err := ExecuteSequence(ctx, gate, actions, time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type failingGate struct {
	failOn Action
}

func (g *failingGate) HasPermission() bool { return true }

func (g *failingGate) PerformAction(_ context.Context, action Action, _ map[string]any) error {
	if action == g.failOn {
		return errors.New("action transport error")
	}
	return nil
}
