package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/tbonnaire/auriga/pkg/models"
)

func TestSessionLifecycle(t *testing.T) {
	tracker := NewSessionTracker()
	session := tracker.Create("req-1")

	if session.Status != models.SessionInitializing {
		t.Fatalf("expected initializing, got %s", session.Status)
	}
	if session.EndTime != nil {
		t.Error("expected nil end time on a fresh session")
	}

	tracker.SetStatus(session.ID, models.SessionAnalyzing, 10)
	tracker.SetStatus(session.ID, models.SessionPlanning, 25)
	tracker.SetStatus(session.ID, models.SessionExecuting, 40)
	tracker.SetStatus(session.ID, models.SessionSynthesizing, 80)
	tracker.SetStatus(session.ID, models.SessionCompleted, 100)

	got, err := tracker.Session(session.ID)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got.Status != models.SessionCompleted || got.Progress != 100 {
		t.Errorf("expected completed/100, got %s/%d", got.Status, got.Progress)
	}
	if got.EndTime == nil {
		t.Error("expected end time on terminal session")
	}
}

func TestSessionStatusNeverMovesBackward(t *testing.T) {
	tracker := NewSessionTracker()
	session := tracker.Create("req-1")

	tracker.SetStatus(session.ID, models.SessionExecuting, 40)
	tracker.SetStatus(session.ID, models.SessionAnalyzing, 10)

	got, _ := tracker.Session(session.ID)
	if got.Status != models.SessionExecuting {
		t.Errorf("expected executing to stick, got %s", got.Status)
	}
	if got.Progress != 40 {
		t.Errorf("expected progress 40 to stick, got %d", got.Progress)
	}
}

func TestSessionTerminalIsFinal(t *testing.T) {
	tracker := NewSessionTracker()
	session := tracker.Create("req-1")

	tracker.SetStatus(session.ID, models.SessionFailed, 0)
	first, _ := tracker.Session(session.ID)

	tracker.SetStatus(session.ID, models.SessionCompleted, 100)
	tracker.SetCurrentTask(session.ID, "task-1")
	got, _ := tracker.Session(session.ID)

	if got.Status != models.SessionFailed {
		t.Errorf("expected failed to be final, got %s", got.Status)
	}
	if got.CurrentTaskID != "" {
		t.Errorf("expected no current task on terminal session, got %q", got.CurrentTaskID)
	}
	if first.EndTime == nil || got.EndTime == nil || !first.EndTime.Equal(*got.EndTime) {
		t.Error("expected end time to be set exactly once")
	}
}

func TestSessionFailedFromAnyPhase(t *testing.T) {
	tracker := NewSessionTracker()
	session := tracker.Create("req-1")

	tracker.SetStatus(session.ID, models.SessionAnalyzing, 10)
	tracker.SetStatus(session.ID, models.SessionFailed, 0)

	got, _ := tracker.Session(session.ID)
	if got.Status != models.SessionFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
}

func TestSessionLogsAreTimestamped(t *testing.T) {
	tracker := NewSessionTracker()
	session := tracker.Create("req-1")

	tracker.AppendLog(session.ID, "analyzing %s", "request")
	tracker.AppendLog(session.ID, "planning tasks")

	got, _ := tracker.Session(session.ID)
	if len(got.Logs) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(got.Logs))
	}
	if !strings.Contains(got.Logs[0], "analyzing request") || !strings.HasPrefix(got.Logs[0], "[") {
		t.Errorf("unexpected log line %q", got.Logs[0])
	}
}

func TestSessionUnknownID(t *testing.T) {
	tracker := NewSessionTracker()
	if _, err := tracker.Session("nope"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}

func TestSessionsForRequestRetainsRetries(t *testing.T) {
	tracker := NewSessionTracker()
	first := tracker.Create("req-1")
	tracker.Create("req-2")
	second := tracker.Create("req-1")

	sessions := tracker.SessionsForRequest("req-1")
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions for req-1, got %d", len(sessions))
	}
	if sessions[0].ID != first.ID || sessions[1].ID != second.ID {
		t.Error("sessions not in creation order")
	}
	if got := tracker.SessionsForRequest("req-3"); len(got) != 0 {
		t.Errorf("expected no sessions for unknown request, got %d", len(got))
	}
}

func TestSessionsReturnsCreationOrder(t *testing.T) {
	tracker := NewSessionTracker()
	first := tracker.Create("req-1")
	second := tracker.Create("req-2")

	all := tracker.Sessions()
	if len(all) != 2 || all[0].ID != first.ID || all[1].ID != second.ID {
		t.Errorf("unexpected session order: %v, %v", all, second.ID)
	}
}
