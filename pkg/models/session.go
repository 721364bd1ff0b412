package models

import "time"

// SessionStatus represents the phase an autonomy session is in.
type SessionStatus string

const (
	// SessionInitializing indicates the session was created but no phase has started.
	SessionInitializing SessionStatus = "initializing"
	// SessionAnalyzing indicates the request is being analyzed.
	SessionAnalyzing SessionStatus = "analyzing"
	// SessionPlanning indicates tasks are being planned.
	SessionPlanning SessionStatus = "planning"
	// SessionExecuting indicates planned tasks are being executed.
	SessionExecuting SessionStatus = "executing"
	// SessionSynthesizing indicates task results are being synthesized.
	SessionSynthesizing SessionStatus = "synthesizing"
	// SessionCompleted indicates the run finished successfully.
	SessionCompleted SessionStatus = "completed"
	// SessionFailed indicates the run aborted.
	SessionFailed SessionStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionInitializing, SessionAnalyzing, SessionPlanning, SessionExecuting,
		SessionSynthesizing, SessionCompleted, SessionFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the session can no longer change status.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// Session is the observable record of one scheduler run for one request.
// It is owned exclusively by the engine; callers read snapshots.
type Session struct {
	// ID is the unique identifier for this session.
	ID string `json:"id"`
	// RequestID is the ID of the originating request.
	RequestID string `json:"request_id"`
	// Status is the current phase of the run.
	Status SessionStatus `json:"status"`
	// Progress is the completion estimate from 0 to 100.
	Progress int `json:"progress"`
	// StartTime is when the session was created.
	StartTime time.Time `json:"start_time"`
	// EndTime is when the session reached a terminal status, if it has.
	EndTime *time.Time `json:"end_time,omitempty"`
	// CurrentTaskID is the task currently being executed, if any.
	CurrentTaskID string `json:"current_task_id,omitempty"`
	// Logs is the ordered list of timestamped log lines for this run.
	Logs []string `json:"logs"`
}
