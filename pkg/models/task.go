package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates the task is being executed.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusCompleted indicates the task completed successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task failed.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transition is allowed from this status.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task represents a unit of work in a request's dependency graph.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// RequestID is the ID of the request this task belongs to.
	RequestID string `json:"request_id"`
	// Description is the natural-language statement of work.
	Description string `json:"description"`
	// DependsOn lists task IDs that must complete before this task may start.
	DependsOn []string `json:"depends_on,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Result holds the execution report set on completion.
	Result *ExecutionReport `json:"result,omitempty"`
	// Error contains the error message if the task failed.
	Error string `json:"error,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is when the task reached a terminal state, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Outcome is the terminal result of a task: a success value or a failure message.
// It is consumed explicitly at synthesis time.
type Outcome struct {
	// Success reports whether the task produced a result.
	Success bool `json:"success"`
	// Value is the execution report when Success is true.
	Value *ExecutionReport `json:"value,omitempty"`
	// Error is the failure message when Success is false.
	Error string `json:"error,omitempty"`
}

// SuccessOutcome wraps an execution report in a successful outcome.
func SuccessOutcome(report *ExecutionReport) Outcome {
	return Outcome{Success: true, Value: report}
}

// FailureOutcome wraps an error message in a failed outcome.
func FailureOutcome(msg string) Outcome {
	return Outcome{Success: false, Error: msg}
}

// UserRequest is the originating request a run executes.
type UserRequest struct {
	// ID is the unique identifier for this request.
	ID string `json:"id"`
	// Content is the natural-language request text.
	Content string `json:"content"`
	// CreatedAt is when the request was received.
	CreatedAt time.Time `json:"created_at"`
}
