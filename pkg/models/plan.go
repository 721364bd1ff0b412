package models

// Complexity tiers reported by request analysis.
const (
	ComplexitySimple  = "simple"
	ComplexityMedium  = "medium"
	ComplexityComplex = "complex"
)

// RequestAnalysis is the structured product of the analysis phase.
type RequestAnalysis struct {
	// MainObjective is the primary goal extracted from the request.
	MainObjective string `json:"mainObjective"`
	// KnowledgeDomains lists the knowledge areas needed to satisfy the request.
	KnowledgeDomains []string `json:"knowledgeDomains"`
	// Constraints lists explicit and implicit constraints on the work.
	Constraints []string `json:"constraints"`
	// Complexity is the estimated complexity tier (simple, medium, complex).
	Complexity string `json:"complexity"`
	// ClarificationNeeded indicates the request is too ambiguous to execute.
	ClarificationNeeded bool `json:"clarificationNeeded"`
	// ClarificationQuestions lists questions for the user when clarification is needed.
	ClarificationQuestions []string `json:"clarificationQuestions,omitempty"`
}

// TaskPlan is the structured product of the planning phase.
type TaskPlan struct {
	// Tasks is the ordered list of planned task specifications.
	Tasks []PlanStep `json:"tasks"`
}

// PlanStep is one task specification inside a plan. Dependencies reference
// the IDs of other steps in the same plan.
type PlanStep struct {
	// ID is the plan-local identifier for this step (e.g. "task-1").
	ID string `json:"id"`
	// Description is the work this step performs.
	Description string `json:"description"`
	// Dependencies lists plan-local IDs of steps this step depends on.
	Dependencies []string `json:"dependencies"`
	// EstimatedTime is the model's duration estimate in minutes.
	EstimatedTime string `json:"estimatedTime"`
	// Tools lists the tool names this step expects to use.
	Tools []string `json:"tools"`
	// ExpectedOutput describes the result this step should produce.
	ExpectedOutput string `json:"expectedOutput"`
}

// Execution outcome tags reported by the execution phase.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailure = "failure"
)

// ExecutionReport is the structured product of executing one task.
type ExecutionReport struct {
	// TaskID is the plan-local ID of the executed task.
	TaskID string `json:"taskId"`
	// Steps is the ordered list of steps the model took.
	Steps []ExecutionStep `json:"steps,omitempty"`
	// Actions lists remote control actions the model requested, if any.
	Actions []RemoteAction `json:"actions,omitempty"`
	// Outcome is the overall outcome tag (success, partial, failure).
	Outcome string `json:"outcome"`
	// Result is the final result text of the task.
	Result string `json:"result"`
	// Issues lists problems encountered during execution.
	Issues []string `json:"issues,omitempty"`
}

// ExecutionStep is one step inside an execution report.
type ExecutionStep struct {
	// StepNumber is the 1-indexed position of this step.
	StepNumber int `json:"stepNumber"`
	// Description is what this step did.
	Description string `json:"description"`
	// ToolUsed is the tool name used by this step, if any.
	ToolUsed string `json:"toolUsed,omitempty"`
	// Result is the outcome of this step.
	Result string `json:"result"`
}

// RemoteAction is a remote control action requested by an execution report.
type RemoteAction struct {
	// ActionType is the control action name (e.g. "mouse_click").
	ActionType string `json:"actionType"`
	// Parameters holds action-specific parameters.
	Parameters map[string]any `json:"parameters,omitempty"`
	// Purpose explains why the action is performed.
	Purpose string `json:"purpose,omitempty"`
}
