package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tbonnaire/auriga/internal/experience"
	"github.com/tbonnaire/auriga/internal/prompt"
	"github.com/tbonnaire/auriga/internal/reasoning"
	"github.com/tbonnaire/auriga/internal/remote"
	"github.com/tbonnaire/auriga/internal/taskgraph"
	"github.com/tbonnaire/auriga/pkg/models"
)

// Progress estimates reported at the start of each phase.
const (
	progressAnalyzing    = 10
	progressPlanning     = 25
	progressExecuting    = 40
	progressSynthesizing = 80
	progressCompleted    = 100
)

// Default engine tuning values. The durations apply when Config leaves them
// zero; MaxRetries treats zero as a valid setting (no retries) and is only
// defaulted when negative.
const (
	DefaultReasoningTimeout = 2 * time.Minute
	DefaultMaxRetries       = 2
	DefaultPollInterval     = 50 * time.Millisecond
	DefaultMaxPollInterval  = time.Second
)

// defaultTools is the tool catalogue offered to execution prompts when the
// plan step does not name its own.
var defaultTools = []string{"search", "calculate", "remote_control"}

// Config tunes engine behavior.
type Config struct {
	// ReasoningTimeout bounds each individual model call.
	ReasoningTimeout time.Duration
	// MaxRetries is the number of additional attempts for the analysis,
	// planning and synthesis calls. Zero disables retries; a negative value
	// selects the default. Execution calls are never retried; a bad
	// execution response fails its task, not the run.
	MaxRetries int
	// PollInterval is the initial wait between execution scheduling passes
	// when no store change arrives.
	PollInterval time.Duration
	// MaxPollInterval caps the scheduling backoff.
	MaxPollInterval time.Duration
	// ActionPause is the delay between remote control actions.
	ActionPause time.Duration
	// Provider selects provider-specific prompt templates, if registered.
	Provider string
	// Model selects model-specific prompt templates, if registered.
	Model string
	// SystemPrompt overrides the built-in system prompt when non-empty.
	SystemPrompt string
}

func (c Config) systemPrompt() string {
	if c.SystemPrompt != "" {
		return c.SystemPrompt
	}
	return prompt.SystemPrompt()
}

func (c Config) withDefaults() Config {
	if c.ReasoningTimeout <= 0 {
		c.ReasoningTimeout = DefaultReasoningTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxPollInterval < c.PollInterval {
		c.MaxPollInterval = DefaultMaxPollInterval
	}
	if c.ActionPause <= 0 {
		c.ActionPause = remote.DefaultActionPause
	}
	return c
}

// Engine runs the analyze, plan, execute, synthesize cycle for user
// requests. One engine serves many requests; each Execute call owns one
// session.
type Engine struct {
	store    *taskgraph.Store
	invoker  reasoning.Invoker
	compiler *prompt.Compiler
	network  *experience.Network
	gate     remote.Gate
	sessions *SessionTracker
	logger   *DebugLogger
	cfg      Config
}

// New creates an engine. network, gate and logger may be nil; the engine
// then runs without experience capture, remote control, or debug logging.
func New(
	store *taskgraph.Store,
	invoker reasoning.Invoker,
	compiler *prompt.Compiler,
	network *experience.Network,
	gate remote.Gate,
	sessions *SessionTracker,
	logger *DebugLogger,
	cfg Config,
) *Engine {
	if sessions == nil {
		sessions = NewSessionTracker()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Engine{
		store:    store,
		invoker:  invoker,
		compiler: compiler,
		network:  network,
		gate:     gate,
		sessions: sessions,
		logger:   logger,
		cfg:      cfg.withDefaults(),
	}
}

// Sessions exposes the engine's session tracker.
func (e *Engine) Sessions() *SessionTracker {
	return e.sessions
}

// Result is the product of one completed run.
type Result struct {
	// RequestID identifies the request the run served.
	RequestID string
	// Session is the final session snapshot.
	Session *models.Session
	// Analysis is the structured request analysis.
	Analysis *models.RequestAnalysis
	// Plan is the task plan that was executed.
	Plan *models.TaskPlan
	// Outcomes maps plan-local task IDs to their execution outcomes. Tasks
	// whose dependencies failed appear as failures here without ever
	// running.
	Outcomes map[string]models.Outcome
	// FinalAnswer is the synthesized response to the request.
	FinalAnswer string
}

// Execute runs a full cycle for the given request content. userID may be
// empty; when set, the run is recorded against that user's profile.
// The session reflects the run's state throughout and is tracked even when
// Execute returns an error.
func (e *Engine) Execute(ctx context.Context, userID, content string) (*Result, error) {
	request := models.UserRequest{
		ID:        uuid.NewString(),
		Content:   content,
		CreatedAt: time.Now(),
	}
	session := e.sessions.Create(request.ID)
	e.logger.Log("session %s: starting run for request %s", session.ID, request.ID)

	result, err := e.run(ctx, session.ID, userID, request)
	if err != nil {
		e.sessions.AppendLog(session.ID, "run failed: %v", err)
		e.sessions.SetStatus(session.ID, models.SessionFailed, progressCompleted)
		e.logger.Log("session %s: failed: %v", session.ID, err)
	}
	final, _ := e.sessions.Session(session.ID)
	if result == nil {
		result = &Result{RequestID: request.ID}
	}
	result.RequestID = request.ID
	result.Session = final
	return result, err
}

func (e *Engine) run(ctx context.Context, sessionID, userID string, request models.UserRequest) (*Result, error) {
	// Analysis.
	e.sessions.SetStatus(sessionID, models.SessionAnalyzing, progressAnalyzing)
	e.sessions.AppendLog(sessionID, "analyzing request")

	analysis, err := e.analyze(ctx, userID, request.Content)
	if err != nil {
		return nil, err
	}
	e.sessions.AppendLog(sessionID, "analysis complete: %s (%s)", analysis.MainObjective, analysis.Complexity)
	if analysis.ClarificationNeeded {
		return &Result{Analysis: analysis}, fmt.Errorf("%w: %s",
			ErrClarificationNeeded, strings.Join(analysis.ClarificationQuestions, "; "))
	}

	// Planning.
	e.sessions.SetStatus(sessionID, models.SessionPlanning, progressPlanning)
	e.sessions.AppendLog(sessionID, "planning tasks")

	plan, tasks, err := e.plan(ctx, request.ID, analysis)
	if err != nil {
		return &Result{Analysis: analysis}, err
	}
	e.sessions.AppendLog(sessionID, "plan ready: %d tasks", len(plan.Tasks))

	// Execution.
	e.sessions.SetStatus(sessionID, models.SessionExecuting, progressExecuting)
	outcomes, err := e.executeTasks(ctx, sessionID, request.ID, tasks, plan, analysis)
	if err != nil {
		return &Result{Analysis: analysis, Plan: plan, Outcomes: outcomes}, err
	}

	// Synthesis.
	e.sessions.SetStatus(sessionID, models.SessionSynthesizing, progressSynthesizing)
	e.sessions.AppendLog(sessionID, "synthesizing results")

	answer, err := e.synthesize(ctx, request.Content, plan, outcomes)
	if err != nil {
		return &Result{Analysis: analysis, Plan: plan, Outcomes: outcomes}, err
	}

	e.sessions.SetStatus(sessionID, models.SessionCompleted, progressCompleted)
	e.sessions.AppendLog(sessionID, "run complete")
	e.capture(userID, request.Content, answer, analysis, plan, outcomes)

	return &Result{
		Analysis:    analysis,
		Plan:        plan,
		Outcomes:    outcomes,
		FinalAnswer: answer,
	}, nil
}

// analyze runs the analysis phase. The request content is enhanced with
// related past experience before it is sent.
func (e *Engine) analyze(ctx context.Context, userID, content string) (*models.RequestAnalysis, error) {
	enhanced := content
	if e.network != nil {
		enhanced = e.network.EnhancePrompt(content, userID)
	}
	compiled, err := e.compiler.Compile(prompt.PhaseAnalysis,
		map[string]string{"userRequest": enhanced}, e.cfg.Provider, e.cfg.Model)
	if err != nil {
		return nil, err
	}
	return invokeParsed(ctx, e.invoker, e.cfg.systemPrompt(), compiled.Content,
		e.cfg.ReasoningTimeout, e.cfg.MaxRetries, ParseAnalysis)
}

// plan runs the planning phase and registers the plan's tasks. The returned
// map goes from store task ID to the plan step it came from.
func (e *Engine) plan(ctx context.Context, requestID string, analysis *models.RequestAnalysis) (*models.TaskPlan, map[string]models.PlanStep, error) {
	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode analysis: %w", err)
	}
	compiled, err := e.compiler.Compile(prompt.PhasePlanning,
		map[string]string{"analysisResult": string(analysisJSON)}, e.cfg.Provider, e.cfg.Model)
	if err != nil {
		return nil, nil, err
	}
	plan, err := invokeParsed(ctx, e.invoker, e.cfg.systemPrompt(), compiled.Content,
		e.cfg.ReasoningTimeout, e.cfg.MaxRetries, ParsePlan)
	if err != nil {
		return nil, nil, err
	}

	specs := make([]taskgraph.PlanSpec, 0, len(plan.Tasks))
	for _, step := range plan.Tasks {
		specs = append(specs, taskgraph.PlanSpec{
			Key:         step.ID,
			Description: step.Description,
			DependsOn:   step.Dependencies,
		})
	}
	created, err := e.store.AddPlan(requestID, specs)
	if err != nil {
		return nil, nil, fmt.Errorf("register plan: %w", err)
	}

	// AddPlan preserves spec order, so created[i] corresponds to
	// plan.Tasks[i].
	steps := make(map[string]models.PlanStep, len(created))
	for i, task := range created {
		steps[task.ID] = plan.Tasks[i]
	}
	return plan, steps, nil
}

// executeTasks drives the execution phase: it repeatedly starts every task
// whose dependencies are complete, running started tasks concurrently, until
// all tasks are terminal or the remaining ones are blocked by a failure.
func (e *Engine) executeTasks(
	ctx context.Context,
	sessionID, requestID string,
	steps map[string]models.PlanStep,
	plan *models.TaskPlan,
	analysis *models.RequestAnalysis,
) (map[string]models.Outcome, error) {
	outcomes := make(map[string]models.Outcome, len(plan.Tasks))
	var mu sync.Mutex
	var wg sync.WaitGroup
	dispatched := make(map[string]bool, len(plan.Tasks))
	poll := e.cfg.PollInterval

	for {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return outcomes, err
		}

		started := 0
		for _, task := range e.store.NextExecutable(requestID) {
			if dispatched[task.ID] {
				continue
			}
			if _, ok := steps[task.ID]; !ok {
				wg.Wait()
				return outcomes, fmt.Errorf("%w: task %s has no plan step", ErrUnreachable, task.ID)
			}
			if err := e.store.StartTask(task.ID); err != nil {
				continue
			}
			dispatched[task.ID] = true
			started++
			wg.Add(1)
			go func(task *models.Task, step models.PlanStep) {
				defer wg.Done()
				outcome := e.runTask(ctx, sessionID, task, step, analysis)
				mu.Lock()
				outcomes[step.ID] = outcome
				mu.Unlock()
			}(task, steps[task.ID])
		}

		if e.store.AllCompleted(requestID) {
			break
		}
		if started == 0 && !e.store.AnyRunning(requestID) {
			// A task may have finished after the ready set was computed;
			// only a still-empty ready set means the remaining pending
			// tasks are blocked behind a failure.
			if len(e.store.NextExecutable(requestID)) == 0 {
				break
			}
			continue
		}

		select {
		case <-ctx.Done():
			wg.Wait()
			return outcomes, ctx.Err()
		case <-e.store.Changes():
			poll = e.cfg.PollInterval
		case <-time.After(poll):
			if poll *= 2; poll > e.cfg.MaxPollInterval {
				poll = e.cfg.MaxPollInterval
			}
		}
	}
	wg.Wait()

	// Tasks stranded behind a failed dependency never ran; record them so
	// synthesis can account for every planned task.
	for _, task := range e.store.TasksForRequest(requestID) {
		step, ok := steps[task.ID]
		if !ok {
			continue
		}
		mu.Lock()
		if _, seen := outcomes[step.ID]; !seen && task.Status == models.TaskStatusPending {
			outcomes[step.ID] = models.FailureOutcome("blocked by failed dependency")
			e.sessions.AppendLog(sessionID, "task %s blocked by failed dependency", step.ID)
		}
		mu.Unlock()
	}
	return outcomes, nil
}

// runTask executes one task: compile the execution prompt, invoke the model,
// parse the report, and perform any remote actions it requests. All failure
// modes stay task-local.
func (e *Engine) runTask(ctx context.Context, sessionID string, task *models.Task, step models.PlanStep, analysis *models.RequestAnalysis) models.Outcome {
	e.sessions.SetCurrentTask(sessionID, task.ID)
	e.sessions.AppendLog(sessionID, "executing task %s: %s", step.ID, step.Description)
	e.logger.Log("task %s (%s): starting", step.ID, task.ID)

	tools := step.Tools
	if len(tools) == 0 {
		tools = defaultTools
	}
	compiled, err := e.compiler.Compile(prompt.PhaseExecution, map[string]string{
		"taskId":          step.ID,
		"taskDescription": step.Description,
		"availableTools":  strings.Join(tools, ", "),
		"requestContext":  analysis.MainObjective,
	}, e.cfg.Provider, e.cfg.Model)
	if err != nil {
		return e.failTask(sessionID, task, step, fmt.Sprintf("compile prompt: %v", err))
	}

	text, err := invoke(ctx, e.invoker, e.cfg.systemPrompt(), compiled.Content, e.cfg.ReasoningTimeout)
	if err != nil {
		return e.failTask(sessionID, task, step, fmt.Sprintf("model call: %v", err))
	}
	report, err := ParseExecutionReport(text)
	if err != nil {
		return e.failTask(sessionID, task, step, err.Error())
	}
	if report.TaskID == "" {
		report.TaskID = step.ID
	}

	if len(report.Actions) > 0 {
		seq, err := remote.ExecuteSequence(ctx, e.gate, report.Actions, e.cfg.ActionPause)
		if err != nil {
			return e.failTask(sessionID, task, step, fmt.Sprintf("remote actions: %v", err))
		}
		if seqErr := seq.Err(); seqErr != nil {
			report.Issues = append(report.Issues, seqErr.Error())
		}
	}

	if report.Outcome == models.OutcomeFailure {
		msg := report.Result
		if msg == "" {
			msg = strings.Join(report.Issues, "; ")
		}
		return e.failTask(sessionID, task, step, msg)
	}

	if err := e.store.CompleteTask(task.ID, report); err != nil {
		return e.failTask(sessionID, task, step, fmt.Sprintf("record completion: %v", err))
	}
	e.sessions.AppendLog(sessionID, "task %s completed (%s)", step.ID, report.Outcome)
	e.logger.Log("task %s (%s): completed with outcome %s", step.ID, task.ID, report.Outcome)
	return models.SuccessOutcome(report)
}

func (e *Engine) failTask(sessionID string, task *models.Task, step models.PlanStep, msg string) models.Outcome {
	if err := e.store.FailTask(task.ID, msg); err != nil {
		e.logger.Log("task %s (%s): fail transition rejected: %v", step.ID, task.ID, err)
	}
	e.sessions.AppendLog(sessionID, "task %s failed: %s", step.ID, msg)
	e.logger.Log("task %s (%s): failed: %s", step.ID, task.ID, msg)
	return models.FailureOutcome(msg)
}

// synthesize runs the synthesis phase over every planned task's outcome.
func (e *Engine) synthesize(ctx context.Context, content string, plan *models.TaskPlan, outcomes map[string]models.Outcome) (string, error) {
	var b strings.Builder
	for _, step := range plan.Tasks {
		outcome, ok := outcomes[step.ID]
		fmt.Fprintf(&b, "### %s: %s\n", step.ID, step.Description)
		switch {
		case !ok:
			b.WriteString("Outcome: unknown\n\n")
		case outcome.Success:
			fmt.Fprintf(&b, "Outcome: %s\nResult: %s\n", outcome.Value.Outcome, outcome.Value.Result)
			if len(outcome.Value.Issues) > 0 {
				fmt.Fprintf(&b, "Issues: %s\n", strings.Join(outcome.Value.Issues, "; "))
			}
			b.WriteString("\n")
		default:
			fmt.Fprintf(&b, "Outcome: failure\nError: %s\n\n", outcome.Error)
		}
	}

	compiled, err := e.compiler.Compile(prompt.PhaseSynthesis, map[string]string{
		"userRequest": content,
		"taskResults": b.String(),
	}, e.cfg.Provider, e.cfg.Model)
	if err != nil {
		return "", err
	}
	return invokeParsed(ctx, e.invoker, e.cfg.systemPrompt(), compiled.Content,
		e.cfg.ReasoningTimeout, e.cfg.MaxRetries, func(text string) (string, error) {
			text = strings.TrimSpace(text)
			if text == "" {
				return "", fmt.Errorf("%w: empty synthesis", ErrMalformedResponse)
			}
			return text, nil
		})
}

// capture records the completed run in the experience network. The node's
// effectiveness is the share of planned tasks that succeeded.
func (e *Engine) capture(userID, content, answer string, analysis *models.RequestAnalysis, plan *models.TaskPlan, outcomes map[string]models.Outcome) {
	if e.network == nil || len(plan.Tasks) == 0 {
		return
	}
	succeeded := 0
	for _, outcome := range outcomes {
		if outcome.Success {
			succeeded++
		}
	}
	effectiveness := succeeded * 100 / len(plan.Tasks)
	node := e.network.AddExperience(content, answer, effectiveness, experience.Metadata{
		Timestamp: time.Now(),
		Provider:  e.providerName(),
		Model:     e.cfg.Model,
		Context:   analysis.MainObjective,
		Tags:      analysis.KnowledgeDomains,
	})
	if userID != "" {
		e.network.RecordInteraction(userID, node.ID, nil)
	}
}

func (e *Engine) providerName() string {
	if e.cfg.Provider != "" {
		return e.cfg.Provider
	}
	return "anthropic"
}
