// Package taskgraph holds the dependency graph of tasks for each request and
// answers "what can run now". Tasks are partitioned by request ID and never
// cross-reference between requests.
package taskgraph

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tbonnaire/auriga/pkg/models"
)

// ErrCyclicDependency indicates a task insertion would create a circular dependency.
var ErrCyclicDependency = errors.New("circular dependency detected")

// ErrInvalidTransition indicates a status change was attempted from a state
// that disallows it.
var ErrInvalidTransition = errors.New("invalid task transition")

// ErrUnknownTask indicates a task ID was not found in the store.
var ErrUnknownTask = errors.New("unknown task")

// ErrUnknownDependency indicates a dependency references a task that does not exist.
var ErrUnknownDependency = errors.New("unknown dependency")

// PlanSpec describes one task to insert as part of a plan. DependsOn entries
// may reference the Key of another spec in the same batch or the ID of a task
// already in the store for the same request.
type PlanSpec struct {
	// Key is the plan-local identifier for this task.
	Key string
	// Description is the natural-language statement of work.
	Description string
	// DependsOn lists keys or existing task IDs this task depends on.
	DependsOn []string
}

// Store holds tasks with dependency edges and status. Mutations are serialized
// under a single mutex; reads return copies so callers never observe a task
// mid-transition.
type Store struct {
	mu sync.RWMutex
	// tasks maps task ID to the task itself.
	tasks map[string]*models.Task
	// order records insertion order for deterministic ready sets.
	order []string
	// byRequest maps request ID to the IDs of its tasks, in insertion order.
	byRequest map[string][]string
	// changes is signalled on every committed mutation.
	changes chan struct{}
}

// NewStore creates an empty task graph store.
func NewStore() *Store {
	return &Store{
		tasks:     make(map[string]*models.Task),
		byRequest: make(map[string][]string),
		changes:   make(chan struct{}, 1),
	}
}

// Changes returns a channel that receives a signal after every committed
// status mutation or insertion. The channel has a buffer of one; consumers
// that miss a signal will still observe the coalesced wakeup.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

// signal notifies waiters of a change without blocking.
func (s *Store) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// CreateTask allocates a single pending task whose dependencies must already
// exist in the store for the same request. Fails with ErrCyclicDependency if
// the new edges would create a cycle.
func (s *Store) CreateTask(requestID, description string, dependsOn []string) (*models.Task, error) {
	tasks, err := s.AddPlan(requestID, []PlanSpec{{
		Key:         uuid.New().String(),
		Description: description,
		DependsOn:   dependsOn,
	}})
	if err != nil {
		return nil, err
	}
	return tasks[0], nil
}

// AddPlan inserts a batch of tasks for a request, resolving plan-local keys
// to store IDs. The batch is validated as a whole: unknown dependencies fail
// with ErrUnknownDependency and cycles fail with ErrCyclicDependency, in both
// cases leaving the store unmutated. Returns the created tasks in plan order.
func (s *Store) AddPlan(requestID string, specs []PlanSpec) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: allocate store IDs for every spec key.
	idByKey := make(map[string]string, len(specs))
	for _, spec := range specs {
		if _, dup := idByKey[spec.Key]; dup {
			return nil, fmt.Errorf("duplicate plan key %q", spec.Key)
		}
		idByKey[spec.Key] = uuid.New().String()
	}

	// Second pass: resolve dependency edges against the batch and the
	// existing graph for this request.
	existing := make(map[string]bool, len(s.byRequest[requestID]))
	for _, id := range s.byRequest[requestID] {
		existing[id] = true
	}

	candidates := make([]*models.Task, 0, len(specs))
	now := time.Now()
	for _, spec := range specs {
		task := &models.Task{
			ID:          idByKey[spec.Key],
			RequestID:   requestID,
			Description: spec.Description,
			Status:      models.TaskStatusPending,
			CreatedAt:   now,
		}
		for _, dep := range spec.DependsOn {
			switch {
			case idByKey[dep] != "":
				task.DependsOn = append(task.DependsOn, idByKey[dep])
			case existing[dep]:
				task.DependsOn = append(task.DependsOn, dep)
			default:
				return nil, fmt.Errorf("%w: task %q depends on %q", ErrUnknownDependency, spec.Key, dep)
			}
		}
		candidates = append(candidates, task)
	}

	if s.wouldCycle(requestID, candidates) {
		return nil, ErrCyclicDependency
	}

	// Commit.
	for _, task := range candidates {
		s.tasks[task.ID] = task
		s.order = append(s.order, task.ID)
		s.byRequest[requestID] = append(s.byRequest[requestID], task.ID)
	}
	s.signal()

	out := make([]*models.Task, len(candidates))
	for i, task := range candidates {
		out[i] = copyTask(task)
	}
	return out, nil
}

// wouldCycle reports whether adding the candidate tasks to the request's
// graph would create a circular dependency. Uses depth-first search with
// coloring to detect back edges.
func (s *Store) wouldCycle(requestID string, candidates []*models.Task) bool {
	edges := make(map[string][]string)
	for _, id := range s.byRequest[requestID] {
		edges[id] = s.tasks[id].DependsOn
	}
	for _, task := range candidates {
		edges[task.ID] = task.DependsOn
	}

	// Color states: 0 = unvisited, 1 = in progress, 2 = done.
	colors := make(map[string]int, len(edges))

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1
		for _, dep := range edges[id] {
			switch colors[dep] {
			case 1:
				return true
			case 0:
				if visit(dep) {
					return true
				}
			}
		}
		colors[id] = 2
		return false
	}

	for id := range edges {
		if colors[id] == 0 && visit(id) {
			return true
		}
	}
	return false
}

// NextExecutable returns all pending tasks for the request whose every
// dependency is completed, in insertion order. The returned tasks are copies.
func (s *Store) NextExecutable(requestID string) []*models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ready []*models.Task
	for _, id := range s.byRequest[requestID] {
		task := s.tasks[id]
		if task.Status != models.TaskStatusPending {
			continue
		}
		satisfied := true
		for _, dep := range task.DependsOn {
			if s.tasks[dep].Status != models.TaskStatusCompleted {
				satisfied = false
				break
			}
		}
		if satisfied {
			ready = append(ready, copyTask(task))
		}
	}
	return ready
}

// StartTask transitions a task from pending to running. Fails with
// ErrInvalidTransition if the task is not pending or a dependency is not yet
// completed.
func (s *Store) StartTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	if task.Status != models.TaskStatusPending {
		return fmt.Errorf("%w: task %s is %s, not pending", ErrInvalidTransition, id, task.Status)
	}
	for _, dep := range task.DependsOn {
		if s.tasks[dep].Status != models.TaskStatusCompleted {
			return fmt.Errorf("%w: task %s has incomplete dependency %s", ErrInvalidTransition, id, dep)
		}
	}

	task.Status = models.TaskStatusRunning
	s.signal()
	return nil
}

// CompleteTask transitions a task from running to completed and stores its result.
func (s *Store) CompleteTask(id string, result *models.ExecutionReport) error {
	return s.finish(id, models.TaskStatusCompleted, result, "")
}

// FailTask transitions a task from running to failed and stores the error
// message. Dependents of a failed task never become executable.
func (s *Store) FailTask(id, errMsg string) error {
	return s.finish(id, models.TaskStatusFailed, nil, errMsg)
}

// finish applies a terminal transition from running.
func (s *Store) finish(id string, status models.TaskStatus, result *models.ExecutionReport, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	if task.Status != models.TaskStatusRunning {
		return fmt.Errorf("%w: task %s is %s, not running", ErrInvalidTransition, id, task.Status)
	}

	task.Status = status
	task.Result = result
	task.Error = errMsg
	now := time.Now()
	task.CompletedAt = &now
	s.signal()
	return nil
}

// AllCompleted returns true iff every task for the request is completed.
// A request with no tasks is vacuously complete. Tasks stuck in failed make
// this permanently false; callers need an independent stall check.
func (s *Store) AllCompleted(requestID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.byRequest[requestID] {
		if s.tasks[id].Status != models.TaskStatusCompleted {
			return false
		}
	}
	return true
}

// AnyRunning returns true if any task for the request is currently running.
func (s *Store) AnyRunning(requestID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.byRequest[requestID] {
		if s.tasks[id].Status == models.TaskStatusRunning {
			return true
		}
	}
	return false
}

// Task returns a copy of the task with the given ID.
func (s *Store) Task(id string) (*models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return copyTask(task), true
}

// TasksForRequest returns copies of all tasks for the request in insertion order.
func (s *Store) TasksForRequest(requestID string) []*models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Task, 0, len(s.byRequest[requestID]))
	for _, id := range s.byRequest[requestID] {
		out = append(out, copyTask(s.tasks[id]))
	}
	return out
}

// Size returns the total number of tasks across all requests.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// copyTask returns a deep-enough copy for safe concurrent reads.
func copyTask(task *models.Task) *models.Task {
	dup := *task
	dup.DependsOn = append([]string(nil), task.DependsOn...)
	if task.CompletedAt != nil {
		at := *task.CompletedAt
		dup.CompletedAt = &at
	}
	return &dup
}
