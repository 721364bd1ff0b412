package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tbonnaire/auriga/pkg/models"
)

// statusRank orders session statuses along the run's forward path. A session
// never moves to a lower rank; failed is reachable from any non-terminal
// status.
var statusRank = map[models.SessionStatus]int{
	models.SessionInitializing: 0,
	models.SessionAnalyzing:    1,
	models.SessionPlanning:     2,
	models.SessionExecuting:    3,
	models.SessionSynthesizing: 4,
	models.SessionCompleted:    5,
	models.SessionFailed:       5,
}

// SessionTracker owns the session records for all runs in this process.
// Callers read snapshots; only the engine mutates sessions.
type SessionTracker struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	order    []string
}

// NewSessionTracker creates an empty tracker.
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{sessions: make(map[string]*models.Session)}
}

// Create starts tracking a new session for the given request.
func (t *SessionTracker) Create(requestID string) *models.Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	session := &models.Session{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Status:    models.SessionInitializing,
		Progress:  0,
		StartTime: time.Now(),
	}
	t.sessions[session.ID] = session
	t.order = append(t.order, session.ID)
	return copySession(session)
}

// SetStatus advances a session to status with the given progress. Backward
// and post-terminal transitions are ignored; progress never decreases.
// Reaching a terminal status records the end time once.
func (t *SessionTracker) SetStatus(id string, status models.SessionStatus, progress int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.sessions[id]
	if !ok || session.Status.Terminal() {
		return
	}
	if statusRank[status] < statusRank[session.Status] {
		return
	}
	session.Status = status
	if progress > session.Progress {
		session.Progress = progress
	}
	if status.Terminal() {
		now := time.Now()
		session.EndTime = &now
		session.CurrentTaskID = ""
	}
}

// SetCurrentTask records the task a session is currently executing.
func (t *SessionTracker) SetCurrentTask(id, taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if session, ok := t.sessions[id]; ok && !session.Status.Terminal() {
		session.CurrentTaskID = taskID
	}
}

// AppendLog appends a timestamped log line to a session.
func (t *SessionTracker) AppendLog(id, format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.sessions[id]
	if !ok {
		return
	}
	line := fmt.Sprintf("[%s] %s", time.Now().Format(time.RFC3339), fmt.Sprintf(format, args...))
	session.Logs = append(session.Logs, line)
}

// Session returns a snapshot of the session with the given ID.
func (t *SessionTracker) Session(id string) (*models.Session, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	session, ok := t.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return copySession(session), nil
}

// SessionsForRequest returns snapshots of every session created for the
// given request, in creation order. Retried runs produce multiple sessions;
// all are retained.
func (t *SessionTracker) SessionsForRequest(requestID string) []*models.Session {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []*models.Session
	for _, id := range t.order {
		if t.sessions[id].RequestID == requestID {
			out = append(out, copySession(t.sessions[id]))
		}
	}
	return out
}

// Sessions returns snapshots of all tracked sessions in creation order.
func (t *SessionTracker) Sessions() []*models.Session {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*models.Session, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, copySession(t.sessions[id]))
	}
	return out
}

func copySession(session *models.Session) *models.Session {
	dup := *session
	dup.Logs = append([]string(nil), session.Logs...)
	if session.EndTime != nil {
		end := *session.EndTime
		dup.EndTime = &end
	}
	return &dup
}
