// Package remote defines the capability collaborator for tasks that act on
// the user's machine. The engine checks permission before performing any
// action; a missing permission fails the task, never the run.
package remote

import (
	"context"
	"errors"
	"sync"
)

// ErrPermissionDenied indicates a control action was attempted without the
// user's permission.
var ErrPermissionDenied = errors.New("remote control permission not granted")

// Action identifies a remote control action type.
type Action string

const (
	// ActionMouseMove moves the cursor to specific coordinates.
	ActionMouseMove Action = "mouse_move"
	// ActionMouseClick clicks at specific coordinates.
	ActionMouseClick Action = "mouse_click"
	// ActionKeyPress simulates a key press.
	ActionKeyPress Action = "key_press"
	// ActionTextInput types text.
	ActionTextInput Action = "text_input"
	// ActionOpenApplication opens an application.
	ActionOpenApplication Action = "open_application"
	// ActionCloseApplication closes an application.
	ActionCloseApplication Action = "close_application"
	// ActionScreenshot captures the screen.
	ActionScreenshot Action = "screenshot"
)

// Gate is the capability/permission collaborator. Implementations bridge to
// whatever transport actually performs actions; the engine only needs the
// permission check and the action call.
type Gate interface {
	// HasPermission reports whether control actions are currently allowed.
	HasPermission() bool
	// PerformAction performs one control action. Returns an error when the
	// action fails or permission is missing.
	PerformAction(ctx context.Context, action Action, params map[string]any) error
}

// PerformedAction records one action a StaticGate accepted.
type PerformedAction struct {
	// Action is the action type.
	Action Action
	// Params holds the action parameters.
	Params map[string]any
}

// StaticGate is an in-memory Gate with a fixed permission flag. It records
// the actions it accepts; composition roots use it when no real control
// transport is wired, and tests use it to observe engine behavior.
type StaticGate struct {
	mu        sync.Mutex
	allowed   bool
	performed []PerformedAction
}

// NewStaticGate creates a gate with the given permission setting.
func NewStaticGate(allowed bool) *StaticGate {
	return &StaticGate{allowed: allowed}
}

// HasPermission reports the gate's permission flag.
func (g *StaticGate) HasPermission() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.allowed
}

// SetPermission updates the gate's permission flag.
func (g *StaticGate) SetPermission(allowed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.allowed = allowed
}

// PerformAction records the action when permission is granted.
func (g *StaticGate) PerformAction(_ context.Context, action Action, params map[string]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.allowed {
		return ErrPermissionDenied
	}
	g.performed = append(g.performed, PerformedAction{Action: action, Params: params})
	return nil
}

// Performed returns the actions the gate accepted, in order.
func (g *StaticGate) Performed() []PerformedAction {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]PerformedAction(nil), g.performed...)
}
