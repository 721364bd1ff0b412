package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/tbonnaire/auriga/pkg/models"
)

// DefaultActionPause is the delay between consecutive actions in a
// sequence, giving the controlled environment time to settle.
const DefaultActionPause = 500 * time.Millisecond

// ActionResult records the outcome of one action in a sequence.
type ActionResult struct {
	// Action is the action that was attempted.
	Action models.RemoteAction
	// Err is the failure, nil on success.
	Err error
}

// SequenceResult summarizes a sequence execution.
type SequenceResult struct {
	// Results holds one entry per attempted action.
	Results []ActionResult
	// Failed counts the actions that returned an error.
	Failed int
}

// Err returns an error summarizing the sequence, nil when every action
// succeeded.
func (r SequenceResult) Err() error {
	if r.Failed == 0 {
		return nil
	}
	for _, res := range r.Results {
		if res.Err != nil {
			return fmt.Errorf("%d of %d actions failed, first: %w", r.Failed, len(r.Results), res.Err)
		}
	}
	return nil
}

// ExecuteSequence performs the actions through the gate in order, pausing
// between them. Permission is checked once up front; a denied gate attempts
// nothing. Individual action failures are recorded and the sequence
// continues, so a flaky click does not abandon the rest of the plan.
func ExecuteSequence(ctx context.Context, gate Gate, actions []models.RemoteAction, pause time.Duration) (SequenceResult, error) {
	if len(actions) == 0 {
		return SequenceResult{}, nil
	}
	if gate == nil || !gate.HasPermission() {
		return SequenceResult{}, ErrPermissionDenied
	}
	if pause <= 0 {
		pause = DefaultActionPause
	}

	var result SequenceResult
	for i, action := range actions {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		err := gate.PerformAction(ctx, Action(action.ActionType), action.Parameters)
		result.Results = append(result.Results, ActionResult{Action: action, Err: err})
		if err != nil {
			result.Failed++
		}
		if i < len(actions)-1 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(pause):
			}
		}
	}
	return result, nil
}
