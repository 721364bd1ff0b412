package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/tbonnaire/auriga/internal/reasoning"
)

// invoke runs one model call under the engine's per-call timeout.
func invoke(ctx context.Context, inv reasoning.Invoker, system, prompt string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return inv.Invoke(ctx, system, prompt)
}

// invokeParsed calls the model and parses the response, retrying the call
// when the call fails or the response is malformed. A canceled context is
// never retried. retries is the number of additional attempts after the
// first.
func invokeParsed[T any](
	ctx context.Context,
	inv reasoning.Invoker,
	system, prompt string,
	timeout time.Duration,
	retries int,
	parse func(string) (T, error),
) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		text, err := invoke(ctx, inv, system, prompt, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		parsed, err := parse(text)
		if err != nil {
			lastErr = err
			continue
		}
		return parsed, nil
	}
	return zero, fmt.Errorf("after %d attempts: %w", retries+1, lastErr)
}
