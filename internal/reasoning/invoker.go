// Package reasoning provides the black-box text-generation capability the
// engine calls at each phase. The engine treats the returned text as
// untrusted and parses structure out of it itself.
package reasoning

import "context"

// Invoker is the black-box reasoning operation: a system prompt and a
// compiled user prompt in, model text out.
type Invoker interface {
	Invoke(ctx context.Context, system, prompt string) (string, error)
}
