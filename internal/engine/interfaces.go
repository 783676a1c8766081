// Package engine implements the classification side of the bot: the lexical
// pre-filter, the LLM-backed rule pipeline, and the rate-limit retry
// discipline around classifier calls.
package engine

import "context"

// ModelClient abstracts the LLM completion backend. Implementations return a
// *model.RateLimitError when the upstream throttles the request so the retry
// controller can wait and try again; any other error is final.
type ModelClient interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
