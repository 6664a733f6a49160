// Package judge wraps the external judgment service behind a small interface
// so scoring and contact selection stay testable with deterministic fakes.
package judge

import "context"

// Completer sends a system instruction and a user prompt to the judgment
// service and returns the raw response text, which callers parse as a single
// JSON object.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
