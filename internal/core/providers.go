package core

import "context"

// CompleteOptions control sampling for a single completion call.
type CompleteOptions struct {
	Temperature float64
	MaxTokens   int
}

// CompletionProvider is the natural-language completion engine. Timeouts,
// quota errors and malformed output all surface as plain errors; callers are
// expected to degrade rather than fail the turn.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)
}

// QueryRunner executes exactly one read-only statement against the data store.
type QueryRunner interface {
	Run(ctx context.Context, query string) ([]Row, error)
}
