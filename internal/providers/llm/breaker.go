package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
	"github.com/mokshitpuri/pharmalist-dbversion/pkg/log"
)

// ErrEngineUnavailable is returned while the breaker is open and calls are
// rejected without reaching the completion engine.
var ErrEngineUnavailable = errors.New("completion engine unavailable")

// Breaker wraps a CompletionProvider in a circuit breaker so a flapping
// engine fails fast instead of burning the per-turn timeout on every call.
type Breaker struct {
	inner   core.CompletionProvider
	breaker *gobreaker.CircuitBreaker
}

func NewBreaker(inner core.CompletionProvider) *Breaker {
	settings := gobreaker.Settings{
		Name:        "completion-engine",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &Breaker{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *Breaker) Complete(ctx context.Context, prompt string, opts core.CompleteOptions) (string, error) {
	result, err := b.breaker.Execute(func() (any, error) {
		return b.inner.Complete(ctx, prompt, opts)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.FromCtx(ctx).Warn().Msg("completion engine circuit open")
			return "", ErrEngineUnavailable
		}
		return "", err
	}
	return result.(string), nil
}
