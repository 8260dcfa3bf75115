package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/core"
)

type stubProvider struct {
	calls int
	err   error
}

func (s *stubProvider) Complete(ctx context.Context, prompt string, opts core.CompleteOptions) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "ok", nil
}

func TestBreaker_PassesThroughWhenClosed(t *testing.T) {
	inner := &stubProvider{}
	b := NewBreaker(inner)

	got, err := b.Complete(context.Background(), "prompt", core.CompleteOptions{})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, inner.calls)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &stubProvider{err: errors.New("engine down")}
	b := NewBreaker(inner)

	for i := 0; i < 3; i++ {
		_, err := b.Complete(context.Background(), "prompt", core.CompleteOptions{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrEngineUnavailable, "failure %d still reaches the engine", i+1)
	}
	assert.Equal(t, 3, inner.calls)

	_, err := b.Complete(context.Background(), "prompt", core.CompleteOptions{})
	assert.ErrorIs(t, err, ErrEngineUnavailable)
	assert.Equal(t, 3, inner.calls, "open breaker rejects without calling the engine")
}
