package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetry_SuccessOnFirstTry(t *testing.T) {
	retrier := NewDefaultRetrier()

	counter := 0
	err := retrier.Do(context.Background(), func() error {
		counter++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counter != 1 {
		t.Errorf("expected 1 attempt, got %d", counter)
	}
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	retrier := NewDefaultRetrier()

	counter := 0
	err := retrier.Do(context.Background(), func() error {
		counter++
		if counter < 2 {
			return errors.New("temporary error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counter != 2 {
		t.Errorf("expected 2 attempts, got %d", counter)
	}
}

func TestRetry_MaxRetriesExceeded(t *testing.T) {
	config := NewDefaultConfig()
	config.MaxRetries = 2
	config.InitialDelay = 5 * time.Millisecond
	retrier := NewRetrier(config)

	expectedErr := errors.New("still failing")
	counter := 0
	err := retrier.Do(context.Background(), func() error {
		counter++
		return expectedErr
	})
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected %v, got %v", expectedErr, err)
	}
	if counter != 3 { // Initial try + 2 retries
		t.Errorf("expected 3 attempts, got %d", counter)
	}
}

func TestRetry_PermanentErrorStopsImmediately(t *testing.T) {
	retrier := NewDefaultRetrier()

	inner := errors.New("bad request")
	counter := 0
	err := retrier.Do(context.Background(), func() error {
		counter++
		return &Permanent{Err: inner}
	})
	if !errors.Is(err, inner) {
		t.Errorf("expected %v, got %v", inner, err)
	}
	if counter != 1 {
		t.Errorf("expected 1 attempt, got %d", counter)
	}
}

func TestRetry_WrappedPermanentErrorStopsImmediately(t *testing.T) {
	retrier := NewDefaultRetrier()

	inner := errors.New("bad request")
	counter := 0
	err := retrier.Do(context.Background(), func() error {
		counter++
		return fmt.Errorf("complete call: %w", &Permanent{Err: inner})
	})
	if !errors.Is(err, inner) {
		t.Errorf("expected %v, got %v", inner, err)
	}
	if counter != 1 {
		t.Errorf("expected 1 attempt, got %d", counter)
	}
}

func TestRetry_PermanentUnwraps(t *testing.T) {
	inner := errors.New("decode failed")
	perm := &Permanent{Err: inner}

	if perm.Error() != inner.Error() {
		t.Errorf("Error() = %q, want %q", perm.Error(), inner.Error())
	}
	if !errors.Is(perm, inner) {
		t.Error("expected Permanent to unwrap to the inner error")
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	retrier := NewDefaultRetrier()

	err := retrier.Do(ctx, func() error {
		cancel()
		return errors.New("operation error after cancel")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRetry_BackoffAndJitter(t *testing.T) {
	config := &Config{
		MaxRetries:    2,
		BackoffFactor: 2.0,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      1 * time.Second,
		Jitter:        50 * time.Millisecond,
	}
	retrier := NewRetrier(config)

	start := time.Now()
	counter := 0
	_ = retrier.Do(context.Background(), func() error {
		counter++
		return errors.New("error")
	})
	elapsed := time.Since(start)

	// Two delays: (100ms + jitter) then (200ms + jitter).
	minExpected := 300 * time.Millisecond
	maxExpected := 400*time.Millisecond + 50*time.Millisecond // slack for scheduling
	if elapsed < minExpected || elapsed > maxExpected {
		t.Errorf("expected total delay between %v and %v, got %v", minExpected, maxExpected, elapsed)
	}
	if counter != 3 {
		t.Errorf("expected 3 attempts, got %d", counter)
	}
}
