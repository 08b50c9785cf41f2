// Package retry runs an operation under an explicit retry policy with
// capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"vidcatalog/shared/config"
)

// Policy describes how an operation is retried.
// Attempts are numbered from 0; the wait before attempt n+1 is
// InitialBackoff * Multiplier^n, capped at MaxBackoff.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	// ShouldRetry reports whether err is worth another attempt.
	// Nil retries every error except context cancellation.
	ShouldRetry func(err error) bool

	// OnRetry is called after a failed attempt that will be retried,
	// with the wait before the next one.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// FromConfig builds a Policy from the retry section of the configuration
func FromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Multiplier:     cfg.BackoffMultiplier,
	}
}

// ExhaustedError is returned when every attempt failed
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("max attempts (%d) exceeded: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Backoff returns the wait after the given failed attempt
func (p Policy) Backoff(attempt int) time.Duration {
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	backoff := float64(p.InitialBackoff) * math.Pow(multiplier, float64(attempt))

	if p.MaxBackoff > 0 && backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}

	return time.Duration(backoff)
}

// Do runs op until it succeeds, returns a non-retryable error, the
// attempts are exhausted or ctx is done. The last error is returned
// unwrapped when it is not retryable, wrapped in ExhaustedError otherwise.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		if !p.retryable(err) {
			return err
		}
		lastErr = err

		// Don't sleep after last attempt
		if attempt == attempts-1 {
			break
		}

		wait := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return &ExhaustedError{Attempts: attempts, Err: lastErr}
}

func (p Policy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if p.ShouldRetry != nil {
		return p.ShouldRetry(err)
	}
	return true
}
