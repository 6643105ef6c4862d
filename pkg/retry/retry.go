// Package retry provides bounded retries with exponential backoff.
package retry

import (
	"context"
	"math"
	"time"
)

// Config holds retry configuration.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the backoff before clamping, doubled per attempt.
	BaseDelay time.Duration
	// MinDelay and MaxDelay clamp each computed backoff.
	MinDelay time.Duration
	MaxDelay time.Duration
}

// DefaultConfig returns the retry policy used for provider calls:
// 3 attempts with exponential backoff clamped to [4s, 10s].
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MinDelay:    4 * time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// Backoff returns the wait before retrying after the given attempt
// index: min(MaxDelay, max(MinDelay, BaseDelay * 2^attempt)).
func (c Config) Backoff(attempt int) time.Duration {
	d := float64(c.BaseDelay) * math.Pow(2, float64(attempt))
	if d < float64(c.MinDelay) {
		d = float64(c.MinDelay)
	}
	if d > float64(c.MaxDelay) {
		d = float64(c.MaxDelay)
	}
	return time.Duration(d)
}

// Do executes fn, retrying on any error up to MaxAttempts total
// attempts. The final error is returned once attempts are exhausted.
// There is no distinction between transient and permanent failures at
// this layer; callers decide how to degrade.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult executes fn with the same policy as Do and returns its result.
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == cfg.MaxAttempts-1 {
			break
		}
		t := time.NewTimer(cfg.Backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
	}

	return zero, lastErr
}
