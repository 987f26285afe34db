// Package retry implements bounded retries with exponential backoff.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Config controls the retry loop.
type Config struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the exponential growth of the delay.
	MaxDelay time.Duration

	// Multiplier scales the delay after each failed attempt.
	Multiplier float64

	// Jitter extends each delay by up to the given fraction of itself.
	Jitter float64

	// Retryable filters errors worth retrying; nil retries everything.
	Retryable func(error) bool
}

// DefaultConfig retries five times over roughly half a minute.
func DefaultConfig() Config {
	return Config{
		Attempts:     5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     15 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Do runs fn until it succeeds, the attempts are exhausted, ctx is done, or
// fn returns a non-retryable error.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if cfg.Retryable != nil && !cfg.Retryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.Attempts {
			break
		}

		wait := delay
		if cfg.Jitter > 0 {
			wait += time.Duration(rand.Int63n(int64(float64(delay)*cfg.Jitter) + 1))
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", cfg.Attempts, lastErr)
}
