// Package retry provides a small context-aware retry engine. The probe
// capability declares its retry policy once at construction; nothing in
// the per-task path decides retry counts on the fly.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Config controls retry behaviour.
type Config struct {
	MaxAttempts int           // Total attempts (including the first). 0 means no-op.
	Delay       time.Duration // Constant delay between attempts.
	Jitter      bool          // Add ±25% random jitter to each delay.
}

// SingleAttempt returns the policy used for proxy probes by default:
// one attempt, no retries. A dead proxy is a result, not a transient
// failure worth hammering.
func SingleAttempt() Config {
	return Config{MaxAttempts: 1}
}

// StopError wraps an error to signal that retrying should stop immediately.
type StopError struct {
	Err error
}

func (e *StopError) Error() string { return e.Err.Error() }
func (e *StopError) Unwrap() error { return e.Err }

// Stop wraps err so that Do returns it without further retries.
func Stop(err error) error {
	return &StopError{Err: err}
}

// Do executes fn up to cfg.MaxAttempts times, sleeping cfg.Delay between
// failures. It returns nil on the first successful call, or the last error
// if all attempts fail. If the context is cancelled, ctx.Err() is returned.
//
// If fn returns a StopError, Do returns the wrapped error without retrying.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var stop *StopError
		if errors.As(lastErr, &stop) {
			return stop.Err
		}

		if attempt < cfg.MaxAttempts-1 {
			if err := sleep(ctx, calcDelay(cfg)); err != nil {
				return err
			}
		}
	}
	return lastErr
}

func calcDelay(cfg Config) time.Duration {
	delay := cfg.Delay
	if cfg.Jitter && delay > 0 {
		quarter := int64(delay) / 4
		if quarter > 0 {
			j := time.Duration(rand.Int63n(quarter))
			if rand.Intn(2) == 0 {
				delay += j
			} else {
				delay -= j
			}
		}
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
