// Package retry implements bounded exponential backoff for calls to upstream services.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Policy controls how many times an operation is attempted and how long to wait between attempts.
// The wait before attempt n (n >= 1) is BaseDelay * 2^(n-1), capped at MaxDelay when MaxDelay > 0.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so that Do returns it immediately without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Delay returns the wait before the given attempt (1-based retry index).
func (p Policy) Delay(retry int) time.Duration {
	if retry < 1 || p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < retry; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do calls fn until it succeeds, returns a permanent error, the attempts are exhausted,
// or ctx is done. The last error is returned wrapped with the attempt count.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := p.Delay(attempt - 1)
			slog.Warn("retrying upstream call", "op", op, "attempt", attempt, "wait", wait, "error", err)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%s: %w", op, errors.Join(ctx.Err(), err))
			case <-timer.C:
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return fmt.Errorf("%s: %w", op, err)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, errors.Join(ctx.Err(), err))
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, err)
}
