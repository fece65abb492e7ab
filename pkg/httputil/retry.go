package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure as transient. After, when set, is the
// minimum wait before the next attempt, typically taken from a Retry-After
// header.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Policy controls the attempts and waits of [Retry].
type Policy struct {
	Attempts int           // total attempts, at least one
	Delay    time.Duration // first wait; doubled after every failure
	MaxDelay time.Duration // upper bound for a single wait, 0 for none

	// OnRetry, if set, is called before each wait with the attempt that
	// just failed (starting at 1).
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultPolicy makes three attempts starting with a one second wait.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Delay: time.Second, MaxDelay: 30 * time.Second}
}

// Retry calls fn until it succeeds, returns an error not wrapped in
// [RetryableError], or runs out of attempts. It returns the last error, or
// ctx.Err() if the context ends while waiting.
func Retry(ctx context.Context, p Policy, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay

	var err error
	for i := 1; ; i++ {
		if err = fn(); err == nil {
			return nil
		}
		var re *RetryableError
		if !errors.As(err, &re) || i == attempts {
			return err
		}

		wait := max(delay, re.After)
		if p.MaxDelay > 0 {
			wait = min(wait, p.MaxDelay)
		}
		if p.OnRetry != nil {
			p.OnRetry(i, wait, err)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}
