package util

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy is a bounded retry policy: at most MaxAttempts calls with a
// constant Delay between consecutive failures.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration

	// OnRetry, when set, is called after each failed attempt that will be
	// retried.
	OnRetry func(attempt int, err error)
}

// Do calls fn with a zero-based attempt number until it succeeds, the
// attempts are exhausted, or ctx is cancelled. It returns nil on success
// and otherwise the last error from fn (or the context error). fn can stop
// the loop early by returning Permanent(err).
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) error {
	if p.MaxAttempts <= 0 {
		return errors.New("retry policy: MaxAttempts must be positive")
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(p.MaxAttempts-1)),
		ctx,
	)

	attempt := 0
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := fn(attempt)
		attempt++
		return err
	}

	var notify backoff.Notify
	if p.OnRetry != nil {
		notify = func(err error, _ time.Duration) { p.OnRetry(attempt-1, err) }
	}

	return backoff.RetryNotify(op, b, notify)
}

// Permanent wraps err so that RetryPolicy.Do stops immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Retry calls fn up to maxAttempts times with a constant delay between
// attempts. It returns nil on the first successful call, or the last error
// if all attempts fail.
func Retry(ctx context.Context, maxAttempts int, delay time.Duration, fn func() error) error {
	return RetryPolicy{MaxAttempts: maxAttempts, Delay: delay}.Do(ctx, func(int) error {
		return fn()
	})
}
