package util

import (
	"context"
	"time"

	"go.uber.org/ratelimit"
)

// Pacer enforces a minimum interval between successive operations. It is
// safe for concurrent use; every caller shares the same spacing.
type Pacer struct {
	limiter  ratelimit.Limiter
	interval time.Duration
}

// NewPacer creates a Pacer that lets one operation through per interval.
// A non-positive interval disables pacing.
func NewPacer(interval time.Duration, opts ...ratelimit.Option) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: ratelimit.NewUnlimited()}
	}
	opts = append([]ratelimit.Option{ratelimit.Per(interval), ratelimit.WithoutSlack}, opts...)
	return &Pacer{
		limiter:  ratelimit.New(1, opts...),
		interval: interval,
	}
}

// Interval returns the configured minimum spacing.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Wait blocks until the next operation may proceed or ctx is done. The
// limiter itself cannot be interrupted, so on cancellation the reserved
// slot is still consumed in the background; Wait returns ctx.Err()
// immediately either way.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.interval <= 0 {
		p.limiter.Take()
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.limiter.Take()
		close(done)
	}()
	select {
	case <-done:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
