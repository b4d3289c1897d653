package gateway

import (
	"context"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 500 * time.Millisecond
	defaultBackoffMax  = 2 * time.Second
)

// Backoff is a doubling delay schedule: Base, 2*Base, 4*Base ... capped at Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// DefaultBackoff yields the 0.5s, 1s, 2s schedule.
func DefaultBackoff() Backoff {
	return Backoff{Base: defaultBackoffBase, Max: defaultBackoffMax}
}

func (b Backoff) normalise() Backoff {
	if b.Base <= 0 {
		b.Base = defaultBackoffBase
	}
	if b.Max < b.Base {
		b.Max = b.Base
	}
	return b
}

// Delay returns the wait before retry number n (1-based).
func (b Backoff) Delay(n int) time.Duration {
	b = b.normalise()
	if n < 1 {
		n = 1
	}
	d := b.Base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= b.Max {
			return b.Max
		}
	}
	return d
}

// Schedule lists the delays used between maxAttempts attempts.
func (b Backoff) Schedule(maxAttempts int) []time.Duration {
	if maxAttempts <= 1 {
		return nil
	}
	out := make([]time.Duration, 0, maxAttempts-1)
	for n := 1; n < maxAttempts; n++ {
		out = append(out, b.Delay(n))
	}
	return out
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
