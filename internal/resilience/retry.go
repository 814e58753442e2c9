// Package resilience retries transient failures of store calls with
// exponential backoff.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls retry behavior.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// Backoff is the delay before the first retry. It doubles after each
	// retry up to MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration

	// Jitter adds up to ±Jitter of the computed delay.
	Jitter float64

	// Retryable overrides IsTransient.
	Retryable func(err error) bool
}

// DefaultPolicy suits local and pooled database calls.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   3,
		Backoff:    100 * time.Millisecond,
		MaxBackoff: 2 * time.Second,
		Jitter:     0.2,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = d.Attempts
	}
	if p.Backoff <= 0 {
		p.Backoff = d.Backoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = d.MaxBackoff
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// Do runs fn until it succeeds, fails permanently, the attempts run out or
// ctx is done. op names the call in retry logs.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	_, err := Value(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value is Do for calls that return a result.
func Value[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var err error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		var v T
		v, err = fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !p.Retryable(err) || attempt == p.Attempts-1 {
			return zero, err
		}

		delay := p.delay(attempt)
		zap.L().Warn("resilience: retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
	return zero, err
}

func (p Policy) delay(attempt int) time.Duration {
	d := math.Min(float64(p.Backoff)*math.Pow(2, float64(attempt)), float64(p.MaxBackoff))
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}
	return time.Duration(max(d, 0))
}
