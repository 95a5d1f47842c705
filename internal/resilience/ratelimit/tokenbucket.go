package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket implements token bucket algorithm for rate limiting.
// Up to burst calls go through immediately, then tokens refill at callsPerMinute.
type TokenBucket struct {
	rate    rate.Limit
	burst   int
	limiter *rate.Limiter
}

// NewTokenBucket creates a token bucket gate. A burst below 1 is raised to 1.
//
// Example:
//
//	gate, _ := NewTokenBucket(30, 5) // 30 calls/min, bursts of 5
func NewTokenBucket(callsPerMinute int, burst int) (*TokenBucket, error) {
	interval, err := intervalFor(callsPerMinute)
	if err != nil {
		return nil, err
	}
	if burst < 1 {
		burst = 1
	}
	r := rate.Every(interval)

	return &TokenBucket{
		rate:    r,
		burst:   burst,
		limiter: rate.NewLimiter(r, burst),
	}, nil
}

// Wait blocks until a token is available or the context is canceled.
func (b *TokenBucket) Wait(ctx context.Context) error {
	if err := b.limiter.Wait(ctx); err != nil {
		// rate.Limiter reports "would exceed deadline" without waiting; surface the ctx error shape.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if _, ok := ctx.Deadline(); ok {
			return context.DeadlineExceeded
		}
		return err
	}
	return nil
}

// Interval returns the token refill interval.
func (b *TokenBucket) Interval() time.Duration {
	if b.rate == 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(b.rate))
}
