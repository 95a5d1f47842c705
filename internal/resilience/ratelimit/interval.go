package ratelimit

import (
	"context"
	"sync"
	"time"
)

// IntervalLimiter guarantees consecutive upstream calls start at least Interval apart.
//
// Each waiter reserves the next free slot under the mutex, then sleeps outside it.
// The lock is never held while sleeping, so concurrent waiters queue in reservation
// order rather than serialising on the lock.
type IntervalLimiter struct {
	interval time.Duration
	clock    Clock

	mu   sync.Mutex
	next time.Time // earliest start time for the next reservation
}

// IntervalOption customizes an IntervalLimiter.
type IntervalOption func(*IntervalLimiter)

// WithClock replaces the system clock.
func WithClock(c Clock) IntervalOption {
	return func(l *IntervalLimiter) {
		if c != nil {
			l.clock = c
		}
	}
}

// NewIntervalLimiter creates a limiter allowing callsPerMinute calls per minute.
func NewIntervalLimiter(callsPerMinute int, opts ...IntervalOption) (*IntervalLimiter, error) {
	interval, err := intervalFor(callsPerMinute)
	if err != nil {
		return nil, err
	}
	l := &IntervalLimiter{
		interval: interval,
		clock:    SystemClock{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Interval returns the minimum spacing between calls.
func (l *IntervalLimiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the caller's reserved slot arrives.
//
// A waiter that is cancelled keeps its slot; the next caller is still spaced from it.
// That can only over-delay, never under-delay.
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	now := l.clock.Now()
	slot := now
	if l.next.After(now) {
		slot = l.next
	}
	l.next = slot.Add(l.interval)
	l.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}

	select {
	case <-l.clock.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
