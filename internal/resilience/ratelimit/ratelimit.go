// Package ratelimit paces outbound completion calls.
//
// A Gate is consulted immediately before each upstream call. The default gate spaces
// calls at least time.Minute/N apart across every goroutine sharing it; a token bucket
// gate allows short bursts instead.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Gate blocks until the caller may make the next upstream call.
// Wait returns ctx.Err() if the context ends first.
type Gate interface {
	Wait(ctx context.Context) error
}

// Mode selects the gate implementation.
type Mode string

const (
	// ModeInterval spaces calls at a fixed minimum interval.
	ModeInterval Mode = "interval"
	// ModeTokenBucket allows bursts up to Burst and refills at CallsPerMinute.
	ModeTokenBucket Mode = "token_bucket"
	// ModeNone disables pacing.
	ModeNone Mode = "none"
)

// Config holds gate settings.
type Config struct {
	Mode           Mode
	CallsPerMinute int
	Burst          int
}

// ParseMode converts a configuration string into a Mode. Empty means interval.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeInterval:
		return ModeInterval, nil
	case ModeTokenBucket:
		return ModeTokenBucket, nil
	case ModeNone:
		return ModeNone, nil
	default:
		return "", fmt.Errorf("unknown rate limit mode %q", s)
	}
}

// New builds the gate described by cfg.
func New(cfg Config) (Gate, error) {
	switch cfg.Mode {
	case ModeNone:
		return Unlimited{}, nil
	case ModeTokenBucket:
		return NewTokenBucket(cfg.CallsPerMinute, cfg.Burst)
	case ModeInterval, "":
		return NewIntervalLimiter(cfg.CallsPerMinute)
	default:
		return nil, fmt.Errorf("unknown rate limit mode %q", cfg.Mode)
	}
}

// Unlimited never blocks. Used in offline mode and tests.
type Unlimited struct{}

// Wait returns immediately unless ctx is already done.
func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Clock provides an abstraction for time operations to enable testing.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// After fires once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// SystemClock is a Clock implementation that uses the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// After wraps time.After.
func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func intervalFor(callsPerMinute int) (time.Duration, error) {
	if callsPerMinute <= 0 {
		return 0, fmt.Errorf("calls per minute must be positive, got %d", callsPerMinute)
	}
	return time.Minute / time.Duration(callsPerMinute), nil
}
