// Package retry provides retry logic with exponential backoff and jitter.
// It helps handle transient failures gracefully by automatically retrying failed operations,
// and classifies failures so callers can tell rate limiting, transient faults, permanent
// faults and missing configuration apart.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Config holds the configuration for retry logic.
type Config struct {
	// MaxRetries is the maximum number of attempts, including the first call.
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// Base is the multiplier for exponential backoff.
	Base float64

	// Jitter is the fraction of the grown delay added as random jitter (0.0 to 1.0).
	Jitter float64

	// MaxDelay caps the delay between retries. Zero means no cap.
	MaxDelay time.Duration
}

// DefaultConfig returns a default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		Base:         2.0,
		Jitter:       0.1,
		MaxDelay:     30 * time.Second,
	}
}

// AIAPIConfig returns configuration optimized for completion API calls.
// Moderate retry due to cost considerations.
func AIAPIConfig() Config {
	return Config{
		MaxRetries:   5,
		InitialDelay: 2 * time.Second,
		Base:         2.0,
		Jitter:       0.1,
		MaxDelay:     60 * time.Second,
	}
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("initial delay cannot be negative, got %v", c.InitialDelay)
	}
	if c.Base < 1 {
		return fmt.Errorf("base must be >= 1, got %v", c.Base)
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		return fmt.Errorf("jitter must be between 0 and 1, got %v", c.Jitter)
	}
	if c.MaxDelay < 0 {
		return fmt.Errorf("max delay cannot be negative, got %v", c.MaxDelay)
	}
	return nil
}

// MaxBackoff is the longest total sleep Do can spend between attempts, taking
// full jitter on every step.
func (c Config) MaxBackoff() time.Duration {
	var total time.Duration
	delay := c.InitialDelay
	for i := 1; i < c.MaxRetries; i++ {
		if c.MaxDelay > 0 && delay > c.MaxDelay {
			delay = c.MaxDelay
		}
		total += delay
		delay = time.Duration(float64(delay) * c.Base * (1 + c.Jitter))
	}
	return total
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper. It never blocks past context cancellation.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Policy executes calls with bounded retries.
type Policy struct {
	cfg    Config
	sleep  Sleeper
	logger *slog.Logger

	mu   sync.Mutex
	rand *rand.Rand
}

// Option customizes a Policy.
type Option func(*Policy)

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(s Sleeper) Option {
	return func(p *Policy) {
		if s != nil {
			p.sleep = s
		}
	}
}

// WithRand overrides the jitter source.
func WithRand(r *rand.Rand) Option {
	return func(p *Policy) {
		if r != nil {
			p.rand = r
		}
	}
}

// WithLogger overrides the logger used for retry events.
func WithLogger(l *slog.Logger) Option {
	return func(p *Policy) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPolicy creates a retry policy. An invalid MaxRetries is raised to 1.
func NewPolicy(cfg Config, opts ...Option) *Policy {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	p := &Policy{
		cfg:    cfg,
		sleep:  ContextSleep,
		logger: slog.Default(),
		// #nosec G404 -- Using math/rand is acceptable for jitter calculation.
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the policy configuration.
func (p *Policy) Config() Config {
	return p.cfg
}

// Do invokes fn until it succeeds, fails with a non-retryable class, or the attempt
// budget is spent. It returns the number of attempts made.
//
// Rate-limited and transient failures are retried. Between attempts the policy sleeps
// for the current delay and then grows it: delay = delay * Base * (1 + Jitter*U[0,1)).
// Exhaustion yields an *ExhaustedError wrapping the last failure; other failures are
// returned as-is so the caller can classify them.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	delay := p.cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= p.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, fmt.Errorf("retry aborted: %w", err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 1 {
				p.logger.InfoContext(ctx, "operation succeeded after retry",
					slog.Int("attempt", attempt))
			}
			return attempt, nil
		}

		class := Classify(lastErr)
		if !class.Retryable() {
			p.logger.WarnContext(ctx, "non-retryable error, aborting",
				slog.Int("attempt", attempt),
				slog.String("class", class.String()),
				slog.Any("error", lastErr))
			return attempt, lastErr
		}

		// Don't wait after last attempt
		if attempt == p.cfg.MaxRetries {
			break
		}

		wait := p.honorRetryAfter(delay, lastErr)

		p.logger.WarnContext(ctx, "operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.cfg.MaxRetries),
			slog.String("class", class.String()),
			slog.Duration("delay", wait),
			slog.Any("error", lastErr))

		if err := p.sleep(ctx, wait); err != nil {
			return attempt, fmt.Errorf("retry aborted: %w", err)
		}

		delay = p.nextDelay(delay)
	}

	return p.cfg.MaxRetries, &ExhaustedError{Attempts: p.cfg.MaxRetries, Last: lastErr}
}

// honorRetryAfter stretches delay to a longer server-provided Retry-After hint,
// still bounded by MaxDelay. The backoff progression itself is unchanged.
func (p *Policy) honorRetryAfter(delay time.Duration, err error) time.Duration {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.RetryAfter <= delay {
		return delay
	}
	wait := httpErr.RetryAfter
	if p.cfg.MaxDelay > 0 && wait > p.cfg.MaxDelay {
		wait = p.cfg.MaxDelay
	}
	return wait
}

// nextDelay grows delay by Base and a random jitter share, capped at MaxDelay.
func (p *Policy) nextDelay(delay time.Duration) time.Duration {
	jitter := p.cfg.Jitter
	if jitter > 1.0 {
		jitter = 1.0
	}
	if jitter < 0 {
		jitter = 0
	}

	p.mu.Lock()
	u := p.rand.Float64()
	p.mu.Unlock()

	next := time.Duration(float64(delay) * p.cfg.Base * (1 + jitter*u))
	if p.cfg.MaxDelay > 0 && next > p.cfg.MaxDelay {
		next = p.cfg.MaxDelay
	}
	return next
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("max retry attempts (%d) exceeded: %v", e.Attempts, e.Last)
}

// Unwrap returns the last failure.
func (e *ExhaustedError) Unwrap() error {
	return e.Last
}
