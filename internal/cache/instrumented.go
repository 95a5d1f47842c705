package cache

import (
	"context"
	"log/slog"
	"time"

	"autoblog/internal/domain/entity"
	"autoblog/internal/observability/metrics"
)

// Instrumented decorates a Store with hit/miss/error metrics and error logging.
type Instrumented struct {
	next    Store
	backend string
	logger  *slog.Logger
}

// NewInstrumented wraps next. backend labels the metrics (memory, sqlite, redis).
func NewInstrumented(next Store, backend string, logger *slog.Logger) *Instrumented {
	if logger == nil {
		logger = slog.Default()
	}
	return &Instrumented{next: next, backend: backend, logger: logger}
}

// Get implements Store.
func (s *Instrumented) Get(ctx context.Context, key string) (entity.GenerationResult, bool, error) {
	result, ok, err := s.next.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCacheLookup(s.backend, "error")
		s.logger.WarnContext(ctx, "cache lookup failed",
			slog.String("backend", s.backend),
			slog.Any("error", err))
	case ok:
		metrics.RecordCacheLookup(s.backend, "hit")
	default:
		metrics.RecordCacheLookup(s.backend, "miss")
	}
	return result, ok, err
}

// Put implements Store.
func (s *Instrumented) Put(ctx context.Context, key string, result entity.GenerationResult, ttl time.Duration) error {
	err := s.next.Put(ctx, key, result, ttl)
	metrics.RecordCacheWrite(s.backend, err == nil)
	if err != nil {
		s.logger.WarnContext(ctx, "cache write failed",
			slog.String("backend", s.backend),
			slog.Any("error", err))
	}
	return err
}

// Close closes the wrapped store when it holds resources.
func (s *Instrumented) Close() error {
	if c, ok := s.next.(Closer); ok {
		return c.Close()
	}
	return nil
}

// Ping pings the wrapped store when supported.
func (s *Instrumented) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Backend returns the backend label.
func (s *Instrumented) Backend() string {
	return s.backend
}
