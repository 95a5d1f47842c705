// Package cachestore selects and opens the configured generation cache backend.
package cachestore

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"autoblog/internal/cache"
	"autoblog/internal/infra/cachestore/memory"
	"autoblog/internal/infra/cachestore/redis"
	"autoblog/internal/infra/cachestore/sqlite"
)

// Backend names a cache implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
	BackendNone   Backend = "none"
)

// ParseBackend converts a configuration string into a Backend. Empty means memory.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendMemory, nil
	case BackendMemory, BackendSQLite, BackendRedis, BackendNone:
		return b, nil
	default:
		return "", fmt.Errorf("unknown cache backend %q", s)
	}
}

// Config selects and configures a backend.
type Config struct {
	Backend Backend

	// DefaultTTL applies when callers pass ttl == 0. Zero keeps entries forever.
	DefaultTTL time.Duration
	// CleanupInterval drives the memory backend janitor. Zero disables it.
	CleanupInterval time.Duration

	SQLitePath string
	Redis      redis.Config
}

// Instrumented is the store returned by Open.
type Instrumented = cache.Instrumented

// Open builds the configured backend wrapped with metrics and logging.
func Open(cfg Config, logger *slog.Logger) (*Instrumented, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var store cache.Store
	switch cfg.Backend {
	case BackendMemory, "":
		store = memory.New(cfg.DefaultTTL, cfg.CleanupInterval)
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "data/cache.db"
		}
		s, err := sqlite.Open(path, cfg.DefaultTTL)
		if err != nil {
			return nil, err
		}
		store = s
	case BackendRedis:
		rc := cfg.Redis
		if rc.DefaultTTL == 0 {
			rc.DefaultTTL = cfg.DefaultTTL
		}
		s, err := redis.New(rc)
		if err != nil {
			return nil, err
		}
		store = s
	case BackendNone:
		store = cache.Nop{}
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	backend := string(cfg.Backend)
	if backend == "" {
		backend = string(BackendMemory)
	}
	logger.Info("generation cache opened", slog.String("backend", backend))
	return cache.NewInstrumented(store, backend, logger), nil
}
