// Package redis provides a Redis-based generation cache shared between processes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"autoblog/internal/cache"
	"autoblog/internal/domain/entity"
	"autoblog/internal/resilience/circuitbreaker"
)

// Config holds configuration for the Redis cache.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Namespace prefixes every key (e.g. "autoblog" → "autoblog:<key>").
	Namespace string
	// DefaultTTL applies when Put is called with ttl == 0. Zero means no expiry.
	DefaultTTL time.Duration

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Namespace:    "autoblog",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	}
}

// Store implements cache.Store on Redis. Calls run through a circuit breaker so an
// unreachable server fails fast.
type Store struct {
	client     goredis.UniversalClient
	namespace  string
	defaultTTL time.Duration
	cb         *circuitbreaker.CircuitBreaker
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Store, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewFromClient(client, cfg.Namespace, cfg.DefaultTTL), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client goredis.UniversalClient, namespace string, defaultTTL time.Duration) *Store {
	return &Store{
		client:     client,
		namespace:  namespace,
		defaultTTL: defaultTTL,
		cb:         circuitbreaker.New(circuitbreaker.CacheStoreConfig("cache-redis")),
	}
}

// prefixKey adds namespace prefix to the key.
func (s *Store) prefixKey(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

// Get implements cache.Store.
func (s *Store) Get(ctx context.Context, key string) (entity.GenerationResult, bool, error) {
	val, err := circuitbreaker.Run(s.cb, func() ([]byte, error) {
		val, err := s.client.Get(ctx, s.prefixKey(key)).Bytes()
		if errors.Is(err, goredis.Nil) {
			// A miss is not a failure for the breaker.
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		return entity.GenerationResult{}, false, fmt.Errorf("redis get: %w", err)
	}
	if val == nil {
		return entity.GenerationResult{}, false, nil
	}

	result, err := cache.Decode(val)
	if err != nil {
		return entity.GenerationResult{}, false, err
	}
	return result, true, nil
}

// Put implements cache.Store. ttl == 0 uses the default; a zero default never expires.
func (s *Store) Put(ctx context.Context, key string, result entity.GenerationResult, ttl time.Duration) error {
	value, err := cache.Encode(result)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	_, err = circuitbreaker.Run(s.cb, func() (string, error) {
		return s.client.Set(ctx, s.prefixKey(key), value, ttl).Result()
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
