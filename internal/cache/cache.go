// Package cache defines the generation result cache used by the generation pipeline.
//
// A Store maps a request key (entity.GenerationRequest.Key) to the result previously
// produced for it. Backends live under internal/infra/cachestore; this package only
// holds the contract, the value codec shared by the serialising backends, and an
// instrumenting decorator.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"autoblog/internal/domain/entity"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("cache: store closed")

// Store is a key/value cache of generation results.
//
// Get reports a miss as (zero, false, nil). Put with ttl == 0 uses the backend default
// expiry. Concurrent Puts to the same key are last-write-wins.
type Store interface {
	Get(ctx context.Context, key string) (entity.GenerationResult, bool, error)
	Put(ctx context.Context, key string, result entity.GenerationResult, ttl time.Duration) error
}

// Closer is implemented by backends holding connections or files.
type Closer interface {
	Close() error
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Encode serialises a result for byte-oriented backends. Cached is never persisted.
func Encode(result entity.GenerationResult) ([]byte, error) {
	result.Cached = false
	b, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	return b, nil
}

// Decode restores a result written by Encode.
func Decode(data []byte) (entity.GenerationResult, error) {
	var result entity.GenerationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return entity.GenerationResult{}, fmt.Errorf("decode cache value: %w", err)
	}
	return result, nil
}

// Nop is a Store that never hits and discards writes.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) (entity.GenerationResult, bool, error) {
	return entity.GenerationResult{}, false, nil
}

// Put discards the value.
func (Nop) Put(context.Context, string, entity.GenerationResult, time.Duration) error {
	return nil
}
