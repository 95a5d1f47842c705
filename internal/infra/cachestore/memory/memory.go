// Package memory provides an in-process generation cache backed by go-cache.
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"autoblog/internal/domain/entity"
)

// Store keeps results in process memory. Entries never expire unless a default TTL
// or a per-entry TTL is given.
type Store struct {
	cache *gocache.Cache
}

// New creates a memory store. defaultTTL <= 0 means no expiry; cleanupInterval <= 0
// disables the background janitor.
func New(defaultTTL, cleanupInterval time.Duration) *Store {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &Store{cache: gocache.New(defaultTTL, cleanupInterval)}
}

// Get implements cache.Store.
func (s *Store) Get(ctx context.Context, key string) (entity.GenerationResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return entity.GenerationResult{}, false, err
	}
	val, found := s.cache.Get(key)
	if !found {
		return entity.GenerationResult{}, false, nil
	}
	result, ok := val.(entity.GenerationResult)
	if !ok {
		return entity.GenerationResult{}, false, nil
	}
	return clone(result), true, nil
}

// Put implements cache.Store. ttl == 0 uses the store default.
func (s *Store) Put(ctx context.Context, key string, result entity.GenerationResult, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	result.Cached = false
	s.cache.Set(key, clone(result), ttl)
	return nil
}

// Len returns the number of entries, expired ones included until cleanup.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

// Flush removes every entry.
func (s *Store) Flush() {
	s.cache.Flush()
}

// clone detaches the SEO pointer so callers cannot mutate a cached entry.
func clone(r entity.GenerationResult) entity.GenerationResult {
	if r.SEO != nil {
		seo := *r.SEO
		r.SEO = &seo
	}
	return r
}
