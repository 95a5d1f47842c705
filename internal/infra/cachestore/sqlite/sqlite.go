// Package sqlite provides a file-backed generation cache that survives restarts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"autoblog/internal/cache"
	"autoblog/internal/domain/entity"
	"autoblog/internal/observability/metrics"
	"autoblog/internal/resilience/circuitbreaker"
)

const createCacheTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	cache_key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries(expires_at);
`

// Store is a generation cache persisted in a SQLite file.
// Rows with expires_at == 0 never expire.
type Store struct {
	db         *sql.DB
	cb         *circuitbreaker.DBCircuitBreaker
	defaultTTL time.Duration
	now        func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithNow overrides the clock used for expiry.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (creating if needed) the cache database at path.
func Open(path string, defaultTTL time.Duration, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	s, err := New(db, defaultTTL, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database and creates the schema.
func New(db *sql.DB, defaultTTL time.Duration, opts ...Option) (*Store, error) {
	if _, err := db.Exec(createCacheTable); err != nil {
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	s := &Store{
		db:         db,
		cb:         circuitbreaker.NewDBCircuitBreaker("cache-sqlite", db),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get implements cache.Store. Expired rows are reported as misses.
func (s *Store) Get(ctx context.Context, key string) (entity.GenerationResult, bool, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("cache_get", time.Since(start)) }()

	rows, err := s.cb.QueryContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE cache_key = ?`, key)
	if err != nil {
		return entity.GenerationResult{}, false, fmt.Errorf("cache get: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return entity.GenerationResult{}, false, fmt.Errorf("cache get: %w", err)
		}
		return entity.GenerationResult{}, false, nil
	}

	var value []byte
	var expiresAt int64
	if err := rows.Scan(&value, &expiresAt); err != nil {
		return entity.GenerationResult{}, false, fmt.Errorf("cache get: %w", err)
	}
	if expiresAt != 0 && s.now().UnixNano() >= expiresAt {
		return entity.GenerationResult{}, false, nil
	}

	result, err := cache.Decode(value)
	if err != nil {
		return entity.GenerationResult{}, false, err
	}
	return result, true, nil
}

// Put implements cache.Store. ttl == 0 uses the store default; a zero default never expires.
func (s *Store) Put(ctx context.Context, key string, result entity.GenerationResult, ttl time.Duration) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("cache_put", time.Since(start)) }()

	value, err := cache.Encode(result)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := s.now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixNano()
	}

	_, err = s.cb.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (cache_key, value, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		key, value, now.UnixNano(), expiresAt)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.cb.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at != 0 AND expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored rows, expired ones included.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

// Ping checks the database is reachable and the breaker is closed.
func (s *Store) Ping(ctx context.Context) error {
	if s.cb.IsOpen() {
		return errors.New("cache database circuit open")
	}
	return s.db.PingContext(ctx)
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
