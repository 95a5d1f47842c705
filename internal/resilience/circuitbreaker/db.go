package circuitbreaker

import (
	"context"
	"database/sql"
)

// DBCircuitBreaker guards a cache database. The SQLite backend routes its reads
// and writes through it so a locked or corrupt file degrades to cache misses
// instead of slowing every request.
type DBCircuitBreaker struct {
	cb *CircuitBreaker
	db *sql.DB
}

// NewDBCircuitBreaker guards db with DBConfig(name).
func NewDBCircuitBreaker(name string, db *sql.DB) *DBCircuitBreaker {
	return NewDBCircuitBreakerWithConfig(db, DBConfig(name))
}

// NewDBCircuitBreakerWithConfig is NewDBCircuitBreaker with explicit settings.
func NewDBCircuitBreakerWithConfig(db *sql.DB, cfg Config) *DBCircuitBreaker {
	return &DBCircuitBreaker{cb: New(cfg), db: db}
}

// QueryContext runs a query, or returns ErrOpenState without touching the file.
func (d *DBCircuitBreaker) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return Run(d.cb, func() (*sql.Rows, error) {
		return d.db.QueryContext(ctx, query, args...)
	})
}

// ExecContext is QueryContext for statements.
func (d *DBCircuitBreaker) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return Run(d.cb, func() (sql.Result, error) {
		return d.db.ExecContext(ctx, query, args...)
	})
}

// IsOpen reports whether the circuit is open.
func (d *DBCircuitBreaker) IsOpen() bool {
	return d.cb.IsOpen()
}
