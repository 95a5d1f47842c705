package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Class is the failure taxonomy used by the generation pipeline.
type Class int

const (
	// ClassNone means no error.
	ClassNone Class = iota
	// ClassRateLimited is an upstream rate-limit signal (HTTP 429). Retried with backoff.
	ClassRateLimited
	// ClassTransient covers timeouts, dropped connections and 5xx/408 responses. Retried.
	ClassTransient
	// ClassFatal covers malformed requests, auth failures and an open circuit. Not retried.
	ClassFatal
	// ClassConfigMissing means the call cannot be made at all (e.g. no credential).
	ClassConfigMissing
	// ClassCanceled means the caller's context ended.
	ClassCanceled
)

// String returns the class name used in logs and metrics labels.
func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassRateLimited:
		return "rate_limited"
	case ClassTransient:
		return "transient"
	case ClassFatal:
		return "fatal"
	case ClassConfigMissing:
		return "config_missing"
	case ClassCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Retryable reports whether the policy retries this class.
func (c Class) Retryable() bool {
	return c == ClassRateLimited || c == ClassTransient
}

// ErrConfigMissing is returned by callers that lack required configuration.
var ErrConfigMissing = errors.New("required configuration missing")

// ClassifiedError pins an explicit class on an error.
type ClassifiedError struct {
	Class Class
	Err   error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// WithClass wraps err with an explicit class.
func WithClass(class Class, err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Class: class, Err: err}
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string

	// RetryAfter is the server-provided wait hint, zero if absent.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Classify maps an error onto the failure taxonomy.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}

	// Explicit classification wins
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}

	if errors.Is(err, ErrConfigMissing) {
		return ClassConfigMissing
	}

	// Context errors are not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassCanceled
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return ClassRateLimited
		case httpErr.StatusCode >= 500 && httpErr.StatusCode < 600:
			return ClassTransient
		case httpErr.StatusCode == http.StatusRequestTimeout:
			return ClassTransient
		default:
			return ClassFatal
		}
	}

	// Network errors (timeout)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTransient
	}

	// Syscall errors
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return ClassTransient
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ClassTransient
	}

	return ClassFatal
}

// IsRetryable determines if an error is worth retrying.
func IsRetryable(err error) bool {
	return Classify(err).Retryable()
}
