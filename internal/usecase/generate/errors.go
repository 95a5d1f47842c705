// Package generate implements the blog generation façade: title, post, batch and
// SEO metric operations composed from a cache, a rate gate, a retry policy and an
// offline responder, each invoked in a fixed order.
package generate

import (
	"errors"
	"fmt"

	"autoblog/internal/domain/entity"
	"autoblog/internal/resilience/retry"
)

// ErrNoCompleter is returned by NewService when online generation is requested
// without a completion service.
var ErrNoCompleter = errors.New("generate: completer is required unless offline")

// GenerationError reports an upstream failure that was not replaced by fallback content.
// It is only returned when fallback is disabled.
type GenerationError struct {
	Operation entity.Operation
	Class     retry.Class
	Attempts  int
	Err       error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s failed (%s after %d attempt(s)): %v", e.Operation, e.Class, e.Attempts, e.Err)
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Err
}
