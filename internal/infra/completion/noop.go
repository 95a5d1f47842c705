package completion

import (
	"context"
	"fmt"

	"autoblog/internal/resilience/retry"
)

// NoOp is the completer used when no credential is configured.
// Every call fails with retry.ErrConfigMissing so the pipeline falls back to offline content.
type NoOp struct {
	provider string
}

// NewNoOp creates a new NoOp completer for provider.
func NewNoOp(provider string) *NoOp {
	return &NoOp{provider: provider}
}

// Complete always fails with a config-missing error.
func (n *NoOp) Complete(ctx context.Context, _ Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%s api key not set: %w", n.provider, retry.ErrConfigMissing)
}
