// Package completion provides chat-completion adapters for the OpenAI and Anthropic APIs.
//
// Adapters make exactly one upstream request per Complete call. Retries, pacing and
// fallback belong to the generation pipeline; the adapters only bound each call with a
// timeout, guard the provider with a circuit breaker, and translate SDK errors into
// retry.HTTPError so failures classify the same way for every provider.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"autoblog/internal/observability/metrics"
	"autoblog/internal/resilience/circuitbreaker"
	"autoblog/internal/resilience/retry"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    Role
	Content string
}

// Request is a provider-independent completion request.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Completer sends a completion request and returns the response text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrEmptyResponse is returned when the provider answers without any text.
var ErrEmptyResponse = errors.New("completion api returned empty response")

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Config selects and configures a provider.
type Config struct {
	// Provider is "openai" or "claude".
	Provider string
	// APIKey is the provider credential. Empty selects the NoOp completer.
	APIKey string
	// BaseURL overrides the API endpoint (proxies, tests).
	BaseURL string
	// Timeout bounds a single upstream request.
	Timeout time.Duration
}

// DefaultModel returns the model used when a request leaves Model empty.
func DefaultModel(provider string) string {
	switch normalizeProvider(provider) {
	case ProviderClaude:
		return defaultClaudeModel
	default:
		return defaultOpenAIModel
	}
}

func normalizeProvider(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "", ProviderOpenAI:
		return ProviderOpenAI
	case ProviderClaude, "anthropic":
		return ProviderClaude
	default:
		return strings.ToLower(strings.TrimSpace(p))
	}
}

// New builds the completer for cfg. A missing API key yields a NoOp completer whose
// calls fail with retry.ErrConfigMissing.
func New(cfg Config, logger *slog.Logger) (Completer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	provider := normalizeProvider(cfg.Provider)

	if provider != ProviderOpenAI && provider != ProviderClaude {
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Warn("completion api key not set; live generation disabled",
			slog.String("provider", provider))
		return NewNoOp(provider), nil
	}

	if provider == ProviderClaude {
		return NewClaude(cfg, logger), nil
	}
	return NewOpenAI(cfg, logger), nil
}

// guard bounds, protects and instruments a single upstream request.
type guard struct {
	provider string
	timeout  time.Duration
	cb       *circuitbreaker.CircuitBreaker
	logger   *slog.Logger
}

func newGuard(provider string, timeout time.Duration, logger *slog.Logger) *guard {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &guard{
		provider: provider,
		timeout:  timeout,
		cb:       circuitbreaker.New(circuitbreaker.CompletionConfig(provider)),
		logger:   logger,
	}
}

// run executes call through the breaker. Only retryable failures count against the
// breaker; an open breaker is reported as a fatal error so callers fall back at once.
func (g *guard) run(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	var passErr error
	text, err := circuitbreaker.Run(g.cb, func() (string, error) {
		text, err := call(callCtx)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			// Our own per-call timeout, not the caller's: worth another attempt.
			err = retry.WithClass(retry.ClassTransient,
				fmt.Errorf("%s api timeout after %v: %w", g.provider, g.timeout, err))
		}
		if retry.IsRetryable(err) {
			return "", err
		}
		// Caller faults pass through without counting against the provider.
		passErr = err
		return "", nil
	})
	duration := time.Since(start)

	if err == nil && passErr != nil {
		err = passErr
	}

	if err != nil {
		outcome := retry.Classify(err).String()
		if errors.Is(err, circuitbreaker.ErrOpenState) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			outcome = "circuit_open"
			g.logger.WarnContext(ctx, "completion circuit breaker open, request rejected",
				slog.String("provider", g.provider),
				slog.String("state", g.cb.State().String()))
			err = retry.WithClass(retry.ClassFatal,
				fmt.Errorf("%s api unavailable: circuit breaker open: %w", g.provider, err))
		} else {
			g.logger.WarnContext(ctx, "completion request failed",
				slog.String("provider", g.provider),
				slog.String("class", outcome),
				slog.Duration("duration", duration),
				slog.Any("error", err))
		}
		metrics.RecordCompletionRequest(g.provider, outcome, duration)
		return "", err
	}

	metrics.RecordCompletionRequest(g.provider, "success", duration)
	return text, nil
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
