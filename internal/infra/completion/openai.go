package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"autoblog/internal/resilience/retry"
	"autoblog/internal/utils/text"
)

const defaultOpenAIModel = "gpt-3.5-turbo"

// OpenAI implements Completer using the OpenAI chat completions API.
type OpenAI struct {
	client *openai.Client
	guard  *guard
	logger *slog.Logger
}

// NewOpenAI creates an OpenAI completer.
func NewOpenAI(cfg Config, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = slog.Default()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	// go-openai's error types drop response headers.
	clientCfg.HTTPClient = &http.Client{Transport: retryAfterTransport{base: http.DefaultTransport}}

	logger.Info("Initialized OpenAI completer",
		slog.String("base_url", clientCfg.BaseURL),
		slog.Duration("timeout", cfg.Timeout))

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		guard:  newGuard(ProviderOpenAI, cfg.Timeout, logger),
		logger: logger,
	}
}

// Complete implements Completer.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	return o.guard.run(ctx, func(ctx context.Context) (string, error) {
		return o.doComplete(ctx, req)
	})
}

func (o *OpenAI) doComplete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	var hint retryAfterHint
	ctx = context.WithValue(ctx, retryAfterKey{}, &hint)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", mapOpenAIError(err, hint.get()))
	}

	// Validate response structure (safety check to prevent panic on array access)
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}

	content := resp.Choices[0].Message.Content
	o.logger.DebugContext(ctx, "openai completion received",
		slog.String("model", model),
		slog.Int("response_length", text.CountRunes(content)),
		slog.Int("total_tokens", resp.Usage.TotalTokens))
	return content, nil
}

// mapOpenAIError converts SDK errors carrying an HTTP status into *retry.HTTPError.
// retryAfter is the hint captured by retryAfterTransport for the same call.
func mapOpenAIError(err error, retryAfter time.Duration) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, RetryAfter: retryAfter}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &retry.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: msg, RetryAfter: retryAfter}
	}
	return err
}

type retryAfterKey struct{}

type retryAfterHint struct{ d atomic.Int64 }

func (h *retryAfterHint) get() time.Duration { return time.Duration(h.d.Load()) }

// retryAfterTransport copies a Retry-After header into the hint carried by the
// request context.
type retryAfterTransport struct {
	base http.RoundTripper
}

func (t retryAfterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	if hint, ok := req.Context().Value(retryAfterKey{}).(*retryAfterHint); ok {
		if d := parseRetryAfter(resp.Header.Get("Retry-After")); d > 0 {
			hint.d.Store(int64(d))
		}
	}
	return resp, nil
}
