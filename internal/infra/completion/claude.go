package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"autoblog/internal/resilience/retry"
	"autoblog/internal/utils/text"
)

var defaultClaudeModel = string(anthropic.ModelClaudeSonnet4_5_20250929)

// defaultClaudeMaxTokens applies when a request leaves MaxTokens unset; the Messages API requires it.
const defaultClaudeMaxTokens = 1024

// Claude implements Completer using the Anthropic Messages API.
type Claude struct {
	client anthropic.Client
	guard  *guard
	logger *slog.Logger
}

// NewClaude creates a Claude completer. The SDK's own retries are disabled; the
// generation pipeline owns retry policy.
func NewClaude(cfg Config, logger *slog.Logger) *Claude {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	logger.Info("Initialized Claude completer",
		slog.Duration("timeout", cfg.Timeout))

	return &Claude{
		client: anthropic.NewClient(opts...),
		guard:  newGuard(ProviderClaude, cfg.Timeout, logger),
		logger: logger,
	}
}

// Complete implements Completer.
func (c *Claude) Complete(ctx context.Context, req Request) (string, error) {
	return c.guard.run(ctx, func(ctx context.Context) (string, error) {
		return c.doComplete(ctx, req)
	})
}

func (c *Claude) doComplete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = defaultClaudeModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", mapClaudeError(err))
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	content := sb.String()
	if content == "" {
		return "", fmt.Errorf("claude: %w", ErrEmptyResponse)
	}

	c.logger.DebugContext(ctx, "claude completion received",
		slog.String("model", model),
		slog.Int("response_length", text.CountRunes(content)),
		slog.Int64("output_tokens", message.Usage.OutputTokens))
	return content, nil
}

// mapClaudeError converts SDK API errors into *retry.HTTPError, keeping Retry-After.
func mapClaudeError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode == 0 {
		return err
	}
	httpErr := &retry.HTTPError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
	if apiErr.Response != nil {
		httpErr.RetryAfter = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
	}
	return httpErr
}
