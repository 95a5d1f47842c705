// Package main inspects the completion provider's rate-limit headers.
// Usage: autoblog-ratelimits [--model M] [--prompt P] [--output json]
//
// The key comes from LLM_API_KEY or OPENAI_API_KEY and LLM_BASE_URL points the
// check at a compatible endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"

	"autoblog/internal/observability/logging"
	"autoblog/internal/utils/text"
	"autoblog/pkg/config"
)

const previewLen = 200

// Report is the collected header set.
type Report struct {
	Status  int               `json:"status"`
	Model   string            `json:"model"`
	Headers map[string]string `json:"headers"`
	Preview string            `json:"preview,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func main() {
	var (
		model        string
		prompt       string
		outputFormat string
	)
	flag.StringVar(&model, "model", config.GetEnvString("LLM_MODEL", openai.GPT3Dot5Turbo), "Model to call")
	flag.StringVar(&prompt, "prompt", "Say hello in one word.", "Message to send")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.Parse()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	apiKey := config.GetEnvString("LLM_API_KEY", config.GetEnvString("OPENAI_API_KEY", ""))
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: LLM_API_KEY or OPENAI_API_KEY is required")
		os.Exit(1)
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if base := config.GetEnvString("LLM_BASE_URL", ""); base != "" {
		clientCfg.BaseURL = base
	}
	clientCfg.HTTPClient = &http.Client{Timeout: config.GetEnvDuration("LLM_TIMEOUT", 30*time.Second)}

	report, err := checkLimits(context.Background(), openai.NewClientWithConfig(clientCfg), model, prompt)
	if err != nil {
		logger.Error("rate-limit check failed", slog.Any("error", err))
	}
	if werr := write(os.Stdout, report, outputFormat); werr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", werr)
		os.Exit(1)
	}
	if err != nil {
		os.Exit(1)
	}
}

// checkLimits sends one chat message and collects the x-ratelimit-* headers.
// A provider error still yields a report carrying its status.
func checkLimits(ctx context.Context, client *openai.Client, model, prompt string) (*Report, error) {
	report := &Report{Model: model, Headers: map[string]string{}}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: 16,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		var reqErr *openai.RequestError
		switch {
		case errors.As(err, &apiErr):
			report.Status = apiErr.HTTPStatusCode
		case errors.As(err, &reqErr):
			report.Status = reqErr.HTTPStatusCode
		}
		report.Error = err.Error()
		return report, err
	}

	report.Status = http.StatusOK
	for name, values := range resp.Header() {
		if strings.HasPrefix(strings.ToLower(name), "x-ratelimit-") && len(values) > 0 {
			report.Headers[strings.ToLower(name)] = values[0]
		}
	}
	if len(resp.Choices) > 0 {
		report.Preview = text.Truncate(resp.Choices[0].Message.Content, previewLen)
	}
	return report, nil
}

func write(w io.Writer, r *Report, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(w, "Status: %d\n", r.Status)
	fmt.Fprintf(w, "Model:  %s\n", r.Model)
	names := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		fmt.Fprintln(w, "No rate limit headers returned")
	}
	for _, name := range names {
		fmt.Fprintf(w, "%s: %s\n", name, r.Headers[name])
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
	}
	if r.Preview != "" {
		fmt.Fprintf(w, "\nResponse: %s\n", r.Preview)
	}
	return nil
}
