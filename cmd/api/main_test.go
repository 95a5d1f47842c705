package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog/internal/app"
	"autoblog/internal/config"
)

func newTestServer(t *testing.T, modify func(*config.Config)) http.Handler {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.LLM.Offline = true
	cfg.StorageDir = filepath.Join(dir, "posts")
	cfg.SEODataFile = filepath.Join(dir, "seo.json")
	if modify != nil {
		modify(&cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := app.Build(&cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return setupServer(logger, c, "test")
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSetupServer_Routes(t *testing.T) {
	h := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{"home", http.MethodGet, "/", "", http.StatusOK},
		{"about", http.MethodGet, "/about", "", http.StatusOK},
		{"posts index", http.MethodGet, "/posts", "", http.StatusOK},
		{"seo", http.MethodGet, "/api/seo?keyword=golang", "", http.StatusOK},
		{"seo without keyword", http.MethodGet, "/api/seo", "", http.StatusBadRequest},
		{"title", http.MethodPost, "/api/generate/title", `{"topic":"Go"}`, http.StatusOK},
		{"title wrong method", http.MethodGet, "/api/generate/title", "", http.StatusMethodNotAllowed},
		{"debug disabled", http.MethodGet, "/debug/config", "", http.StatusNotFound},
		{"live", http.MethodGet, "/live", "", http.StatusOK},
		{"ready", http.MethodGet, "/ready", "", http.StatusOK},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestSetupServer_RequestIDEchoed(t *testing.T) {
	h := newTestServer(t, nil)

	rec := serve(h, http.MethodGet, "/live", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSetupServer_DebugEnabledMasksKey(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) {
		c.HTTP.DebugEndpoints = true
		c.LLM.APIKey = "sk-abcdefghijklmnopqrstuvwxyz"
	})

	rec := serve(h, http.MethodGet, "/debug/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk-abcdefghijklmnopqrstuvwxyz")
}

func TestSetupServer_IPRateLimit(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) {
		c.HTTP.IPRateLimit = 1
	})

	first := serve(h, http.MethodGet, "/api/seo?keyword=go", "")
	second := serve(h, http.MethodGet, "/api/seo?keyword=go", "")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Pages are not limited.
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/about", "").Code)
}
