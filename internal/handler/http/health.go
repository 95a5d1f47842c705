package http

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"autoblog/internal/handler/http/respond"
)

// Checker reports whether a dependency is usable.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// Ping calls f.
func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Info      map[string]string      `json:"info,omitempty"`
	Version   string                 `json:"version"`
}

// CheckStatus is the outcome of a single check.
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthHandler runs every registered check. Info carries static facts such
// as the completion provider and whether generation runs offline.
type HealthHandler struct {
	Checks  map[string]Checker
	Info    map[string]string
	Version string
	Timeout time.Duration
	Logger  *slog.Logger
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	checks, healthy := runChecks(ctx, h.Checks, h.logger())

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Info:      h.Info,
		Version:   h.Version,
	})
}

func (h *HealthHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// runChecks pings in name order. Failure messages are sanitized since the
// health body is public.
func runChecks(ctx context.Context, checks map[string]Checker, logger *slog.Logger) (map[string]CheckStatus, bool) {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]CheckStatus, len(checks))
	healthy := true
	for _, name := range names {
		if err := checks[name].Ping(ctx); err != nil {
			healthy = false
			out[name] = CheckStatus{Status: "unhealthy", Message: respond.SanitizeError(err)}
			logger.Warn("health check failed",
				slog.String("check", name),
				slog.String("error", respond.SanitizeError(err)))
			continue
		}
		out[name] = CheckStatus{Status: "healthy"}
	}
	return out, healthy
}

// ReadyHandler answers 200 "ready" once every check passes.
type ReadyHandler struct {
	Checks map[string]Checker
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, c := range h.Checks {
		if err := c.Ping(ctx); err != nil {
			http.Error(w, name+" not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// LiveHandler always answers 200 "alive".
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
