package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autoblog/internal/app"
	"autoblog/internal/config"
	hhttp "autoblog/internal/handler/http"
	"autoblog/internal/handler/http/debug"
	"autoblog/internal/handler/http/generate"
	"autoblog/internal/handler/http/page"
	"autoblog/internal/handler/http/requestid"
	"autoblog/internal/observability/logging"
	"autoblog/internal/observability/tracing"
	pkgconfig "autoblog/internal/pkg/config"
)

func main() {
	if _, err := pkgconfig.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "env file:", err)
		os.Exit(1)
	}
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	version := getVersion()

	cfg, err := config.Load(logger, pkgconfig.NewConfigMetrics("api"))
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	components, err := app.Build(cfg, logger)
	if err != nil {
		logger.Error("failed to build generation stack", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.Error("failed to close components", slog.Any("error", err))
		}
	}()

	runServer(logger, cfg, setupServer(logger, components, version), version)
}

func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// setupServer returns the HTTP handler with all routes and middleware.
func setupServer(logger *slog.Logger, c *app.Components, version string) http.Handler {
	cfg := c.Config
	mux := http.NewServeMux()

	page.Register(mux, &page.Handler{
		Renderer:        c.Renderer,
		Articles:        c.Generator,
		Posts:           c.Storage,
		DefaultTopic:    cfg.Content.DefaultTopic,
		DefaultKeywords: cfg.Content.DefaultKeywords,
		Logger:          logger,
	})

	// Generation endpoints spend upstream quota, so they get the per-IP limiter.
	var guard func(http.Handler) http.Handler
	if cfg.HTTP.IPRateLimit > 0 {
		guard = hhttp.NewRateLimiter(cfg.HTTP.IPRateLimit, cfg.HTTP.IPRateWindow).Limit
	}
	generate.Register(mux, &generate.Handler{
		Svc:    c.Generator,
		Saver:  c.Storage,
		Logger: logger,
	}, guard)

	debug.Register(mux, cfg.HTTP.DebugEndpoints, cfg)

	checks := make(map[string]hhttp.Checker)
	for name, p := range c.Checks() {
		checks[name] = p
	}
	mux.Handle("GET /health", &hhttp.HealthHandler{
		Checks:  checks,
		Version: version,
		Info: map[string]string{
			"provider":       cfg.LLM.Provider,
			"offline":        fmt.Sprint(cfg.LLM.Offline),
			"offline_forced": fmt.Sprint(cfg.LLM.OfflineForced),
			"cache":          c.Cache.Backend(),
		},
		Logger: logger,
	})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{Checks: checks})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	logger.Info("routes registered",
		slog.Bool("debug_endpoints", cfg.HTTP.DebugEndpoints),
		slog.Int("ip_rate_limit", cfg.HTTP.IPRateLimit))

	return hhttp.Chain(mux,
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Recover(logger),
		hhttp.Logging(logger),
		hhttp.InputValidation(int64(cfg.HTTP.MaxBodyBytes)),
		hhttp.MetricsMiddleware,
		hhttp.Timeout(cfg.HTTP.RequestTimeout),
	)
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, cfg *config.Config, handler http.Handler, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.HTTP.Addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		logger.Error("server failed", slog.Any("error", err))
		return
	}
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	// In-flight generations see cancellation only after Shutdown gave them a chance to finish.
	cancel()
	logger.Info("server stopped")
}
