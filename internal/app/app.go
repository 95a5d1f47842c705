// Package app assembles the generation stack shared by the api and worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"autoblog/internal/config"
	"autoblog/internal/handler/http/page"
	"autoblog/internal/infra/cachestore"
	"autoblog/internal/infra/completion"
	"autoblog/internal/infra/seo"
	"autoblog/internal/infra/storage"
	"autoblog/internal/resilience/ratelimit"
	"autoblog/internal/resilience/retry"
	"autoblog/internal/usecase/generate"
)

// Components are the long-lived pieces built from a Config.
type Components struct {
	Config    *config.Config
	Generator *generate.Service
	Cache     *cachestore.Instrumented
	Storage   *storage.Store
	Renderer  *page.Renderer
	SEO       *seo.Provider
}

// Build wires every component. On error anything already opened is closed.
func Build(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	prompts, err := config.LoadPrompts(cfg.Content.PromptsFile)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	store, err := cachestore.Open(cfg.CacheStoreConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	c, err := build(cfg, prompts, store, logger)
	if err != nil {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("failed to close cache", slog.Any("error", cerr))
		}
		return nil, err
	}
	return c, nil
}

func build(cfg *config.Config, prompts generate.Prompts, store *cachestore.Instrumented, logger *slog.Logger) (*Components, error) {
	gate, err := ratelimit.New(cfg.GateConfig())
	if err != nil {
		return nil, fmt.Errorf("rate gate: %w", err)
	}

	completer, err := completion.New(cfg.CompletionConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("completion client: %w", err)
	}

	// A broken metrics file degrades to the built-in table.
	metrics, err := seo.Open(cfg.SEODataFile)
	if err != nil {
		logger.Warn("seo data file unusable, using built-in table",
			slog.String("path", cfg.SEODataFile),
			slog.Any("error", err))
		metrics = seo.New(nil)
	}

	svc, err := generate.NewService(cfg.GenerateConfig(prompts), generate.Dependencies{
		Completer: completer,
		Cache:     store,
		Gate:      gate,
		Retry:     retry.NewPolicy(cfg.RetryPolicy(), retry.WithLogger(logger)),
		SEO:       metrics,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("generation service: %w", err)
	}

	renderer, err := page.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	posts, err := storage.New(cfg.StorageDir, renderer, storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	logger.Info("generation stack ready",
		slog.String("provider", cfg.LLM.Provider),
		slog.Bool("offline", cfg.LLM.Offline),
		slog.String("cache", store.Backend()),
		slog.String("storage_dir", cfg.StorageDir))

	return &Components{
		Config:    cfg,
		Generator: svc,
		Cache:     store,
		Storage:   posts,
		Renderer:  renderer,
		SEO:       metrics,
	}, nil
}

// Pinger reports whether a dependency is usable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checks returns the readiness checks: storage and the cache backend.
func (c *Components) Checks() map[string]Pinger {
	return map[string]Pinger{
		"storage": c.Storage,
		"cache":   c.Cache,
	}
}

// Close releases the cache backend.
func (c *Components) Close() error {
	if c == nil || c.Cache == nil {
		return nil
	}
	if err := c.Cache.Close(); err != nil {
		return errors.Join(errors.New("close cache"), err)
	}
	return nil
}
