package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"autoblog/internal/app"
	"autoblog/internal/config"
	"autoblog/internal/handler/http/respond"
	workerPkg "autoblog/internal/infra/worker"
	"autoblog/internal/observability/logging"
	pkgconfig "autoblog/internal/pkg/config"
	"autoblog/internal/usecase/publish"
)

func main() {
	if _, err := pkgconfig.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "env file:", err)
		os.Exit(1)
	}
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(logger, pkgconfig.NewConfigMetrics("app"))
	if err != nil {
		return err
	}

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerCfg, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		return err
	}

	topics, err := jobTopics(workerCfg.Topics, cfg)
	if err != nil {
		return err
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerCfg.CronSchedule),
		slog.String("timezone", workerCfg.Timezone),
		slog.Int("topics", len(topics)),
		slog.Int("parallelism", workerCfg.Parallelism),
		slog.Duration("job_timeout", workerCfg.JobTimeout))

	components, err := app.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.Error("failed to close components", slog.Any("error", err))
		}
	}()

	checks := make(map[string]workerPkg.Checker)
	for name, p := range components.Checks() {
		checks[name] = p
	}
	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerCfg.HealthPort), logger, checks)
	healthErr := make(chan error, 1)
	go func() { healthErr <- healthServer.Start(ctx) }()

	job := &publishJob{
		svc: &publish.Service{
			Articles:    components.Generator,
			Store:       components.Storage,
			Parallelism: workerCfg.Parallelism,
			Logger:      logger,
		},
		topics:  topics,
		timeout: workerCfg.JobTimeout,
		metrics: workerMetrics,
		logger:  logger,
	}

	c := cron.New(cron.WithLocation(workerCfg.Location()))
	if _, err := c.AddFunc(workerCfg.CronSchedule, func() { job.run(ctx) }); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", workerCfg.CronSchedule),
		slog.String("timezone", workerCfg.Timezone))

	if workerCfg.RunOnStart {
		go job.run(ctx)
	}

	select {
	case <-ctx.Done():
	case err := <-healthErr:
		if !errors.Is(err, http.ErrServerClosed) {
			stop()
			<-c.Stop().Done()
			return fmt.Errorf("health server: %w", err)
		}
	}

	healthServer.SetReady(false)
	logger.Info("shutting down worker, waiting for running job")
	<-c.Stop().Done()
	logger.Info("worker stopped")
	return nil
}

// jobTopics parses PUBLISH_TOPICS, falling back to the default topic.
func jobTopics(raw string, cfg *config.Config) ([]publish.Topic, error) {
	topics, err := publish.ParseTopics(raw)
	if err != nil {
		return nil, fmt.Errorf("PUBLISH_TOPICS: %w", err)
	}
	if len(topics) == 0 {
		topics = []publish.Topic{{Name: cfg.Content.DefaultTopic, Keywords: cfg.Content.DefaultKeywords}}
	}
	return topics, nil
}

type publishJob struct {
	svc     *publish.Service
	topics  []publish.Topic
	timeout time.Duration
	metrics *workerPkg.WorkerMetrics
	logger  *slog.Logger
}

// run executes a single publish job with timeout and error handling.
func (j *publishJob) run(parent context.Context) {
	startTime := time.Now()
	j.metrics.RecordJobRun("started")
	j.logger.Info("publish started", slog.Int("topics", len(j.topics)))

	ctx, cancel := context.WithTimeout(parent, j.timeout)
	defer cancel()

	stats, err := j.svc.Run(ctx, j.topics)
	j.metrics.RecordJobDuration(time.Since(startTime).Seconds())
	j.metrics.RecordPublished(stats.Saved, stats.Degraded)

	switch {
	case err == nil:
		j.metrics.RecordJobRun("success")
		j.metrics.RecordLastSuccess()
	case stats.Saved > 0:
		j.metrics.RecordJobRun("partial")
		j.logger.Warn("publish partially failed", slog.String("error", respond.SanitizeError(err)))
	default:
		j.metrics.RecordJobRun("failure")
		j.logger.Error("publish failed", slog.String("error", respond.SanitizeError(err)))
	}

	j.logger.Info("publish completed",
		slog.Int("topics", stats.Topics),
		slog.Int("saved", stats.Saved),
		slog.Int("degraded", stats.Degraded),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))
}
