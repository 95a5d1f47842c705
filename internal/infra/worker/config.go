package worker

import (
	"fmt"
	"log/slog"
	"time"

	"autoblog/internal/pkg/config"
)

// WorkerConfig controls the scheduled publish job.
//
// Environment variables:
//   - CRON_SCHEDULE: five-field cron expression (default "0 9 * * *", daily at 09:00)
//   - WORKER_TIMEZONE: IANA zone the schedule is read in (default "UTC")
//   - PUBLISH_TOPICS: "topic:kw1,kw2;topic2:kw3" (default: DEFAULT_TOPIC with DEFAULT_KEYWORDS)
//   - PUBLISH_PARALLELISM: topics generated at once, 1-10 (default 2)
//   - JOB_TIMEOUT: bound on one run, 1m-4h (default 30m)
//   - WORKER_HEALTH_PORT: health and metrics port, 1024-65535 (default 9091)
//   - RUN_ON_START: also run once at startup (default false)
type WorkerConfig struct {
	CronSchedule string
	Timezone     string
	Topics       string
	Parallelism  int
	JobTimeout   time.Duration
	HealthPort   int
	RunOnStart   bool
}

// DefaultConfig returns the worker defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule: "0 9 * * *",
		Timezone:     "UTC",
		Parallelism:  2,
		JobTimeout:   30 * time.Minute,
		HealthPort:   9091,
	}
}

// Validate collects every invalid field into one error.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.Parallelism, 1, 10); err != nil {
		errs = append(errs, fmt.Errorf("publish parallelism: %w", err))
	}
	if err := config.ValidateDuration(c.JobTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("job timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// Location returns the schedule's time zone, UTC if it cannot be loaded.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv loads the worker configuration. It is fail-open: invalid
// values are logged, counted and replaced by defaults, and the error is always nil.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	c := config.NewCollector(logger, cm)

	cfg.CronSchedule = c.String("cron_schedule",
		config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule))
	cfg.Timezone = c.String("timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))
	cfg.Topics = config.LoadEnvString("PUBLISH_TOPICS", "")
	cfg.Parallelism = c.Int("publish_parallelism",
		config.LoadEnvInt("PUBLISH_PARALLELISM", cfg.Parallelism, func(v int) error {
			return config.ValidateIntRange(v, 1, 10)
		}))
	cfg.JobTimeout = c.Duration("job_timeout",
		config.LoadEnvDuration("JOB_TIMEOUT", cfg.JobTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Minute, 4*time.Hour)
		}))
	cfg.HealthPort = c.Int("health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}))
	cfg.RunOnStart = c.Bool("run_on_start", config.LoadEnvBool("RUN_ON_START", cfg.RunOnStart))

	c.Finish()
	return &cfg, nil
}
