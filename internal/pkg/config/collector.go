package config

import (
	"log/slog"
	"time"
)

// Collector applies load results to a config struct, logging and counting each
// fallback. Metrics may be nil.
//
//	c := config.NewCollector(logger, metrics)
//	cfg.Schedule = c.String("cron_schedule", config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.Schedule, config.ValidateCronSchedule))
//	c.Finish()
type Collector struct {
	logger  *slog.Logger
	metrics *ConfigMetrics
	fields  []string
}

// NewCollector creates a Collector.
func NewCollector(logger *slog.Logger, metrics *ConfigMetrics) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{logger: logger, metrics: metrics}
}

func (c *Collector) note(field string, r ConfigLoadResult) any {
	if r.FallbackApplied {
		c.fields = append(c.fields, field)
		if c.metrics != nil {
			c.metrics.RecordValidationError(field)
			c.metrics.RecordFallback(field, "default")
		}
		for _, w := range r.Warnings {
			c.logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", w))
		}
	}
	return r.Value
}

// String records r and returns its string value.
func (c *Collector) String(field string, r ConfigLoadResult) string {
	return c.note(field, r).(string)
}

// Int records r and returns its int value.
func (c *Collector) Int(field string, r ConfigLoadResult) int {
	return c.note(field, r).(int)
}

// Float records r and returns its float64 value.
func (c *Collector) Float(field string, r ConfigLoadResult) float64 {
	return c.note(field, r).(float64)
}

// Bool records r and returns its bool value.
func (c *Collector) Bool(field string, r ConfigLoadResult) bool {
	return c.note(field, r).(bool)
}

// Duration records r and returns its duration value.
func (c *Collector) Duration(field string, r ConfigLoadResult) time.Duration {
	return c.note(field, r).(time.Duration)
}

// Fallbacks lists the fields that fell back so far.
func (c *Collector) Fallbacks() []string {
	return c.fields
}

// Finish publishes the fallback gauge and load timestamp.
func (c *Collector) Finish() {
	if c.metrics == nil {
		return
	}
	c.metrics.SetFallbackActive(len(c.fields) > 0)
	c.metrics.RecordLoadTimestamp()
}
