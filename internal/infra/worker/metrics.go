package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"autoblog/internal/pkg/config"
)

// WorkerMetrics are the worker's Prometheus metrics: the shared worker_config_*
// set plus publish job counters. Created once per process; promauto registers
// them on the default registry.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// CronJobRunsTotal counts runs by status (started, success, partial, failure).
	CronJobRunsTotal *prometheus.CounterVec

	CronJobDurationSeconds prometheus.Histogram

	// PostsPublishedTotal counts saved posts by quality (live, degraded).
	PostsPublishedTotal *prometheus.CounterVec

	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates and registers the worker metrics.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		CronJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of publish job runs by status",
		}, []string{"status"}),

		CronJobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of publish job runs in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		PostsPublishedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_posts_published_total",
			Help: "Total number of posts saved by the publish job",
		}, []string{"quality"}),

		CronJobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last fully successful publish run",
		}),
	}
}

// RecordJobRun counts a run with the given status.
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes a run duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

// RecordPublished adds the posts saved in a run. degraded of them carried
// placeholder content.
func (m *WorkerMetrics) RecordPublished(saved, degraded int) {
	if live := saved - degraded; live > 0 {
		m.PostsPublishedTotal.WithLabelValues("live").Add(float64(live))
	}
	if degraded > 0 {
		m.PostsPublishedTotal.WithLabelValues("degraded").Add(float64(degraded))
	}
}

// RecordLastSuccess stamps the current time.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}
