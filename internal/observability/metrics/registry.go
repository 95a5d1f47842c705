// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation metrics track the façade pipeline
var (
	// GenerationsTotal counts finished generation calls by operation and result source
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoblog_generations_total",
			Help: "Total number of generation calls by operation and source (live, offline, fallback)",
		},
		[]string{"operation", "source", "cached"},
	)

	// GenerationFailuresTotal counts generation calls that returned an error to the caller
	GenerationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoblog_generation_failures_total",
			Help: "Total number of generation calls that failed without fallback",
		},
		[]string{"operation", "class"},
	)

	// GenerationDuration measures end-to-end generation latency
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autoblog_generation_duration_seconds",
			Help:    "Time taken to serve a generation call, cache hits included",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"operation"},
	)

	// CompletionAttempts records how many upstream attempts each live call needed
	CompletionAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autoblog_completion_attempts",
			Help:    "Upstream attempts per generation call",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
		[]string{"operation"},
	)

	// RateLimitWait measures time spent waiting on the outbound rate gate
	RateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "autoblog_rate_limit_wait_seconds",
			Help:    "Time spent waiting for the outbound completion rate gate",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
)

// Completion provider metrics
var (
	// CompletionRequestsTotal counts upstream completion requests by provider and outcome
	CompletionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoblog_completion_requests_total",
			Help: "Total number of completion API requests",
		},
		[]string{"provider", "outcome"},
	)

	// CompletionDuration measures upstream completion latency
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autoblog_completion_duration_seconds",
			Help:    "Time taken by a single completion API request",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"provider"},
	)
)

// Cache metrics
var (
	// CacheRequestsTotal counts cache lookups by backend and result (hit, miss, error)
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoblog_cache_requests_total",
			Help: "Total number of cache lookups",
		},
		[]string{"backend", "result"},
	)

	// CacheWritesTotal counts cache writes by backend and status
	CacheWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoblog_cache_writes_total",
			Help: "Total number of cache writes",
		},
		[]string{"backend", "status"},
	)

	// DBQueryDuration measures cache database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)
)

// Resilience metrics
var (
	// CircuitBreakerState tracks each breaker: 0 closed, 1 half-open, 2 open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "autoblog_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

// Storage metrics
var (
	// PostsSavedTotal counts blog posts written to storage by status
	PostsSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoblog_posts_saved_total",
			Help: "Total number of blog posts saved to storage",
		},
		[]string{"status"},
	)

	// StoredPosts tracks the number of posts found at the last listing
	StoredPosts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autoblog_stored_posts",
			Help: "Number of blog posts in storage at the last listing",
		},
	)
)
