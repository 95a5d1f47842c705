package metrics

import (
	"strconv"
	"time"
)

// RecordGeneration records a finished generation call.
// Source is one of live, offline, fallback.
func RecordGeneration(operation, source string, cached bool, duration time.Duration) {
	GenerationsTotal.WithLabelValues(operation, source, strconv.FormatBool(cached)).Inc()
	GenerationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordGenerationFailure records a generation call that returned an error.
func RecordGenerationFailure(operation, class string, duration time.Duration) {
	GenerationFailuresTotal.WithLabelValues(operation, class).Inc()
	GenerationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCompletionAttempts records the attempts one live call needed.
func RecordCompletionAttempts(operation string, attempts int) {
	if attempts <= 0 {
		return
	}
	CompletionAttempts.WithLabelValues(operation).Observe(float64(attempts))
}

// RecordRateLimitWait records time spent blocked on the outbound gate.
func RecordRateLimitWait(d time.Duration) {
	RateLimitWait.Observe(d.Seconds())
}

// RecordCompletionRequest records a single upstream request.
// Outcome should be success, rate_limited, transient, fatal or circuit_open.
func RecordCompletionRequest(provider, outcome string, duration time.Duration) {
	CompletionRequestsTotal.WithLabelValues(provider, outcome).Inc()
	CompletionDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache lookup result: hit, miss or error.
func RecordCacheLookup(backend, result string) {
	CacheRequestsTotal.WithLabelValues(backend, result).Inc()
}

// RecordCacheWrite records the result of a cache write.
func RecordCacheWrite(backend string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	CacheWritesTotal.WithLabelValues(backend, status).Inc()
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "cache_get", "cache_put").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBreakerState records a breaker transition. state follows gobreaker's
// numbering: 0 closed, 1 half-open, 2 open.
func RecordBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordPostSaved records the result of writing a blog post to storage.
func RecordPostSaved(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	PostsSavedTotal.WithLabelValues(status).Inc()
}

// UpdateStoredPosts updates the stored post gauge.
func UpdateStoredPosts(count int) {
	StoredPosts.Set(float64(count))
}
