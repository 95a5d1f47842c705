package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordGeneration(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		source    string
		cached    bool
	}{
		{name: "live title", operation: "title", source: "live"},
		{name: "cached post", operation: "post", source: "live", cached: true},
		{name: "fallback batch", operation: "batch", source: "fallback"},
		{name: "offline seo", operation: "seo-metrics", source: "offline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := GenerationsTotal.WithLabelValues(tt.operation, tt.source, boolLabel(tt.cached))
			before := testutil.ToFloat64(counter)

			assert.NotPanics(t, func() {
				RecordGeneration(tt.operation, tt.source, tt.cached, 10*time.Millisecond)
			})
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func TestRecordGenerationFailure(t *testing.T) {
	counter := GenerationFailuresTotal.WithLabelValues("title", "fatal")
	before := testutil.ToFloat64(counter)

	RecordGenerationFailure("title", "fatal", time.Second)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecordCompletionAttempts_IgnoresZero(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordCompletionAttempts("title", 0)
		RecordCompletionAttempts("title", 3)
	})
}

func TestRecordCacheLookup(t *testing.T) {
	for _, result := range []string{"hit", "miss", "error"} {
		counter := CacheRequestsTotal.WithLabelValues("memory", result)
		before := testutil.ToFloat64(counter)
		RecordCacheLookup("memory", result)
		assert.Equal(t, before+1, testutil.ToFloat64(counter), result)
	}
}

func TestRecordCacheWrite(t *testing.T) {
	ok := CacheWritesTotal.WithLabelValues("redis", "success")
	failed := CacheWritesTotal.WithLabelValues("redis", "failure")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordCacheWrite("redis", true)
	RecordCacheWrite("redis", false)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestRecordCompletionRequest(t *testing.T) {
	counter := CompletionRequestsTotal.WithLabelValues("openai", "rate_limited")
	before := testutil.ToFloat64(counter)

	RecordCompletionRequest("openai", "rate_limited", 200*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestStorageMetrics(t *testing.T) {
	UpdateStoredPosts(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(StoredPosts))

	counter := PostsSavedTotal.WithLabelValues("success")
	before := testutil.ToFloat64(counter)
	RecordPostSaved(true)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMiscRecorders(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordRateLimitWait(250 * time.Millisecond)
		RecordDBQuery("cache_get", time.Millisecond)
	})
}
