package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog/internal/observability/metrics"
)

var errUpstream = errors.New("upstream failed")

func tripConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Timeout:          time.Hour,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		timeout time.Duration
	}{
		{name: "default", cfg: DefaultConfig("x"), want: "x", timeout: 60 * time.Second},
		{name: "openai", cfg: CompletionConfig("openai"), want: "openai-api", timeout: 60 * time.Second},
		{name: "anthropic alias", cfg: CompletionConfig("anthropic"), want: "claude-api", timeout: 60 * time.Second},
		{name: "redis", cfg: CacheStoreConfig("cache-redis"), want: "cache-redis", timeout: 15 * time.Second},
		{name: "sqlite", cfg: DBConfig("cache-sqlite"), want: "cache-sqlite", timeout: 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Name)
			assert.Equal(t, tt.timeout, tt.cfg.Timeout)
			assert.NotZero(t, tt.cfg.MinRequests)
			assert.Greater(t, tt.cfg.FailureThreshold, 0.0)
		})
	}
	assert.Less(t, CacheStoreConfig("c").Timeout, DBConfig("d").Timeout)
}

func TestNew_StartsClosed(t *testing.T) {
	cb := New(DefaultConfig("starts-closed"))

	assert.Equal(t, "starts-closed", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.False(t, cb.IsOpen())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("starts-closed")))
}

func TestRun_ReturnsTypedResult(t *testing.T) {
	cb := New(DefaultConfig("typed"))

	got, err := Run(cb, func() (string, error) { return "hello", nil })
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	n, err := Run(cb, func() (int, error) { return 7, errUpstream })
	assert.ErrorIs(t, err, errUpstream)
	assert.Zero(t, n)
}

func TestExecute_TripsAfterFailureRatio(t *testing.T) {
	cb := New(tripConfig("trips"))

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, errUpstream })
		assert.ErrorIs(t, err, errUpstream)
	}

	require.True(t, cb.IsOpen())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("trips")))

	called := false
	_, err := Run(cb, func() (bool, error) {
		called = true
		return true, nil
	})
	assert.ErrorIs(t, err, ErrOpenState)
	assert.False(t, called, "open circuit must not invoke fn")
}

func TestExecute_BelowMinRequestsStaysClosed(t *testing.T) {
	cfg := tripConfig("below-min")
	cfg.MinRequests = 10
	cb := New(cfg)

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, errUpstream })
	}
	assert.False(t, cb.IsOpen())
}

func TestHalfOpen_RecoversOnSuccess(t *testing.T) {
	cfg := tripConfig("recovers")
	cfg.Timeout = 20 * time.Millisecond
	cb := New(cfg)

	for i := 0; i < 2; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, errUpstream })
	}
	require.True(t, cb.IsOpen())

	require.Eventually(t, func() bool {
		return cb.State() == gobreaker.StateHalfOpen
	}, time.Second, 5*time.Millisecond)

	_, err := Run(cb, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
