package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetrics(t *testing.T) *httpMetrics {
	t.Helper()
	return newHTTPMetrics(prometheus.NewRegistry())
}

func TestMetrics_PostPathsCollapse(t *testing.T) {
	m := newTestMetrics(t)
	h := m.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))

	for _, target := range []string{
		"/posts/blog_AI_20261019_090000.html",
		"/posts/blog_Go_20261018_090000.html",
		"/posts/x.html?ref=1",
	} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	assert.Equal(t, 1, testutil.CollectAndCount(m.requests))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/posts/:name", "200")))
}

func TestMetrics_StatusLabels(t *testing.T) {
	m := newTestMetrics(t)
	codes := []int{http.StatusOK, http.StatusBadRequest, http.StatusTooManyRequests, http.StatusServiceUnavailable}
	for _, code := range codes {
		h := m.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/generate/title", nil))
	}

	assert.Equal(t, len(codes), testutil.CollectAndCount(m.requests))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodPost, "/api/generate/title", "429")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetrics_UnknownPathsShareLabel(t *testing.T) {
	m := newTestMetrics(t)
	h := m.wrap(http.NotFoundHandler())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/.env", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/other", "404")))
}

func TestMetrics_InFlightReturnsToZero(t *testing.T) {
	m := newTestMetrics(t)
	var during float64
	h := m.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(m.inFlight)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, 1.0, during)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

func TestMetricsHandler_ServesDefaultRegistry(t *testing.T) {
	MetricsMiddleware(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
