package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"autoblog/internal/handler/http/pathutil"
	"autoblog/internal/handler/http/responsewriter"
)

// httpMetrics are the inbound request series. Paths are always normalized so
// post filenames never become label values.
type httpMetrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	respSize    *prometheus.HistogramVec
	rateLimited *prometheus.CounterVec
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	f := promauto.With(reg)
	return &httpMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		// generation endpoints can sit in backoff for a minute or more
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"method", "path"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		}),
		respSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 7),
		}, []string{"path"}),
		rateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the inbound per-IP limiter",
		}, []string{"path"}),
	}
}

var serverMetrics = newHTTPMetrics(prometheus.DefaultRegisterer)

func (m *httpMetrics) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		rw := responsewriter.Wrap(w)
		start := time.Now()
		next.ServeHTTP(rw, r)

		path := pathutil.NormalizePath(r.URL.Path)
		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(rw.StatusCode())).Inc()
		m.duration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		m.respSize.WithLabelValues(path).Observe(float64(rw.BytesWritten()))
	})
}

// MetricsMiddleware records request counts, latency and response sizes.
func MetricsMiddleware(next http.Handler) http.Handler {
	return serverMetrics.wrap(next)
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

func recordRateLimited(path string) {
	serverMetrics.rateLimited.WithLabelValues(pathutil.NormalizePath(path)).Inc()
}
