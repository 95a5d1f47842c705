// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the domain metrics of the application:
//   - Generation metrics (calls by operation and source, failures, latency, attempts)
//   - Completion provider metrics (requests by outcome, latency)
//   - Cache metrics (lookups, writes, database query latency)
//   - Storage metrics (posts saved, posts stored)
//
// HTTP request metrics live with the HTTP middleware. All metrics are registered with
// the Prometheus default registry and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "autoblog/internal/observability/metrics"
//
//	start := time.Now()
//	res, err := svc.GenerateTitle(ctx, topic)
//	if err == nil {
//	    metrics.RecordGeneration("title", string(res.Source), res.Cached, time.Since(start))
//	}
package metrics
