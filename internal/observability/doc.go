// Package observability groups logging, metrics and tracing.
//
// Subpackages:
//   - logging: slog setup and request-scoped loggers
//   - metrics: Prometheus collectors for generation, cache and storage
//   - tracing: OpenTelemetry HTTP middleware and span helpers
package observability
