// Package tracing provides OpenTelemetry tracing integration.
//
// Middleware opens a server span per HTTP request and echoes the trace id in the
// X-Trace-Id response header. StartSpan/EndSpan wrap internal work such as a
// generation call so it nests under the request span.
//
//	ctx, span := tracing.StartSpan(ctx, "generate.title", attribute.String("topic", topic))
//	defer func() { tracing.EndSpan(span, err) }()
package tracing
