// Package resilience provides reliability and fault tolerance patterns for the application.
// It groups the pieces that keep completion calls from failing loudly:
//
//   - circuitbreaker: gobreaker wrappers for completion providers and cache databases
//   - retry: bounded exponential backoff with jitter and error classification
//   - ratelimit: call pacing gates (fixed interval or token bucket)
//
// Usage Example:
//
//	gate := ratelimit.NewIntervalLimiter(60)
//	policy := retry.NewPolicy(retry.AIAPIConfig())
//	_, err := policy.Do(ctx, func(ctx context.Context) error {
//	    if err := gate.Wait(ctx); err != nil {
//	        return err
//	    }
//	    return callCompletion(ctx)
//	})
package resilience
