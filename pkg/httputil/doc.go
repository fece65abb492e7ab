// Package httputil provides retry helpers for the query service client.
//
// [Retry] re-runs an operation for transient failures. Callers decide what
// is transient by wrapping the error in [RetryableError]; the Databricks
// client does so for network errors, 5xx responses and 429 rate limits.
//
//	p := httputil.Policy{Attempts: 3, Delay: 500 * time.Millisecond}
//	err := httputil.Retry(ctx, p, func() error {
//	    return client.post(ctx, body, &resp)
//	})
//
// The delay doubles after every failed attempt, never drops below a
// RetryableError's After and never exceeds MaxDelay. Waiting stops as soon
// as the context is cancelled.
package httputil
