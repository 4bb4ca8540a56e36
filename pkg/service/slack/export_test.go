package slack

import "time"

// RetryDelay is exported for testing the backoff policy
func RetryDelay(err error, attempt int) (time.Duration, bool) {
	return defaultRetryConfig.retryDelay(err, attempt)
}

// PostRetryDelay is RetryDelay for message posting calls
func PostRetryDelay(err error, attempt int) (time.Duration, bool) {
	return defaultRetryConfig.withoutServerErrors().retryDelay(err, attempt)
}
