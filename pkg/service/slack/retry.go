package slack

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// retryConfig controls retries of rate limited or failing Slack calls
type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	// serverErrors enables retrying 5xx responses. A 5xx from a posting
	// call may arrive after the message was stored, so posts leave it off.
	serverErrors bool
}

var defaultRetryConfig = retryConfig{
	maxRetries:   3,
	baseDelay:    500 * time.Millisecond,
	maxDelay:     30 * time.Second,
	serverErrors: true,
}

// withoutServerErrors returns cfg retrying rate limit responses only
func (cfg retryConfig) withoutServerErrors() retryConfig {
	cfg.serverErrors = false
	return cfg
}

// retryDelay reports whether err is worth retrying and how long to wait.
// Rate limit responses carry their own wait; 5xx responses back off
// exponentially with jitter.
func (cfg retryConfig) retryDelay(err error, attempt int) (time.Duration, bool) {
	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		return min(rateErr.RetryAfter, cfg.maxDelay), true
	}

	var statusErr slack.StatusCodeError
	if cfg.serverErrors && errors.As(err, &statusErr) && statusErr.Code >= 500 {
		delay := cfg.baseDelay << uint(attempt)
		if delay > cfg.maxDelay {
			delay = cfg.maxDelay
		}
		return delay + time.Duration(rand.Int64N(int64(cfg.baseDelay))), true
	}

	return 0, false
}

// retryOp runs fn, retrying transient failures until maxRetries is used up
// or ctx is done
func retryOp(ctx context.Context, cfg retryConfig, method string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		delay, ok := cfg.retryDelay(lastErr, attempt)
		if !ok || attempt == cfg.maxRetries {
			return lastErr
		}

		logging.From(ctx).Debug("retrying Slack call",
			"method", method,
			"attempt", attempt+1,
			"delay", delay,
			"error", lastErr.Error(),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
