package queue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// RetryPolicy is attached to every enqueued task.
type RetryPolicy struct {
	MaxAttempts int           // total attempts including the first
	BaseDelay   time.Duration // delay before the first retry; doubles each time
	MaxDelay    time.Duration
}

// DefaultRetryPolicy allows three attempts with 2s, 4s backoff.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   2 * time.Second,
	MaxDelay:    10 * time.Minute,
}

// MaxRetry is the asynq retry budget for the policy.
func (p RetryPolicy) MaxRetry() int {
	if p.MaxAttempts <= 1 {
		return 0
	}
	return p.MaxAttempts - 1
}

// Delay returns the wait before retry number retried+1.
func (p RetryPolicy) Delay(retried int) time.Duration {
	if retried < 0 {
		retried = 0
	}
	d := p.BaseDelay
	for i := 0; i < retried; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// IsFinalAttempt reports whether the task running under ctx has no retries
// left. Outside a queue worker, where asynq metadata is absent, every call
// is final.
func IsFinalAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}
