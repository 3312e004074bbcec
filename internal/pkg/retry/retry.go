// Package retry runs an operation under a per-attempt timeout schedule with
// exponential backoff between attempts.
package retry

import (
	"context"
	"errors"
	"net"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Policy describes how an operation is retried.
//
// Attempt n (0-based) runs under a context bounded by Timeouts[n]; when it
// fails with a retryable error the next attempt starts after BaseDelay*2^n.
// The number of attempts is len(Timeouts).
type Policy struct {
	Timeouts  []time.Duration
	BaseDelay time.Duration
	// Retryable decides whether an attempt error is transient. Defaults to IsTimeout.
	Retryable func(error) bool
}

// Func is one attempt. attempt is 0-based.
type Func func(ctx context.Context, attempt int) error

// Fixed returns a policy of n attempts sharing the same timeout.
func Fixed(n int, timeout, baseDelay time.Duration) Policy {
	timeouts := make([]time.Duration, n)
	for i := range timeouts {
		timeouts[i] = timeout
	}
	return Policy{Timeouts: timeouts, BaseDelay: baseDelay}
}

// Do runs fn until it succeeds, returns a non-retryable error, or the attempts
// run out. The error of the last attempt is returned unchanged.
func (p Policy) Do(ctx context.Context, fn Func) error {
	if len(p.Timeouts) == 0 {
		return errors.New("retry: policy has no attempts")
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTimeout
	}
	base := p.BaseDelay
	if base <= 0 {
		base = time.Nanosecond
	}

	backoff := goretry.WithMaxRetries(uint64(len(p.Timeouts)-1), goretry.NewExponential(base))

	attempt := 0
	return goretry.Do(ctx, backoff, func(ctx context.Context) error {
		n := attempt
		attempt++

		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeouts[n])
		defer cancel()

		err := fn(attemptCtx, n)
		if err == nil {
			return nil
		}
		if ctx.Err() == nil && retryable(err) {
			return goretry.RetryableError(err)
		}
		return err
	})
}

// IsTimeout reports whether err means the remote end did not answer in time.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
