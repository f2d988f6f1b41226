package pkg

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/safatanc/loyalty-core/internal/app/errors"
)

// ErrConflict is returned by an attempt that lost a compare-and-swap race.
// It is the only error Retry retries.
var ErrConflict = errors.New("optimistic concurrency conflict")

// RetryPolicy bounds the retry loop of a single-writer-per-key operation.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy is used when configuration leaves the policy empty.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     8,
	InitialInterval: 5 * time.Millisecond,
	MaxInterval:     200 * time.Millisecond,
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = DefaultRetryPolicy.InitialInterval
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = p.InitialInterval
	}
	return p
}

// Retry runs op until it succeeds, fails with anything other than ErrConflict,
// or the policy is exhausted. Exhaustion surfaces as errors.ErrContention and a
// caller deadline as errors.ErrTimeout; every other error is returned as is.
// onConflict, when set, is called once per lost race.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func() (T, error), onConflict func(attempt uint)) (T, error) {
	policy = policy.normalized()

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = policy.InitialInterval
	expBackoff.MaxInterval = policy.MaxInterval

	var attempt uint
	result, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		res, err := op()
		if err == nil {
			return res, nil
		}
		if errors.Is(err, ErrConflict) {
			if onConflict != nil {
				onConflict(attempt)
			}
			return res, err
		}
		return res, backoff.Permanent(err)
	},
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(policy.MaxAttempts),
		backoff.WithMaxElapsedTime(0),
	)
	if err == nil {
		return result, nil
	}

	var zero T
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return zero, errors.ErrTimeout
	case errors.Is(err, ErrConflict):
		return zero, errors.ErrContention
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return zero, permanent.Unwrap()
	}
	return zero, err
}
