package afip

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how idempotent reads are repeated after transport errors.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
}

// DefaultRetryPolicy retries three times starting at half a second.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
}

// NoRetry disables retries.
var NoRetry = RetryPolicy{}

func (p RetryPolicy) do(ctx context.Context, op func() error) error {
	if p.MaxRetries == 0 {
		return op()
	}

	b := backoff.NewExponentialBackOff(backoff.WithInitialInterval(p.InitialInterval))
	policy := backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err != nil && !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}
