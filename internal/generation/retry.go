package generation

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry defaults: two additional attempts, delays of 1s then 2s.
const (
	DefaultMaxRetries     = 2
	DefaultRetryBaseDelay = time.Second
)

// RetryPolicy bounds how often and how patiently a failed attempt is retried.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// MaxAttempts is the total number of attempts the policy allows.
func (p RetryPolicy) MaxAttempts() int {
	return p.MaxRetries + 1
}

// Delay returns the wait before retry n (1-based): BaseDelay * 2^(n-1).
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	return p.BaseDelay << (n - 1)
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.BaseDelay
	expo.Multiplier = 2
	expo.RandomizationFactor = 0
	expo.MaxInterval = p.BaseDelay << 10
	expo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(expo, uint64(p.MaxRetries)), ctx)
}

// Run calls op until it succeeds, returns a backoff.Permanent error, the
// retry bound is reached, or ctx is done. op receives the 1-based attempt
// number. notify, when non-nil, is called before each wait. Run returns the
// number of attempts made and the last error.
func (p RetryPolicy) Run(
	ctx context.Context,
	op func(attempt int) error,
	notify func(attempt int, err error, wait time.Duration),
) (int, error) {
	attempt := 0
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++
		return op(attempt)
	}

	var onRetry backoff.Notify
	if notify != nil {
		onRetry = func(err error, wait time.Duration) {
			notify(attempt, err, wait)
		}
	}

	err := backoff.RetryNotify(operation, p.backOff(ctx), onRetry)
	return attempt, err
}

// normalize fills in defaults for unset fields.
func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultRetryBaseDelay
	}
	return p
}
