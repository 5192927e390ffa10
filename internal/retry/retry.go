// Package retry runs an operation under a bounded, fixed-delay retry policy.
package retry

import (
	"context"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Policy bounds an operation to Attempts tries spaced by Delay.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Default mirrors the catalog client defaults: three attempts one second apart.
var Default = Policy{Attempts: 3, Delay: time.Second}

// Once runs the operation a single time.
var Once = Policy{Attempts: 1}

func (p Policy) backoff() goretry.Backoff {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay
	if delay <= 0 {
		delay = time.Millisecond
	}
	return goretry.WithMaxRetries(uint64(attempts-1), goretry.NewConstant(delay))
}

// Do runs op until it succeeds, returns an error isRetryable rejects, the
// attempts are exhausted or ctx is done. The last error from op is returned.
func Do[T any](ctx context.Context, p Policy, isRetryable func(error) bool, op func(context.Context) (T, error)) (T, error) {
	return goretry.DoValue(ctx, p.backoff(), func(ctx context.Context) (T, error) {
		v, err := op(ctx)
		if err != nil && isRetryable != nil && isRetryable(err) {
			return v, goretry.RetryableError(err)
		}
		return v, err
	})
}
