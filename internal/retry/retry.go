// Package retry runs an operation under a fixed-delay retry policy.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultDelay       = time.Second
)

// Policy describes how many times an operation may be attempted and how long
// to wait between attempts. The delay is constant: no growth, no jitter.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPolicy returns the 3 attempts / 1s policy.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// Operation is one attempt. attempt starts at 1.
type Operation func(ctx context.Context, attempt int) error

// Permanent marks err as not worth retrying; Do returns it immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a Permanent error, the policy's
// attempt budget is spent, or ctx is done. The first attempt always runs.
// It returns the number of attempts made and the last error (nil on success).
func Do(ctx context.Context, p Policy, op Operation) (int, error) {
	p = p.normalized()

	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	b = backoff.WithContext(b, ctx)

	attempts := 0
	var last error
	err := backoff.Retry(func() error {
		attempts++
		last = op(ctx, attempts)
		return last
	}, b)
	if err == nil {
		return attempts, nil
	}

	// A cancelled wait surfaces as the bare context error; keep the last
	// attempt's reason alongside it.
	if cerr := ctx.Err(); cerr != nil && errors.Is(err, cerr) && last != nil && !errors.Is(last, cerr) {
		return attempts, errors.Join(last, err)
	}
	return attempts, err
}
