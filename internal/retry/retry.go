// Package retry runs fallible operations with bounded attempts and exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultAttempts is the total number of invocations when Options.Attempts is unset.
	DefaultAttempts = 3

	// DefaultBaseDelay is the sleep after the first failure; it doubles after each later one.
	DefaultBaseDelay = 500 * time.Millisecond
)

// Options configures Do.
type Options struct {
	// Notify is called after a failed attempt that will be retried, with the
	// 1-based attempt number and the delay before the next attempt.
	Notify func(err error, attempt int, delay time.Duration)

	timer backoff.Timer

	// Attempts is the maximum number of invocations (not retries).
	Attempts int

	// BaseDelay is the first backoff delay. The schedule is BaseDelay * 2^i.
	BaseDelay time.Duration

	// AttemptTimeout bounds a single invocation. Zero means no per-attempt deadline.
	AttemptTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	return o
}

// Permanent marks err as not worth retrying. Do returns the wrapped error immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do invokes op until it succeeds or Options.Attempts invocations have failed.
// After failure i (counting from 0) it sleeps BaseDelay * 2^i on the calling goroutine;
// there is no jitter and no sleep after the final failure. The last error is returned
// unchanged. Cancelling ctx aborts the schedule and returns ctx.Err().
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	opts = opts.withDefaults()

	expo := &backoff.ExponentialBackOff{
		InitialInterval:     opts.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         maxInterval(opts.BaseDelay, opts.Attempts),
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(opts.Attempts-1)), ctx)

	var (
		result  T
		attempt int
	)
	operation := func() error {
		attempt++
		attemptCtx, cancel := attemptContext(ctx, opts.AttemptTimeout)
		defer cancel()

		v, err := op(attemptCtx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		result = v
		return nil
	}
	notify := func(err error, delay time.Duration) {
		if opts.Notify != nil {
			opts.Notify(err, attempt, delay)
		}
	}

	if err := backoff.RetryNotifyWithTimer(operation, policy, notify, opts.timer); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func attemptContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// maxInterval caps the backoff at the largest delay the schedule can reach, so the
// ExponentialBackOff ceiling never shortens a step.
func maxInterval(base time.Duration, attempts int) time.Duration {
	ceiling := base
	for i := 1; i < attempts && ceiling < time.Hour; i++ {
		ceiling *= 2
	}
	return ceiling
}
