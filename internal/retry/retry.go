// Package retry runs store operations with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/logger"
)

type Options struct {
	Attempts      int
	BaseDelay     time.Duration
	MaxJitter     time.Duration
	MaxTotalDelay time.Duration

	// Classify decides whether an error is worth another attempt.
	Classify func(error) bool
	// Sleep waits between attempts; it must return early when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
	// Jitter returns a random duration in [0, max).
	Jitter func(max time.Duration) time.Duration
}

type Option func(*Options)

func WithAttempts(n int) Option {
	return func(o *Options) { o.Attempts = n }
}

func WithBaseDelay(d time.Duration) Option {
	return func(o *Options) { o.BaseDelay = d }
}

func WithMaxJitter(d time.Duration) Option {
	return func(o *Options) { o.MaxJitter = d }
}

func WithMaxTotalDelay(d time.Duration) Option {
	return func(o *Options) { o.MaxTotalDelay = d }
}

func WithClassifier(fn func(error) bool) Option {
	return func(o *Options) { o.Classify = fn }
}

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Options) { o.Sleep = fn }
}

func WithJitter(fn func(max time.Duration) time.Duration) Option {
	return func(o *Options) { o.Jitter = fn }
}

// DefaultOptions returns the policy from constants.
func DefaultOptions() Options {
	return Options{
		Attempts:      constants.RetryAttempts,
		BaseDelay:     constants.RetryBaseDelay,
		MaxJitter:     constants.RetryMaxJitter,
		MaxTotalDelay: constants.RetryMaxTotalDelay,
		Classify:      IsTransient,
		Sleep:         sleepContext,
		Jitter:        randomJitter,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}

// Backoff returns the delay before attempt+1, where attempt counts from 1.
func (o Options) Backoff(attempt int) time.Duration {
	d := o.BaseDelay << (attempt - 1)
	if o.Jitter != nil && o.MaxJitter > 0 {
		d += o.Jitter(o.MaxJitter)
	}
	return d
}

// Do calls op until it succeeds, fails permanently, or runs out of attempts.
// Non-transient errors come back as *PermanentError after a single call;
// exhausted retries come back as *TransientError.
func Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) error {
	_, err := Value(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts...)
	return err
}

// Value is Do for operations that return a result.
func Value[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Attempts < 1 {
		o.Attempts = 1
	}
	if o.Classify == nil {
		o.Classify = IsTransient
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}

	var zero T
	var slept time.Duration
	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		if !o.Classify(err) {
			var perm *PermanentError
			if errors.As(err, &perm) {
				return zero, err
			}
			return zero, &PermanentError{Err: err}
		}
		if attempt >= o.Attempts {
			return zero, &TransientError{Attempts: attempt, Err: err}
		}

		delay := o.Backoff(attempt)
		if o.MaxTotalDelay > 0 && slept+delay > o.MaxTotalDelay {
			delay = o.MaxTotalDelay - slept
			if delay <= 0 {
				return zero, &TransientError{Attempts: attempt, Err: err}
			}
		}

		logger.Debug("Retrying transient failure", "attempt", attempt, "delay", delay, "error", err)
		if serr := o.Sleep(ctx, delay); serr != nil {
			return zero, &TransientError{Attempts: attempt, Err: err}
		}
		slept += delay
	}
}
