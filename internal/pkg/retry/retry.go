package retry

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
)

// Policy is a bounded linear backoff: the wait after attempt n is Step*n.
type Policy struct {
	Attempts int
	Step     time.Duration
}

var DefaultPolicy = Policy{Attempts: 3, Step: 500 * time.Millisecond}

// Retrier runs an operation under a Policy, sleeping on an injected clock.
type Retrier struct {
	clock   clockwork.Clock
	policy  Policy
	onRetry func(attempt int, wait time.Duration, err error)
}

func New(clock clockwork.Clock, policy Policy) *Retrier {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &Retrier{clock: clock, policy: policy}
}

// OnRetry registers a hook called before each backoff wait.
func (r *Retrier) OnRetry(fn func(attempt int, wait time.Duration, err error)) *Retrier {
	r.onRetry = fn
	return r
}

func (r *Retrier) Attempts() int {
	return r.policy.Attempts
}

// Do calls op until it succeeds, returns a non-transient error, or the
// attempts run out. The last error is returned unchanged.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) || attempt == r.policy.Attempts {
			return err
		}

		wait := r.policy.Step * time.Duration(attempt)
		if r.onRetry != nil {
			r.onRetry(attempt, wait, err)
		}
		select {
		case <-r.clock.After(wait):
		case <-ctx.Done():
			return err
		}
	}
	return err
}

// IsTransient reports whether the first classifying error in the chain asks
// for another attempt. Unclassified errors are not retried, except deadlines.
func IsTransient(err error) bool {
	var t interface{ Transient() bool }
	if errors.As(err, &t) {
		return t.Transient()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
