package retry

import (
	"context"
	"time"
)

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper backed by a timer
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs op under the policy until it succeeds, fails permanently or
// runs out of attempts. The returned machine is always terminal; callers
// inspect Kind and Attempts to classify the outcome.
func Do(ctx context.Context, p Policy, sleep Sleeper, retryable func(error) bool, op func(ctx context.Context) error) *Machine {
	if sleep == nil {
		sleep = Sleep
	}
	m := NewMachine(p)
	for {
		// Begin cannot fail here: the loop only reaches it from Idle or Waiting
		_ = m.Begin()

		err := op(ctx)
		if err == nil {
			_ = m.Succeed()
			return m
		}

		d, _ := m.Fail(err, retryable(err))
		if m.Done() {
			return m
		}

		if err := sleep(ctx, d); err != nil {
			_ = m.Cancel(err)
			return m
		}
	}
}
