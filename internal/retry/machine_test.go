package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRateLimited = errors.New("429 too many requests")

func isRateLimited(err error) bool {
	return errors.Is(err, errRateLimited)
}

// recordingSleeper captures waits instead of blocking
type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{MaxAttempts: 6, BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	tests := []struct {
		n    int
		want time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{10, 5 * time.Second},
		{0, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Delay(tt.n), "delay after attempt %d", tt.n)
	}
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy.Validate())
	assert.Error(t, Policy{MaxAttempts: 0}.Validate())
	assert.Error(t, Policy{MaxAttempts: 1, BaseDelay: -time.Second}.Validate())
	assert.Error(t, Policy{MaxAttempts: 1, BaseDelay: time.Minute, MaxDelay: time.Second}.Validate())
}

func TestMachineTransitions(t *testing.T) {
	t.Run("starts idle", func(t *testing.T) {
		m := NewMachine(DefaultPolicy)
		assert.Equal(t, Idle, m.State())
		assert.False(t, m.Done())
	})

	t.Run("success path", func(t *testing.T) {
		m := NewMachine(DefaultPolicy)
		require.NoError(t, m.Begin())
		assert.Equal(t, Attempting, m.State())
		require.NoError(t, m.Succeed())
		assert.Equal(t, Succeeded, m.State())
		assert.Equal(t, 1, m.Attempts())
		assert.True(t, m.Done())
	})

	t.Run("retryable failure waits", func(t *testing.T) {
		m := NewMachine(DefaultPolicy)
		require.NoError(t, m.Begin())
		d, err := m.Fail(errRateLimited, true)
		require.NoError(t, err)
		assert.Equal(t, Waiting, m.State())
		assert.Equal(t, DefaultPolicy.BaseDelay, d)
		require.NoError(t, m.Begin())
		assert.Equal(t, 2, m.Attempts())
	})

	t.Run("permanent failure", func(t *testing.T) {
		m := NewMachine(DefaultPolicy)
		require.NoError(t, m.Begin())
		_, err := m.Fail(errors.New("boom"), false)
		require.NoError(t, err)
		assert.Equal(t, Failed, m.State())
		assert.Equal(t, Permanent, m.Kind())
		assert.EqualError(t, m.Err(), "boom")
	})

	t.Run("invalid transitions", func(t *testing.T) {
		m := NewMachine(DefaultPolicy)
		assert.ErrorIs(t, m.Succeed(), ErrInvalidTransition)
		_, err := m.Fail(errRateLimited, true)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.ErrorIs(t, m.Cancel(context.Canceled), ErrInvalidTransition)

		require.NoError(t, m.Begin())
		assert.ErrorIs(t, m.Begin(), ErrInvalidTransition)
		require.NoError(t, m.Succeed())
		assert.ErrorIs(t, m.Begin(), ErrInvalidTransition)
	})
}

func TestDo(t *testing.T) {
	policy := Policy{MaxAttempts: 4, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}

	t.Run("N rate limits then success makes N+1 calls", func(t *testing.T) {
		for n := 0; n < policy.MaxAttempts; n++ {
			calls := 0
			sleeper := &recordingSleeper{}
			m := Do(context.Background(), policy, sleeper.Sleep, isRateLimited, func(context.Context) error {
				calls++
				if calls <= n {
					return errRateLimited
				}
				return nil
			})

			assert.Equal(t, Succeeded, m.State())
			assert.Equal(t, n+1, calls)
			assert.Equal(t, n+1, m.Attempts())
			assert.Len(t, sleeper.waits, n)
			assert.Equal(t, sleeper.waits, m.Waits())
			for i := 1; i < len(sleeper.waits); i++ {
				assert.Greater(t, sleeper.waits[i], sleeper.waits[i-1], "waits must strictly increase")
			}
		}
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		calls := 0
		sleeper := &recordingSleeper{}
		m := Do(context.Background(), policy, sleeper.Sleep, isRateLimited, func(context.Context) error {
			calls++
			return errRateLimited
		})

		assert.Equal(t, Failed, m.State())
		assert.Equal(t, Exhausted, m.Kind())
		assert.Equal(t, policy.MaxAttempts, calls)
		assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, sleeper.waits)
		assert.ErrorIs(t, m.Err(), errRateLimited)
	})

	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		calls := 0
		sleeper := &recordingSleeper{}
		m := Do(context.Background(), policy, sleeper.Sleep, isRateLimited, func(context.Context) error {
			calls++
			return errors.New("symbol not found")
		})

		assert.Equal(t, Permanent, m.Kind())
		assert.Equal(t, 1, calls)
		assert.Empty(t, sleeper.waits)
	})

	t.Run("context cancelled while waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		m := Do(ctx, policy, Sleep, isRateLimited, func(context.Context) error {
			calls++
			return errRateLimited
		})

		assert.Equal(t, Canceled, m.Kind())
		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, m.Err(), context.Canceled)
	})

	t.Run("real sleeper waits", func(t *testing.T) {
		fast := Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
		calls := 0
		m := Do(context.Background(), fast, nil, isRateLimited, func(context.Context) error {
			calls++
			if calls == 1 {
				return errRateLimited
			}
			return nil
		})
		assert.Equal(t, Succeeded, m.State())
		assert.Equal(t, 2, calls)
	})
}
