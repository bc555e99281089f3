package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

// instant records requested waits instead of sleeping.
func instant(r *Retrier) *[]time.Duration {
	var waits []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return &waits
}

func TestRetrier_Do(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		failWith  error
		wantCalls int
		wantErr   error
	}{
		{name: "first try", failures: 0, wantCalls: 1},
		{name: "recovers", failures: 2, failWith: errTransient, wantCalls: 3},
		{name: "exhausted", failures: 10, failWith: errTransient, wantCalls: 4, wantErr: errTransient},
		{name: "permanent stops", failures: 10, failWith: Permanent(errTransient), wantCalls: 1, wantErr: errTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Policy{Attempts: 4, Initial: time.Millisecond, Max: time.Second, Factor: 2})
			instant(r)

			calls := 0
			err := r.Do(context.Background(), func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestRetrier_BackoffIsCapped(t *testing.T) {
	r := New(Policy{Attempts: 5, Initial: 100 * time.Millisecond, Max: 300 * time.Millisecond, Factor: 2})
	waits := instant(r)

	_ = r.Do(context.Background(), func(context.Context) error { return errTransient })

	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
		300 * time.Millisecond,
	}, *waits)
}

func TestRetrier_JitterStaysInBounds(t *testing.T) {
	r := New(Policy{Attempts: 20, Initial: 10 * time.Millisecond, Max: 10 * time.Millisecond, Factor: 1, Jitter: 5 * time.Millisecond})
	waits := instant(r)

	_ = r.Do(context.Background(), func(context.Context) error { return errTransient })

	require.Len(t, *waits, 19)
	for _, w := range *waits {
		assert.GreaterOrEqual(t, w, 10*time.Millisecond)
		assert.Less(t, w, 15*time.Millisecond)
	}
}

func TestRetrier_StopsWhenContextDone(t *testing.T) {
	r := New(Policy{Attempts: 10, Initial: time.Hour, Max: time.Hour, Factor: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	start := time.Now()
	err := r.Do(ctx, func(context.Context) error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNew_NormalizesPolicy(t *testing.T) {
	r := New(Policy{})
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
	assert.Nil(t, Permanent(nil))
}
