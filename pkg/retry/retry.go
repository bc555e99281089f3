package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Policy bounds how often and how patiently an operation is repeated.
type Policy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	Factor   float64
	Jitter   time.Duration
}

// StoragePolicy tolerates a database that is still starting up.
func StoragePolicy() Policy {
	return Policy{Attempts: 6, Initial: 300 * time.Millisecond, Max: 20 * time.Second, Factor: 2.15, Jitter: 50 * time.Millisecond}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth another attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type Retrier struct {
	policy Policy
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(p Policy) *Retrier {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.Factor < 1 {
		p.Factor = 1
	}
	return &Retrier{policy: p, sleep: sleepCtx}
}

// Do runs op until it succeeds, returns a Permanent error, the attempts run out
// or ctx is done. The returned error is the last one op produced, unwrapped from
// Permanent.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	delay := r.policy.Initial

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt >= r.policy.Attempts || ctx.Err() != nil {
			return err
		}

		wait := min(delay, r.policy.Max)
		if r.policy.Jitter > 0 {
			wait += rand.N(r.policy.Jitter)
		}
		if serr := r.sleep(ctx, wait); serr != nil {
			return err
		}

		delay = time.Duration(float64(delay) * r.policy.Factor)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
