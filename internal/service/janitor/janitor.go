package janitor

import (
	"context"
	"time"

	"github.com/sandevgo/reportgen/pkg/log"
)

const defaultInterval = 5 * time.Minute

// Sweeper evicts entries that have been idle or cached for too long.
type Sweeper interface {
	Sweep(now time.Time) int
}

// SweepFunc adapts a function to Sweeper.
type SweepFunc func(now time.Time) int

func (f SweepFunc) Sweep(now time.Time) int { return f(now) }

// Janitor periodically sweeps expired sessions and cached records.
type Janitor struct {
	sweepers map[string]Sweeper
	Interval time.Duration
	now      func() time.Time
	done     chan struct{}
}

func New(sweepers map[string]Sweeper) *Janitor {
	return &Janitor{
		sweepers: sweepers,
		Interval: defaultInterval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

func (j *Janitor) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Dur("interval", j.Interval).Msg("starting janitor")

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-j.done:
			return nil
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

func (j *Janitor) Shutdown(ctx context.Context) error {
	select {
	case <-j.done:
	default:
		close(j.done)
	}
	return nil
}

// RunOnce sweeps every registered target and returns the total number of evictions.
func (j *Janitor) RunOnce(ctx context.Context) int {
	logger := log.FromCtx(ctx)
	now := j.now()

	total := 0
	for name, s := range j.sweepers {
		n := s.Sweep(now)
		if n > 0 {
			logger.Debug().Str("target", name).Int("evicted", n).Msg("swept expired entries")
		}
		total += n
	}
	return total
}
