package srv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/reportgen/pkg/log"
	"golang.org/x/sync/errgroup"
)

// Service is a long-lived component. Start may block until ctx is done or return
// right away after spawning its own goroutines.
type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

const DefaultShutdownTimeout = 10 * time.Second

// Run starts every service and blocks until ctx is done or one of them fails to
// start. Services are then shut down in reverse order within timeout.
func Run(ctx context.Context, timeout time.Duration, services ...Service) error {
	logger := log.FromCtx(ctx)
	g, gctx := errgroup.WithContext(ctx)

	for _, s := range services {
		g.Go(func() error {
			if err := s.Start(gctx); err != nil {
				return fmt.Errorf("%T failed to start: %w", s, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Int("services", len(services)).Msg("shutting down")

		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		var errs []error
		for i := len(services) - 1; i >= 0; i-- {
			if err := services[i].Shutdown(sctx); err != nil {
				logger.Error().Err(err).Msgf("%T failed to shutdown", services[i])
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

type cleanupService struct {
	cleanup func() error
}

func (c *cleanupService) Start(context.Context) error { return nil }

func (c *cleanupService) Shutdown(context.Context) error {
	if c.cleanup != nil {
		return c.cleanup()
	}
	return nil
}

// Cleanup wraps fn as a service that only acts on shutdown. Place it first so it
// runs after everything that depends on it has stopped.
func Cleanup(fn func() error) Service {
	return &cleanupService{cleanup: fn}
}
