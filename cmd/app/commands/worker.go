package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/outreach/internal/app"
	"github.com/allisson/outreach/internal/config"
)

// RunWorker starts the dispatch worker with graceful shutdown support.
// The worker validates the relay, recovers state left by a previous process
// and then drains the approved queue until SIGINT/SIGTERM. The metrics server
// runs alongside the worker when metrics are enabled.
//
// A relay misconfiguration is fatal: the worker refuses to start rather than
// claim drafts it cannot send.
func RunWorker(ctx context.Context, version string) error {
	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting worker", slog.String("version", version))

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Get dispatch use case from container (this initializes all dependencies)
	dispatchUseCase, err := container.DispatchUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize dispatch worker: %w", err)
	}

	// Get Metrics server from container
	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := dispatchUseCase.Start(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("dispatch worker error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.Start(gctx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			// Stop accepting scrapes once the worker winds down.
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
			defer shutdownCancel()

			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("metrics server shutdown: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("worker stopped")
	return nil
}
