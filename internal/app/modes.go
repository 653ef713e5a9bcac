package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/patternhost/pkg/logging"
)

// runHeadless runs the host without user interaction.
//
// Behavior:
//   - Starts the host and applies the manifest
//   - Logs every lifecycle event at debug level
//   - Blocks until ctx is done or SIGINT/SIGTERM arrives
//   - Hands the final status to onShutdown, if set
//   - Tears the host down
func runHeadless(ctx context.Context, host *Host, onShutdown func(HostStatus)) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("CLI", "Running pattern host. Press Ctrl+C to stop.")

	if err := host.Start(ctx); err != nil {
		logging.Error("CLI", err, "Failed to start host")
		return errors.Join(err, host.Stop())
	}

	eventsCh, cancelEvents := host.Subscribe(64)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for event := range eventsCh {
			logging.Debug("Events", "%s %s: %s", event.Type, event.Reason, event.Message)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Info("CLI", "--- Shutting down pattern host ---")
		if onShutdown != nil {
			onShutdown(host.Status())
		}
		cancelEvents()
		return host.Stop()
	})

	return g.Wait()
}
