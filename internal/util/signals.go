package util

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// exit is replaced in tests
var exit = os.Exit

// SetupSignalHandler returns a child of parent that is cancelled on SIGINT or
// SIGTERM. The run sees the cancellation as an interruption and winds down;
// a second signal forces an immediate exit. stop releases the signal handler.
func SetupSignalHandler(parent context.Context, logger *slog.Logger) (ctx context.Context, stop func()) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	released := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig.String())
			cancel()
		case <-released:
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn("received second shutdown signal, forcing exit", "signal", sig.String())
			exit(130)
		case <-released:
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		close(released)
		cancel()
	}
}
