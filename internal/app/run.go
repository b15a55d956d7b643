// Package app runs a process until it returns or receives SIGINT/SIGTERM.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

type Runner func(ctx context.Context) error

// DefaultGracePeriod bounds how long Run waits for the runner after a signal.
const DefaultGracePeriod = 15 * time.Second

// Run returns the process exit code.
func Run(serviceName string, logger zerolog.Logger, run Runner) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runContext(ctx, serviceName, logger, DefaultGracePeriod, run)
}

func runContext(ctx context.Context, serviceName string, logger zerolog.Logger, grace time.Duration, run Runner) int {
	logger = logger.With().Str("service", serviceName).Logger()
	logger.Info().Msg("starting")

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx) }()

	select {
	case err := <-errCh:
		return exitCode(logger, err)
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	}

	select {
	case err := <-errCh:
		return exitCode(logger, err)
	case <-time.After(grace):
		logger.Error().Dur("grace", grace).Msg("runner did not stop in time")
		return 1
	}
}

func exitCode(logger zerolog.Logger, err error) int {
	if err != nil {
		logger.Error().Err(err).Msg("failed")
		return 1
	}
	logger.Info().Msg("stopped")
	return 0
}
