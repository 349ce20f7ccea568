package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/poco-ai/poco-console/internals/conf"
	"github.com/poco-ai/poco-console/internals/env"
	"github.com/poco-ai/poco-console/internals/logging"
	"github.com/poco-ai/poco-console/internals/timeouts"
)

// Run loads env and config, sets up logging under the data dir and serves
// until ctx is cancelled or a client calls POST /shutdown.
func Run(ctx context.Context) error {
	envs := env.Get()
	config := conf.GetConfig()
	if err := os.MkdirAll(config.Server.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger, logFile, err := logging.Init(config.Server.DataDir, logging.ParseLevel(envs.LOG_LEVEL))
	if err != nil {
		return err
	}
	defer logFile.Close()

	srv, err := New(ctx, config, envs, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if closeErr := srv.Close(); closeErr != nil {
			logger.Error("Failed to close store", slog.Any("error", closeErr))
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down", slog.String("reason", context.Cause(ctx).Error()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}
