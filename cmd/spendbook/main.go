package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendbook/internal/cli"
	apphttp "spendbook/internal/http"
	"spendbook/internal/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.MustLoadConfig(logger)

	res, err := cli.OpenBackend(context.Background(), logger, cfg, true)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	charts, err := cli.NewChartPublisher(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize chart publisher", log.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, res.Service, charts, charts.Cache(), logger)
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := charts.Close(); err != nil {
			logger.Error("Chart publisher close error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting spendbook server", log.FieldOperation, log.OpStartup, "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
