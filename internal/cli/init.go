// Package cli provides common CLI initialization utilities shared by
// cmd/spendbook, cmd/spendbook-worker and cmd/spendctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendbook/internal/backend"
	"spendbook/internal/chart"
	"spendbook/internal/config"
	"spendbook/internal/log"
)

// SetupLogger builds the process logger for component at the configured
// level and installs it as the slog default. An unknown level falls back to
// info; Validate reports it separately.
func SetupLogger(level, component string) *log.Logger {
	lvl, _ := config.ParseLogLevel(level)
	cfg := log.DefaultConfig()
	cfg.Level = lvl
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadAndValidateConfig for long-running binaries: it
// exits the process on validation failure.
func MustLoadConfig(logger *log.Logger) *config.Config {
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend builds the store and expense service selected by cfg.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config, publish bool) (*backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !publish {
		bc = bc.WithoutPublisher()
	}

	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", bc.Type, err)
	}
	return res, nil
}

// NewChartPublisher writes the chart to CHART_DIR and, when CHART_BUCKET is
// set, to Cloud Storage.
func NewChartPublisher(ctx context.Context, logger *log.Logger, cfg *config.Config) (*chart.Publisher, error) {
	sinks := []chart.AssetSink{chart.DirSink{Dir: cfg.ChartDir}}
	if cfg.ChartBucket != "" {
		gcs, err := chart.NewGCSSink(ctx, cfg.ChartBucket, cfg.ChartPrefix)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, gcs)
		logger.Info("Chart upload enabled", "bucket", cfg.ChartBucket, "prefix", cfg.ChartPrefix)
	}
	return chart.NewPublisher(chart.BarChartRenderer{}, sinks...), nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has run.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
