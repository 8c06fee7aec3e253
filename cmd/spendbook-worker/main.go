package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendbook/internal/amqp"
	"spendbook/internal/cli"
	"spendbook/internal/log"
	"spendbook/internal/sheets"
	gsheet "spendbook/internal/sheets/google"
	"spendbook/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting spendbook-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.MustLoadConfig(logger)

	// The worker reads the list; it never publishes change events itself.
	res, err := cli.OpenBackend(context.Background(), logger, cfg, false)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer res.Cleanup()

	charts, err := cli.NewChartPublisher(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize chart publisher", log.FieldError, err)
		os.Exit(1)
	}
	defer charts.Close()

	// Google Sheets mirror is optional
	var mirror sheets.Mirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	refresher := worker.NewRefresher(res.Store, charts, mirror)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)
	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeExpensesChanged(gctx, refresher.HandleChanged)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled - relying on periodic refresh only")
	}

	g.Go(func() error {
		return refresher.RunPeriodic(gctx, cfg.RefreshInterval)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
