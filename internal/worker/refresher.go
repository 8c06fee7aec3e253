// Package worker keeps the artefacts derived from the expense list (the
// chart asset and the spreadsheet mirror) up to date.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"spendbook/internal/amqp"
	"spendbook/internal/chart"
	"spendbook/internal/core"
	"spendbook/internal/log"
	"spendbook/internal/sheets"
	"spendbook/internal/store"
)

// ChartPublisher renders category totals and stores the image.
type ChartPublisher interface {
	Publish(ctx context.Context, data []core.CategoryAmount) error
}

// Refresher rebuilds derived artefacts from the current list.
type Refresher struct {
	loader store.Loader
	chart  ChartPublisher
	mirror sheets.Mirror

	mu sync.Mutex
}

// NewRefresher wires a refresher. chart and mirror may be nil.
func NewRefresher(loader store.Loader, chart ChartPublisher, mirror sheets.Mirror) *Refresher {
	return &Refresher{loader: loader, chart: chart, mirror: mirror}
}

// Refresh loads the list once and updates the chart and the mirror
// concurrently.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	summary := core.Summarize(list)

	g, gctx := errgroup.WithContext(ctx)
	if r.chart != nil {
		g.Go(func() error {
			err := r.chart.Publish(gctx, summary.ByCategory)
			if errors.Is(err, chart.ErrNoData) && !errors.Is(err, chart.ErrSink) {
				slog.DebugContext(gctx, "No data to plot, chart asset removed")
				return nil
			}
			if err != nil {
				return fmt.Errorf("publish chart: %w", err)
			}
			return nil
		})
	}
	if r.mirror != nil {
		g.Go(func() error {
			if err := r.mirror.Mirror(gctx, list); err != nil {
				return fmt.Errorf("mirror expenses: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Derived artefacts refreshed", workerFields(log.OpRefresh).
		With("count", summary.Count).
		With("total", summary.Total.String()).
		With("categories", len(summary.ByCategory)).ToSlice()...)
	return nil
}

// HandleChanged is the AMQP handler for ExpensesChangedMessage.
func (r *Refresher) HandleChanged(ctx context.Context, msg *amqp.ExpensesChangedMessage) error {
	slog.InfoContext(ctx, "Processing expenses changed message", workerFields(msg.Operation).
		WithPosition(msg.Position).With("count", msg.Count).ToSlice()...)
	return r.Refresh(ctx)
}

// RunPeriodic refreshes immediately and then every interval until ctx is
// done. Individual failures are logged and do not stop the loop.
func (r *Refresher) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid refresh interval: %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "Periodic refresh failed", workerFields(log.OpRefresh).WithError(err).ToSlice()...)
		}

		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Periodic refresh stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func workerFields(op string) log.LogFields {
	return log.NewFields().WithComponent(log.ComponentWorker).WithOperation(op)
}
