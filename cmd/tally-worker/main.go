// Command tally-worker keeps budget windows fresh in the background: it
// consumes ledger change events from AMQP and runs a periodic sweep, so
// reads rarely hit a stale window.
package main

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"tally/internal/cli"
	"tally/internal/events"
	"tally/internal/services"
	"tally/internal/worker"
)

func main() {
	cfg := cli.Bootstrap("tally-worker")

	repo := cli.OpenStorage(cfg)
	defer repo.Close()

	eventsClient := cli.ConnectEvents(cfg)
	if eventsClient != nil {
		defer eventsClient.Close()
	}

	ctx, cancel := cli.SignalContext()
	defer cancel()

	budgets := services.NewBudgetService(repo, nil)
	w := worker.New(budgets)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.RunPeriodic(ctx, cfg.RefreshInterval)
	})
	if eventsClient != nil {
		g.Go(func() error {
			return eventsClient.Consume(ctx, func(msg *events.ChangeMessage) error {
				return w.HandleChange(ctx, msg)
			})
		})
	}

	slog.Info("Worker started", "interval", cfg.RefreshInterval, "events", eventsClient != nil)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Worker stopped", "error", err)
		return
	}
	slog.Info("Worker shut down")
}
