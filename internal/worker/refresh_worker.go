// Package worker hosts the background maintenance loop: it keeps budget
// windows current so reads rarely pay the lazy-refresh cost themselves.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/events"
	"tally/internal/services"
)

// RefreshWorker reacts to ledger change events and to a timer by rolling
// expired budget windows forward. The lazy refresh on read stays the source
// of truth; this loop only does the same work earlier.
type RefreshWorker struct {
	budgets *services.BudgetService
}

// New creates a RefreshWorker over the budget service.
func New(budgets *services.BudgetService) *RefreshWorker {
	return &RefreshWorker{budgets: budgets}
}

// HandleChange processes one change event. Only transaction and budget
// changes can make a stale window observable, everything else is ignored.
func (w *RefreshWorker) HandleChange(ctx context.Context, msg *events.ChangeMessage) error {
	switch msg.Entity {
	case "transaction", "budget", "ledger":
	default:
		return nil
	}

	n, err := w.budgets.RefreshExpired(ctx)
	if err != nil {
		return fmt.Errorf("refresh expired budgets: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Refreshed budget windows",
			"count", n, "entity", msg.Entity, "id", msg.ID)
	}
	return nil
}

// RunPeriodic refreshes on a fixed interval until ctx is cancelled. Covers
// deployments without a broker and windows that expire with no traffic.
func (w *RefreshWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := w.budgets.RefreshExpired(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "Periodic budget refresh failed", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "Refreshed budget windows", "count", n)
			}
		}
	}
}
