// Package services implements the ledger engine's operations: posting and
// reversing transactions, category tree surgery, budget tracking, ledger
// lifecycle and installment handling. Every multi-step mutation runs inside
// storage.Repository.ExecTx, so a failure anywhere in an operation leaves
// no partial writes behind.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/core"
	"tally/internal/storage"
)

// Session is the authentication boundary this module consumes. The real
// implementation lives outside; binaries wire a static single-user session.
type Session interface {
	CurrentUserID(ctx context.Context) (int64, error)
	IsLoggedIn(ctx context.Context) bool
}

// StaticSession is a fixed single-user session for local binaries and tests.
type StaticSession struct {
	UserID int64
}

func (s StaticSession) CurrentUserID(context.Context) (int64, error) {
	if s.UserID == 0 {
		return 0, core.ErrNotFound
	}
	return s.UserID, nil
}

func (s StaticSession) IsLoggedIn(context.Context) bool { return s.UserID != 0 }

// EventPublisher broadcasts a committed change to interested consumers.
// Publishing is best-effort: services log failures and never fail the
// operation over them.
type EventPublisher interface {
	PublishChange(ctx context.Context, entity string, id int64, action string) error
}

// publish fires a change event after a successful commit.
func publish(ctx context.Context, events EventPublisher, entity string, id int64, action string) {
	if events == nil {
		return
	}
	if err := events.PublishChange(ctx, entity, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"entity", entity, "id", id, "action", action, "error", err)
	}
}

// requireLedger loads a ledger and verifies ownership. Foreign ledgers are
// indistinguishable from missing ones.
func requireLedger(ctx context.Context, q *storage.Queries, userID, ledgerID int64) (core.Ledger, error) {
	l, err := q.GetLedger(ctx, ledgerID)
	if err != nil {
		return core.Ledger{}, err
	}
	if l.OwnerID != userID {
		return core.Ledger{}, core.ErrNotFound
	}
	return l, nil
}

// requireAccount loads an account and verifies ownership.
func requireAccount(ctx context.Context, q *storage.Queries, userID, accountID int64) (core.Account, error) {
	a, err := q.GetAccount(ctx, accountID)
	if err != nil {
		return core.Account{}, err
	}
	if a.OwnerID != userID {
		return core.Account{}, core.ErrNotFound
	}
	return a, nil
}

// requireCategory loads a ledger category and verifies, through its ledger,
// that it belongs to the caller.
func requireCategory(ctx context.Context, q *storage.Queries, userID, categoryID int64) (core.LedgerCategory, error) {
	c, err := q.GetLedgerCategory(ctx, categoryID)
	if err != nil {
		return core.LedgerCategory{}, err
	}
	if _, err := requireLedger(ctx, q, userID, c.LedgerID); err != nil {
		return core.LedgerCategory{}, fmt.Errorf("category ledger: %w", err)
	}
	return c, nil
}
