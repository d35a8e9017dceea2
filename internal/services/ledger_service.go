package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"tally/internal/core"
	"tally/internal/storage"
)

// LedgerService owns the ledger lifecycle. Creating a ledger also copies
// the global template taxonomy and seeds its zero-amount budgets; deleting
// one first undoes the balance effect of every transaction it holds.
type LedgerService struct {
	store  *storage.Repository
	events EventPublisher
	now    func() time.Time
}

// NewLedgerService creates a LedgerService. events may be nil.
func NewLedgerService(store *storage.Repository, events EventPublisher) *LedgerService {
	return &LedgerService{store: store, events: events, now: time.Now}
}

// Create inserts the ledger, copies the template category tree into it and
// seeds one zero budget per period for the ledger and for every expense
// category, all in one unit of work.
func (s *LedgerService) Create(ctx context.Context, userID int64, name, notes string) (core.Ledger, error) {
	l := core.Ledger{OwnerID: userID, Name: strings.TrimSpace(name), Notes: notes}
	if err := l.Validate(); err != nil {
		return core.Ledger{}, err
	}

	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		var err error
		if l, err = q.CreateLedger(ctx, l); err != nil {
			return err
		}
		cats, err := copyTemplateTree(ctx, q, l.ID)
		if err != nil {
			return err
		}
		return seedLedgerBudgets(ctx, q, l.ID, cats, s.now())
	})
	if err != nil {
		return core.Ledger{}, err
	}

	slog.InfoContext(ctx, "Ledger created", "id", l.ID, "name", l.Name, "owner", userID)
	publish(ctx, s.events, "ledger", l.ID, "created")
	return l, nil
}

// Delete reverses the balance effect of every transaction in the ledger
// against the accounts as they are loaded today, deletes the rows and then
// the ledger itself (categories and budgets cascade with it).
//
// The reversal is only correct when no other ledger touched the same
// accounts between creation and deletion; that limitation is inherited
// deliberately.
func (s *LedgerService) Delete(ctx context.Context, userID, ledgerID int64) error {
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		if _, err := requireLedger(ctx, q, userID, ledgerID); err != nil {
			return err
		}
		txs, err := q.ListLedgerTransactions(ctx, ledgerID)
		if err != nil {
			return err
		}
		for _, t := range txs {
			if err := reverseEffect(ctx, q, userID, t); err != nil {
				return err
			}
			if err := q.DeleteTransaction(ctx, t.ID); err != nil {
				return err
			}
		}
		return q.DeleteLedger(ctx, ledgerID)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Ledger deleted", "id", ledgerID, "owner", userID)
	publish(ctx, s.events, "ledger", ledgerID, "deleted")
	return nil
}

// Get loads one ledger owned by the caller.
func (s *LedgerService) Get(ctx context.Context, userID, ledgerID int64) (core.Ledger, error) {
	return requireLedger(ctx, s.store.Queries, userID, ledgerID)
}

// List returns every ledger of the caller.
func (s *LedgerService) List(ctx context.Context, userID int64) ([]core.Ledger, error) {
	return s.store.ListLedgers(ctx, userID)
}
