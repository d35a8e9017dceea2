package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/storage"
)

// TransactionService posts transactions against account balances and is the
// only place that mutates them. Every effect it applies it can reverse
// exactly, which is what edit, delete and the ledger reversal cascade build
// on.
type TransactionService struct {
	store  *storage.Repository
	events EventPublisher
}

// NewTransactionService creates a TransactionService. events may be nil.
func NewTransactionService(store *storage.Repository, events EventPublisher) *TransactionService {
	return &TransactionService{store: store, events: events}
}

// TransactionParams carries the caller-supplied fields of a transaction.
type TransactionParams struct {
	Type          core.TransactionType
	Amount        decimal.Decimal
	Date          time.Time
	Note          string
	CategoryID    *int64
	FromAccountID *int64
	ToAccountID   *int64
}

// Create validates, applies the balance effect and persists the transaction
// in one unit of work. Income credits the target, expense debits the
// source, transfer debits the source then credits the target.
func (s *TransactionService) Create(ctx context.Context, userID, ledgerID int64, p TransactionParams) (core.Transaction, error) {
	t := core.Transaction{
		LedgerID:      ledgerID,
		Type:          p.Type,
		Amount:        core.Round(p.Amount),
		Date:          p.Date,
		Note:          p.Note,
		CategoryID:    p.CategoryID,
		FromAccountID: p.FromAccountID,
		ToAccountID:   p.ToAccountID,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		if _, err := requireLedger(ctx, q, userID, ledgerID); err != nil {
			return err
		}
		if err := applyEffect(ctx, q, userID, t); err != nil {
			return err
		}
		var err error
		t, err = q.CreateTransaction(ctx, t)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction posted",
		"id", t.ID, "ledger", t.LedgerID, "type", t.Type, "amount", t.Amount.StringFixed(core.Scale))
	publish(ctx, s.events, "transaction", t.ID, "created")
	return t, nil
}

// Edit reverses the old balance effect, applies the new one and updates the
// row, all inside one unit of work.
func (s *TransactionService) Edit(ctx context.Context, userID, txID int64, p TransactionParams) (core.Transaction, error) {
	var updated core.Transaction
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, txID)
		if err != nil {
			return err
		}
		if _, err := requireLedger(ctx, q, userID, old.LedgerID); err != nil {
			return err
		}

		updated = core.Transaction{
			ID:            old.ID,
			LedgerID:      old.LedgerID,
			Type:          p.Type,
			Amount:        core.Round(p.Amount),
			Date:          p.Date,
			Note:          p.Note,
			CategoryID:    p.CategoryID,
			FromAccountID: p.FromAccountID,
			ToAccountID:   p.ToAccountID,
		}
		if err := updated.Validate(); err != nil {
			return err
		}

		if err := reverseEffect(ctx, q, userID, old); err != nil {
			return err
		}
		if err := applyEffect(ctx, q, userID, updated); err != nil {
			return err
		}
		return q.UpdateTransaction(ctx, updated)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	publish(ctx, s.events, "transaction", txID, "updated")
	return updated, nil
}

// Delete reverses the balance effect and removes the row.
func (s *TransactionService) Delete(ctx context.Context, userID, txID int64) error {
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		t, err := q.GetTransaction(ctx, txID)
		if err != nil {
			return err
		}
		if _, err := requireLedger(ctx, q, userID, t.LedgerID); err != nil {
			return err
		}
		if err := reverseEffect(ctx, q, userID, t); err != nil {
			return err
		}
		return q.DeleteTransaction(ctx, t.ID)
	})
	if err != nil {
		return err
	}
	publish(ctx, s.events, "transaction", txID, "deleted")
	return nil
}

// applyEffect mutates the participating account balances: debit the source
// first, then credit the target. Sides whose account reference was nulled
// by an earlier account deletion are skipped.
func applyEffect(ctx context.Context, q *storage.Queries, userID int64, t core.Transaction) error {
	if t.FromAccountID != nil {
		if err := adjustBalance(ctx, q, userID, *t.FromAccountID, t.Amount.Neg()); err != nil {
			return fmt.Errorf("debit source account: %w", err)
		}
	}
	if t.ToAccountID != nil {
		if err := adjustBalance(ctx, q, userID, *t.ToAccountID, t.Amount); err != nil {
			return fmt.Errorf("credit target account: %w", err)
		}
	}
	return nil
}

// reverseEffect is the exact inverse of applyEffect against the currently
// loaded account state: credit the source back, then debit the target.
func reverseEffect(ctx context.Context, q *storage.Queries, userID int64, t core.Transaction) error {
	if t.FromAccountID != nil {
		if err := adjustBalance(ctx, q, userID, *t.FromAccountID, t.Amount); err != nil {
			return fmt.Errorf("credit source account: %w", err)
		}
	}
	if t.ToAccountID != nil {
		if err := adjustBalance(ctx, q, userID, *t.ToAccountID, t.Amount.Neg()); err != nil {
			return fmt.Errorf("debit target account: %w", err)
		}
	}
	return nil
}

func adjustBalance(ctx context.Context, q *storage.Queries, userID, accountID int64, delta decimal.Decimal) error {
	a, err := requireAccount(ctx, q, userID, accountID)
	if err != nil {
		return err
	}
	a.CreditBalance(delta)
	return q.UpdateAccount(ctx, a)
}
