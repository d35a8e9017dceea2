package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/storage"
)

// AccountService manages accounts and their variant payloads. Balance
// mutations from posted transactions live in TransactionService; this
// service covers the account lifecycle itself.
type AccountService struct {
	store  *storage.Repository
	events EventPublisher
}

// NewAccountService creates an AccountService. events may be nil.
func NewAccountService(store *storage.Repository, events EventPublisher) *AccountService {
	return &AccountService{store: store, events: events}
}

// Create validates and persists a new account.
func (s *AccountService) Create(ctx context.Context, a core.Account) (core.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Balance = core.Round(a.Balance)
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		var err error
		a, err = q.CreateAccount(ctx, a)
		return err
	})
	if err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "Account created", "id", a.ID, "name", a.Name, "kind", a.Kind)
	publish(ctx, s.events, "account", a.ID, "created")
	return a, nil
}

// Get loads one account owned by the caller.
func (s *AccountService) Get(ctx context.Context, userID, accountID int64) (core.Account, error) {
	return requireAccount(ctx, s.store.Queries, userID, accountID)
}

// List returns every account of the caller.
func (s *AccountService) List(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, userID)
}

// Update persists caller-editable fields of an account.
func (s *AccountService) Update(ctx context.Context, userID int64, a core.Account) error {
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return err
	}
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		if _, err := requireAccount(ctx, q, userID, a.ID); err != nil {
			return err
		}
		return q.UpdateAccount(ctx, a)
	})
	if err != nil {
		return err
	}
	publish(ctx, s.events, "account", a.ID, "updated")
	return nil
}

// Delete removes an account. With deleteLinked set, transactions where the
// account is the sole counterparty are deleted first. Transfers whose other
// side survives are left behind with the deleted side nulled by the schema;
// their balance effect on the surviving account stays in place. That gap is
// inherited behavior, kept on purpose.
func (s *AccountService) Delete(ctx context.Context, userID, accountID int64, deleteLinked bool) error {
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		if _, err := requireAccount(ctx, q, userID, accountID); err != nil {
			return err
		}
		if deleteLinked {
			txs, err := q.ListSoleCounterpartyTransactions(ctx, accountID)
			if err != nil {
				return err
			}
			for _, t := range txs {
				if err := q.DeleteTransaction(ctx, t.ID); err != nil {
					return err
				}
			}
		}
		return q.DeleteAccount(ctx, accountID)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Account deleted", "id", accountID, "linked_cleanup", deleteLinked)
	publish(ctx, s.events, "account", accountID, "deleted")
	return nil
}

// NetWorth sums the balances of every account the caller opted into net
// worth. Loan and borrowing balances count with the sign they carry.
func (s *AccountService) NetWorth(ctx context.Context, userID int64) (decimal.Decimal, error) {
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range accounts {
		if a.InNetWorth {
			total = total.Add(a.Balance)
		}
	}
	return core.Round(total), nil
}
