package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType discriminates the three transaction variants.
type TransactionType string

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

// Transaction is a single value movement inside a ledger. Exactly one of
// FromAccountID (expense), ToAccountID (income) or both (transfer) is set
// at creation; a reference may later become nil when the account on that
// side is deleted.
type Transaction struct {
	ID            int64
	LedgerID      int64
	Type          TransactionType
	Amount        decimal.Decimal
	Date          time.Time
	Note          string
	CategoryID    *int64
	FromAccountID *int64
	ToAccountID   *int64
}

// Validate rejects malformed transactions before any balance is touched.
func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(t.Note) > 200 {
		return ErrNameTooLong
	}
	switch t.Type {
	case Income:
		if t.ToAccountID == nil {
			return ErrMissingAccount
		}
	case Expense:
		if t.FromAccountID == nil {
			return ErrMissingAccount
		}
	case Transfer:
		if t.FromAccountID == nil || t.ToAccountID == nil {
			return ErrMissingAccount
		}
		if *t.FromAccountID == *t.ToAccountID {
			return ErrSameAccount
		}
	default:
		return ErrUnknownKind
	}
	return nil
}

// Effect returns the signed balance change this transaction causes on the
// given account: positive for money flowing in, negative for money flowing
// out, zero when the account does not participate.
func (t Transaction) Effect(accountID int64) decimal.Decimal {
	out := decimal.Zero
	if t.FromAccountID != nil && *t.FromAccountID == accountID {
		out = out.Sub(t.Amount)
	}
	if t.ToAccountID != nil && *t.ToAccountID == accountID {
		out = out.Add(t.Amount)
	}
	return out
}

// Ledger is a named container of transactions, categories and budgets
// owned by one user.
type Ledger struct {
	ID      int64
	OwnerID int64
	Name    string
	Notes   string
}

// Validate checks the ledger name.
func (l Ledger) Validate() error {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > 64 {
		return ErrNameTooLong
	}
	return nil
}

// User is the owner of ledgers and accounts. Authentication is handled
// outside this module.
type User struct {
	ID       int64
	Username string
}
