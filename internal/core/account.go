package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind discriminates the account variants. Balance semantics are
// kind-specific: a loan's balance is outstanding debt, not spendable cash.
// Callers must dispatch on Kind and never assume one numeric meaning.
type AccountKind string

const (
	KindBasic     AccountKind = "basic"
	KindCredit    AccountKind = "credit"
	KindLoan      AccountKind = "loan"
	KindLending   AccountKind = "lending"
	KindBorrowing AccountKind = "borrowing"
)

type (
	// Account is the common record shared by every variant. Exactly one
	// of the payload pointers is set for non-basic kinds.
	Account struct {
		ID         int64
		OwnerID    int64
		Name       string
		Kind       AccountKind
		Balance    decimal.Decimal
		InNetWorth bool
		Hidden     bool
		Notes      string

		Credit *CreditFields
		Loan   *LoanFields
		Party  *PartyFields
	}

	// CreditFields extends a credit-card account. BillDay and DueDay are
	// days of month (1-31), zero when unset.
	CreditFields struct {
		CreditLimit decimal.Decimal
		CurrentDebt decimal.Decimal
		BillDay     int
		DueDay      int
	}

	// LoanFields extends a loan account. AnnualRate is a fraction
	// (0.05 = 5%), not a percentage.
	LoanFields struct {
		LoanAmount    decimal.Decimal
		AnnualRate    decimal.Decimal
		TotalPeriods  int
		RepaidPeriods int
		RepaymentDay  int
		RepaymentType string
		Ended         bool
	}

	// PartyFields extends lending and borrowing accounts with the
	// counterparty position.
	PartyFields struct {
		Amount    decimal.Decimal
		Remaining decimal.Decimal
		Date      time.Time
		Ended     bool
	}
)

// CreditBalance adds amount to the balance. The sign of the result is
// unconstrained: overdraft is permitted here, business sanity checks (credit
// limit and the like) belong to the caller.
func (a *Account) CreditBalance(amount decimal.Decimal) {
	a.Balance = Round(a.Balance.Add(amount))
}

// DebitBalance subtracts amount from the balance.
func (a *Account) DebitBalance(amount decimal.Decimal) {
	a.Balance = Round(a.Balance.Sub(amount))
}

// IncurDebt raises a credit account's current debt. Debt is tracked
// independently of the balance; callers choose which field an operation
// touches. No-op for non-credit accounts.
func (a *Account) IncurDebt(amount decimal.Decimal) {
	if a.Credit == nil {
		return
	}
	a.Credit.CurrentDebt = Round(a.Credit.CurrentDebt.Add(amount))
}

// RepayDebt lowers a credit account's current debt.
func (a *Account) RepayDebt(amount decimal.Decimal) {
	if a.Credit == nil {
		return
	}
	a.Credit.CurrentDebt = Round(a.Credit.CurrentDebt.Sub(amount))
}

// Validate checks the invariants every account variant shares.
func (a Account) Validate() error {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > 64 {
		return ErrNameTooLong
	}
	switch a.Kind {
	case KindBasic, KindCredit, KindLoan, KindLending, KindBorrowing:
	default:
		return ErrUnknownKind
	}
	if a.Credit != nil {
		if d := a.Credit.BillDay; d < 0 || d > 31 {
			return ErrInvalidDate
		}
		if d := a.Credit.DueDay; d < 0 || d > 31 {
			return ErrInvalidDate
		}
	}
	return nil
}
