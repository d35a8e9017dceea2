package services

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"tally/internal/amortize"
	"tally/internal/core"
	"tally/internal/storage"
)

// LoanService drives the lifecycle of loan accounts. A loan's balance is
// its outstanding principal, recomputed from the repayment schedule after
// every settled period; it is never spendable cash.
type LoanService struct {
	store  *storage.Repository
	events EventPublisher
}

// NewLoanService creates a LoanService. events may be nil.
func NewLoanService(store *storage.Repository, events EventPublisher) *LoanService {
	return &LoanService{store: store, events: events}
}

// Schedule returns every payment of the loan in period order.
func (s *LoanService) Schedule(ctx context.Context, userID, accountID int64) ([]decimal.Decimal, error) {
	_, loan, err := s.requireLoan(ctx, s.store.Queries, userID, accountID)
	if err != nil {
		return nil, err
	}
	calc, err := amortize.GetCalculator(amortize.RepaymentType(loan.RepaymentType))
	if err != nil {
		return nil, err
	}
	out := make([]decimal.Decimal, loan.TotalPeriods)
	for k := 1; k <= loan.TotalPeriods; k++ {
		out[k-1] = calc.Payment(loan.LoanAmount, loan.AnnualRate, loan.TotalPeriods, k)
	}
	return out, nil
}

// PayNext settles the next repayment period: the payment is optionally
// debited from a funding account, the outstanding principal becomes the new
// balance, and the loan is marked ended once every period is repaid.
func (s *LoanService) PayNext(ctx context.Context, userID, accountID int64, fromAccountID *int64) (decimal.Decimal, error) {
	var payment decimal.Decimal
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		account, loan, err := s.requireLoan(ctx, q, userID, accountID)
		if err != nil {
			return err
		}
		if loan.RepaidPeriods >= loan.TotalPeriods {
			return core.ErrSettled
		}
		calc, err := amortize.GetCalculator(amortize.RepaymentType(loan.RepaymentType))
		if err != nil {
			return err
		}
		payment = calc.Payment(loan.LoanAmount, loan.AnnualRate, loan.TotalPeriods, loan.RepaidPeriods+1)

		if fromAccountID != nil {
			if err := adjustBalance(ctx, q, userID, *fromAccountID, payment.Neg()); err != nil {
				return err
			}
		}

		loan.RepaidPeriods++
		loan.Ended = loan.RepaidPeriods == loan.TotalPeriods
		account.Balance = calc.Remaining(loan.LoanAmount, loan.AnnualRate, loan.TotalPeriods, loan.RepaidPeriods)
		return q.UpdateAccount(ctx, account)
	})
	if err != nil {
		return decimal.Zero, err
	}

	slog.InfoContext(ctx, "Loan period repaid", "account", accountID, "payment", payment.StringFixed(core.Scale))
	publish(ctx, s.events, "account", accountID, "updated")
	return payment, nil
}

// Remaining returns the outstanding principal after the periods repaid so
// far. It is exactly zero once every period is settled.
func (s *LoanService) Remaining(ctx context.Context, userID, accountID int64) (decimal.Decimal, error) {
	_, loan, err := s.requireLoan(ctx, s.store.Queries, userID, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	calc, err := amortize.GetCalculator(amortize.RepaymentType(loan.RepaymentType))
	if err != nil {
		return decimal.Zero, err
	}
	return calc.Remaining(loan.LoanAmount, loan.AnnualRate, loan.TotalPeriods, loan.RepaidPeriods), nil
}

// TotalRepayment returns principal plus every interest portion across the
// whole schedule.
func (s *LoanService) TotalRepayment(ctx context.Context, userID, accountID int64) (decimal.Decimal, error) {
	_, loan, err := s.requireLoan(ctx, s.store.Queries, userID, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return amortize.TotalRepayment(amortize.RepaymentType(loan.RepaymentType), loan.LoanAmount, loan.AnnualRate, loan.TotalPeriods)
}

// requireLoan loads the account, checks ownership and that it is a loan.
// The returned LoanFields pointer aliases the account payload, so mutations
// through it are persisted by UpdateAccount.
func (s *LoanService) requireLoan(ctx context.Context, q *storage.Queries, userID, accountID int64) (core.Account, *core.LoanFields, error) {
	a, err := requireAccount(ctx, q, userID, accountID)
	if err != nil {
		return core.Account{}, nil, err
	}
	if a.Kind != core.KindLoan || a.Loan == nil {
		return core.Account{}, nil, core.ErrKindMismatch
	}
	return a, a.Loan, nil
}
