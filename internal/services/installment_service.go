package services

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"tally/internal/amortize"
	"tally/internal/core"
	"tally/internal/storage"
)

// InstallmentService manages installment plans on credit accounts. Payment
// amounts come from the amortize strategies; the plan row only tracks how
// many periods are settled.
type InstallmentService struct {
	store  *storage.Repository
	events EventPublisher
}

// NewInstallmentService creates an InstallmentService. events may be nil.
func NewInstallmentService(store *storage.Repository, events EventPublisher) *InstallmentService {
	return &InstallmentService{store: store, events: events}
}

// Create validates and persists a plan on a credit account. When the plan
// is included in current debt, the full obligation is added to the
// account's debt up front.
func (s *InstallmentService) Create(ctx context.Context, userID int64, p core.InstallmentPlan) (core.InstallmentPlan, error) {
	p.TotalAmount = core.Round(p.TotalAmount)
	p.Fee = core.Round(p.Fee)
	if err := p.Validate(); err != nil {
		return core.InstallmentPlan{}, err
	}
	if _, err := amortize.GetSplitter(amortize.Strategy(p.Strategy)); err != nil {
		return core.InstallmentPlan{}, err
	}

	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		a, err := requireAccount(ctx, q, userID, p.AccountID)
		if err != nil {
			return err
		}
		if a.Kind != core.KindCredit || a.Credit == nil {
			return core.ErrKindMismatch
		}
		if p.IncludeInDebt {
			a.IncurDebt(amortize.TotalPayment(p.TotalAmount, p.Fee))
			if err := q.UpdateAccount(ctx, a); err != nil {
				return err
			}
		}
		p, err = q.CreateInstallmentPlan(ctx, p)
		return err
	})
	if err != nil {
		return core.InstallmentPlan{}, err
	}

	slog.InfoContext(ctx, "Installment plan created",
		"id", p.ID, "account", p.AccountID, "strategy", p.Strategy, "periods", p.TotalPeriods)
	publish(ctx, s.events, "installment_plan", p.ID, "created")
	return p, nil
}

// PayNext settles the next period: the payment is computed by the plan's
// strategy, optionally debited from a funding account, subtracted from the
// credit account's debt when the plan counts toward it, and the paid
// counter advances.
func (s *InstallmentService) PayNext(ctx context.Context, userID, planID int64, fromAccountID *int64) (decimal.Decimal, error) {
	var payment decimal.Decimal
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		p, err := q.GetInstallmentPlan(ctx, planID)
		if err != nil {
			return err
		}
		account, err := requireAccount(ctx, q, userID, p.AccountID)
		if err != nil {
			return err
		}
		if p.PaidPeriods >= p.TotalPeriods {
			return core.ErrSettled
		}

		splitter, err := amortize.GetSplitter(amortize.Strategy(p.Strategy))
		if err != nil {
			return err
		}
		payment = splitter.Payment(p.TotalAmount, p.Fee, p.TotalPeriods, p.PaidPeriods+1)

		if fromAccountID != nil {
			if err := adjustBalance(ctx, q, userID, *fromAccountID, payment.Neg()); err != nil {
				return err
			}
		}
		if p.IncludeInDebt {
			account.RepayDebt(payment)
			if err := q.UpdateAccount(ctx, account); err != nil {
				return err
			}
		}
		p.PaidPeriods++
		return q.UpdateInstallmentPlan(ctx, p)
	})
	if err != nil {
		return decimal.Zero, err
	}
	publish(ctx, s.events, "installment_plan", planID, "updated")
	return payment, nil
}

// Remaining returns the unpaid part of the plan's total obligation.
func (s *InstallmentService) Remaining(ctx context.Context, userID, planID int64) (decimal.Decimal, error) {
	p, err := s.requirePlan(ctx, userID, planID)
	if err != nil {
		return decimal.Zero, err
	}
	return amortize.Remaining(amortize.Strategy(p.Strategy), p.TotalAmount, p.Fee, p.TotalPeriods, p.PaidPeriods)
}

// Schedule returns every payment of the plan in period order.
func (s *InstallmentService) Schedule(ctx context.Context, userID, planID int64) ([]decimal.Decimal, error) {
	p, err := s.requirePlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	return amortize.Schedule(amortize.Strategy(p.Strategy), p.TotalAmount, p.Fee, p.TotalPeriods)
}

// Delete removes a plan. When the plan counted toward the account's debt,
// the still-unpaid part is taken out of the debt again.
func (s *InstallmentService) Delete(ctx context.Context, userID, planID int64) error {
	err := s.store.ExecTx(ctx, func(q *storage.Queries) error {
		p, err := q.GetInstallmentPlan(ctx, planID)
		if err != nil {
			return err
		}
		account, err := requireAccount(ctx, q, userID, p.AccountID)
		if err != nil {
			return err
		}
		if p.IncludeInDebt {
			rest, err := amortize.Remaining(amortize.Strategy(p.Strategy), p.TotalAmount, p.Fee, p.TotalPeriods, p.PaidPeriods)
			if err != nil {
				return err
			}
			account.RepayDebt(rest)
			if err := q.UpdateAccount(ctx, account); err != nil {
				return err
			}
		}
		return q.DeleteInstallmentPlan(ctx, p.ID)
	})
	if err != nil {
		return err
	}
	publish(ctx, s.events, "installment_plan", planID, "deleted")
	return nil
}

func (s *InstallmentService) requirePlan(ctx context.Context, userID, planID int64) (core.InstallmentPlan, error) {
	p, err := s.store.GetInstallmentPlan(ctx, planID)
	if err != nil {
		return core.InstallmentPlan{}, err
	}
	if _, err := requireAccount(ctx, s.store.Queries, userID, p.AccountID); err != nil {
		return core.InstallmentPlan{}, err
	}
	return p, nil
}
