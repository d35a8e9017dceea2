package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentPlan splits a credit-card purchase into periodic payments.
// The remaining amount is always derived from PaidPeriods, never stored.
type InstallmentPlan struct {
	ID            int64
	AccountID     int64
	CategoryID    *int64
	TotalAmount   decimal.Decimal
	Fee           decimal.Decimal
	TotalPeriods  int
	PaidPeriods   int
	Strategy      string
	IncludeInDebt bool
	StartDate     time.Time
}

// Validate rejects malformed plans before persistence.
func (p InstallmentPlan) Validate() error {
	if !p.TotalAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if p.Fee.IsNegative() {
		return ErrNegativeAmount
	}
	if p.TotalPeriods < 1 {
		return ErrInvalidAmount
	}
	if p.PaidPeriods < 0 || p.PaidPeriods > p.TotalPeriods {
		return ErrInvalidAmount
	}
	return nil
}
