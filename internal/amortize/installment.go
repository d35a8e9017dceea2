// Package amortize provides the pure payment calculators: installment-plan
// fee distribution and loan repayment schedules. Each distribution rule is a
// strategy behind a registry, so new rules plug in without touching callers.
//
// All results are rounded to the ledger's monetary scale; whenever even
// division leaves a cent-level remainder it is assigned to the last period,
// so every schedule sums exactly to the total obligation.
package amortize

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// Strategy names an installment fee-distribution rule.
type Strategy string

const (
	// EvenlySplit spreads principal and fee uniformly over all periods.
	EvenlySplit Strategy = "evenly_split"
	// FeeUpfront charges the whole fee with the first payment.
	FeeUpfront Strategy = "fee_upfront"
	// FeeFinal charges the whole fee with the last payment.
	FeeFinal Strategy = "fee_final"
)

// PaymentSplitter is the strategy interface for installment plans. Payment
// returns the amount due in period k (1-indexed) of a plan with the given
// total principal, fee and period count.
type PaymentSplitter interface {
	Payment(total, fee decimal.Decimal, periods, k int) decimal.Decimal
}

// principalShare splits the principal evenly, remainder to the last period.
func principalShare(total decimal.Decimal, periods, k int) decimal.Decimal {
	per := core.Round(total.Div(decimal.NewFromInt(int64(periods))))
	if k < periods {
		return per
	}
	return total.Sub(per.Mul(decimal.NewFromInt(int64(periods - 1))))
}

// EvenlySplitStrategy implements PaymentSplitter for EvenlySplit.
type EvenlySplitStrategy struct{}

// Payment spreads total+fee uniformly, the last period absorbing the
// rounding remainder.
func (EvenlySplitStrategy) Payment(total, fee decimal.Decimal, periods, k int) decimal.Decimal {
	return principalShare(total.Add(fee), periods, k)
}

// FeeUpfrontStrategy implements PaymentSplitter for FeeUpfront.
type FeeUpfrontStrategy struct{}

// Payment adds the whole fee to the first period's principal share.
func (FeeUpfrontStrategy) Payment(total, fee decimal.Decimal, periods, k int) decimal.Decimal {
	p := principalShare(total, periods, k)
	if k == 1 {
		p = p.Add(fee)
	}
	return p
}

// FeeFinalStrategy implements PaymentSplitter for FeeFinal.
type FeeFinalStrategy struct{}

// Payment adds the whole fee to the last period's principal share.
func (FeeFinalStrategy) Payment(total, fee decimal.Decimal, periods, k int) decimal.Decimal {
	p := principalShare(total, periods, k)
	if k == periods {
		p = p.Add(fee)
	}
	return p
}

var splitters = map[Strategy]PaymentSplitter{
	EvenlySplit: EvenlySplitStrategy{},
	FeeUpfront:  FeeUpfrontStrategy{},
	FeeFinal:    FeeFinalStrategy{},
}

// GetSplitter returns the payment splitter for a strategy name.
func GetSplitter(s Strategy) (PaymentSplitter, error) {
	sp, ok := splitters[s]
	if !ok {
		return nil, fmt.Errorf("unknown installment strategy: %s", s)
	}
	return sp, nil
}

// TotalPayment is the full obligation of an installment plan.
func TotalPayment(total, fee decimal.Decimal) decimal.Decimal {
	return core.Round(total.Add(fee))
}

// Remaining returns the unpaid part of a plan after paid periods have been
// settled under the given strategy.
func Remaining(s Strategy, total, fee decimal.Decimal, periods, paid int) (decimal.Decimal, error) {
	sp, err := GetSplitter(s)
	if err != nil {
		return decimal.Zero, err
	}
	rest := TotalPayment(total, fee)
	for k := 1; k <= paid; k++ {
		rest = rest.Sub(sp.Payment(total, fee, periods, k))
	}
	return rest, nil
}

// Schedule returns every payment of a plan in period order.
func Schedule(s Strategy, total, fee decimal.Decimal, periods int) ([]decimal.Decimal, error) {
	sp, err := GetSplitter(s)
	if err != nil {
		return nil, err
	}
	out := make([]decimal.Decimal, periods)
	for k := 1; k <= periods; k++ {
		out[k-1] = sp.Payment(total, fee, periods, k)
	}
	return out, nil
}
