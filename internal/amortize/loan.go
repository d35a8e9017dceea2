package amortize

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// RepaymentType names a loan repayment schedule.
type RepaymentType string

const (
	// EqualInstallment is the annuity schedule: one fixed payment per period.
	EqualInstallment RepaymentType = "equal_installment"
	// EqualPrincipal repays the same principal slice each period, so the
	// payment shrinks as interest decays.
	EqualPrincipal RepaymentType = "equal_principal"
	// EqualInterest charges the same interest each period and repays the
	// whole principal with the final payment.
	EqualInterest RepaymentType = "equal_interest"
	// InterestBeforePrincipal settles the full interest over the leading
	// periods and leaves the final period to the principal alone.
	InterestBeforePrincipal RepaymentType = "interest_before_principal"
)

// RepaymentCalculator is the strategy interface for loan schedules.
// Payment returns the amount due in period k (1-indexed); Remaining returns
// the outstanding principal after repaid periods. Remaining(periods) is
// exactly zero for every schedule.
type RepaymentCalculator interface {
	Payment(principal, annualRate decimal.Decimal, periods, k int) decimal.Decimal
	Remaining(principal, annualRate decimal.Decimal, periods, repaid int) decimal.Decimal
}

var (
	one    = decimal.NewFromInt(1)
	twelve = decimal.NewFromInt(12)
)

func monthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.Div(twelve)
}

// linearRemaining is the outstanding principal when it amortizes in equal
// slices: principal * (periods-repaid) / periods, zero at the end.
func linearRemaining(principal decimal.Decimal, periods, repaid int) decimal.Decimal {
	if repaid >= periods {
		return decimal.Zero
	}
	left := decimal.NewFromInt(int64(periods - repaid))
	return core.Round(principal.Mul(left).Div(decimal.NewFromInt(int64(periods))))
}

// bulletRemaining is the outstanding principal when nothing amortizes until
// the final payment.
func bulletRemaining(principal decimal.Decimal, periods, repaid int) decimal.Decimal {
	if repaid >= periods {
		return decimal.Zero
	}
	return principal
}

// EqualInstallmentCalc implements the annuity schedule.
type EqualInstallmentCalc struct{}

// Payment is the classic annuity formula P*i*(1+i)^N / ((1+i)^N - 1),
// identical for every period. A zero rate degrades to an even principal
// split with the remainder in the last period.
func (EqualInstallmentCalc) Payment(principal, annualRate decimal.Decimal, periods, k int) decimal.Decimal {
	i := monthlyRate(annualRate)
	if i.IsZero() {
		return principalShare(principal, periods, k)
	}
	f := one.Add(i).Pow(decimal.NewFromInt(int64(periods)))
	return core.Round(principal.Mul(i).Mul(f).Div(f.Sub(one)))
}

// Remaining applies the standard annuity remaining-balance formula
// P * ((1+i)^N - (1+i)^m) / ((1+i)^N - 1).
func (EqualInstallmentCalc) Remaining(principal, annualRate decimal.Decimal, periods, repaid int) decimal.Decimal {
	if repaid >= periods {
		return decimal.Zero
	}
	i := monthlyRate(annualRate)
	if i.IsZero() {
		return linearRemaining(principal, periods, repaid)
	}
	f := one.Add(i).Pow(decimal.NewFromInt(int64(periods)))
	fm := one.Add(i).Pow(decimal.NewFromInt(int64(repaid)))
	return core.Round(principal.Mul(f.Sub(fm)).Div(f.Sub(one)))
}

// EqualPrincipalCalc implements the shrinking-payment schedule.
type EqualPrincipalCalc struct{}

// Payment is the fixed principal slice plus interest on what was still
// outstanding at the start of period k.
func (EqualPrincipalCalc) Payment(principal, annualRate decimal.Decimal, periods, k int) decimal.Decimal {
	i := monthlyRate(annualRate)
	outstanding := linearRemaining(principal, periods, k-1)
	return core.Round(principalShare(principal, periods, k).Add(outstanding.Mul(i)))
}

func (EqualPrincipalCalc) Remaining(principal, annualRate decimal.Decimal, periods, repaid int) decimal.Decimal {
	return linearRemaining(principal, periods, repaid)
}

// EqualInterestCalc implements the interest-only schedule with a balloon
// principal payment at the end.
type EqualInterestCalc struct{}

func (EqualInterestCalc) Payment(principal, annualRate decimal.Decimal, periods, k int) decimal.Decimal {
	interest := core.Round(principal.Mul(monthlyRate(annualRate)))
	if k < periods {
		return interest
	}
	return interest.Add(principal)
}

func (EqualInterestCalc) Remaining(principal, annualRate decimal.Decimal, periods, repaid int) decimal.Decimal {
	return bulletRemaining(principal, periods, repaid)
}

// InterestBeforePrincipalCalc front-loads the whole interest: periods
// 1..N-1 split N*P*i evenly (remainder to period N-1), period N repays the
// principal alone. A single-period loan pays everything at once.
type InterestBeforePrincipalCalc struct{}

func (InterestBeforePrincipalCalc) Payment(principal, annualRate decimal.Decimal, periods, k int) decimal.Decimal {
	totalInterest := core.Round(principal.Mul(monthlyRate(annualRate)).Mul(decimal.NewFromInt(int64(periods))))
	if periods == 1 {
		return principal.Add(totalInterest)
	}
	if k == periods {
		return principal
	}
	return principalShare(totalInterest, periods-1, k)
}

func (InterestBeforePrincipalCalc) Remaining(principal, annualRate decimal.Decimal, periods, repaid int) decimal.Decimal {
	return bulletRemaining(principal, periods, repaid)
}

var calculators = map[RepaymentType]RepaymentCalculator{
	EqualInstallment:        EqualInstallmentCalc{},
	EqualPrincipal:          EqualPrincipalCalc{},
	EqualInterest:           EqualInterestCalc{},
	InterestBeforePrincipal: InterestBeforePrincipalCalc{},
}

// GetCalculator returns the repayment calculator for a type name.
func GetCalculator(t RepaymentType) (RepaymentCalculator, error) {
	c, ok := calculators[t]
	if !ok {
		return nil, fmt.Errorf("unknown repayment type: %s", t)
	}
	return c, nil
}

// TotalRepayment sums every payment of the schedule: principal plus all
// interest portions.
func TotalRepayment(t RepaymentType, principal, annualRate decimal.Decimal, periods int) (decimal.Decimal, error) {
	c, err := GetCalculator(t)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for k := 1; k <= periods; k++ {
		total = total.Add(c.Payment(principal, annualRate, periods, k))
	}
	return core.Round(total), nil
}
