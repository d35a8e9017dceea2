// Package core holds the domain model of the ledger engine: accounts and
// their variants, transactions, the category tree, budgets and installment
// plans, together with the validation rules shared by every service.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places every stored monetary value is
// rounded to. All balances and payments are exact at this scale.
const Scale = 2

// Round normalizes a monetary value to the configured scale (half-up).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// ParseAmount parses a user-supplied monetary amount. It accepts both dot
// and comma decimal separators and rejects non-positive values.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return Round(d), nil
}
