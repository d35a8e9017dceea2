package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is a budget recurrence unit.
type Period string

const (
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// Periods lists every recurrence unit a ledger is seeded with.
var Periods = []Period{Monthly, Yearly}

// Budget caps categorized spending inside a rolling window. CategoryID nil
// means the budget covers the whole ledger.
type Budget struct {
	ID         int64
	LedgerID   int64
	CategoryID *int64
	Period     Period
	Amount     decimal.Decimal
	StartDate  time.Time
	EndDate    time.Time
}

// Window returns the period window bracketing the given day: the calendar
// month for Monthly, the calendar year for Yearly. Both bounds are
// inclusive dates at midnight UTC.
func (p Period) Window(today time.Time) (start, end time.Time) {
	y, m, _ := today.Date()
	switch p {
	case Yearly:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
	default: // Monthly
		start = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return start, end
}

// Contains reports whether day falls inside the budget's current window,
// bounds inclusive.
func (b Budget) Contains(day time.Time) bool {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(b.StartDate) && !d.After(b.EndDate)
}
