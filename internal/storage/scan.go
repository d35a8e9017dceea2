package storage

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayout is how calendar dates are stored; lexicographic order matches
// chronological order, so BETWEEN works on the raw text.
const dateLayout = "2006-01-02"

func encDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func decDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func encDec(d decimal.Decimal) string {
	return d.String()
}

func decDec(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func encOptID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func decOptID(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	id := n.Int64
	return &id
}
