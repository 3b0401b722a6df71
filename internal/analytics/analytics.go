// Package analytics is the aggregation engine: pure functions that turn one
// user's entity lists into dashboard statistics, budget and savings progress,
// category breakdowns, reports, CSV rows and chart series.
//
// Every function takes the reference time explicitly, never mutates its
// inputs and never returns an error. Amounts are summed as decimals;
// percentages are converted to float64 only on output.
package analytics

import (
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	// UnknownCategory names a budget whose category no longer exists.
	UnknownCategory = "Unknown"
	// Uncategorized names transactions without a usable category.
	Uncategorized = "Uncategorized"
)

var hundred = decimal.NewFromInt(100)

// percentOf returns part/whole*100, or zero when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}

// changePercent is the month-over-month change. A zero previous value yields 0.
func changePercent(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Mul(hundred).Div(previous).InexactFloat64()
}

func capped(p decimal.Decimal) decimal.Decimal {
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// monthStart returns the first instant of the month containing t, offset by delta months.
func monthStart(t time.Time, delta int) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, delta, 0)
}

func inMonth(d domain.Date, month time.Time) bool {
	return d.Year() == month.Year() && d.Month() == month.Month()
}

func categoryIndex(categories []domain.Category) map[int64]domain.Category {
	idx := make(map[int64]domain.Category, len(categories))
	for _, c := range categories {
		idx[c.ID] = c
	}
	return idx
}

// categoryName resolves a transaction's category for display.
func categoryName(idx map[int64]domain.Category, id *int64) string {
	if id == nil {
		return Uncategorized
	}
	if c, ok := idx[*id]; ok {
		return c.Name
	}
	return Uncategorized
}
