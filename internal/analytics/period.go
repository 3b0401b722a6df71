package analytics

import (
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
)

// InPeriod reports whether d falls in the calendar window p relative to now.
// An empty period means all time.
func InPeriod(d domain.Date, p domain.ReportPeriod, now time.Time) bool {
	switch p {
	case domain.PeriodThisMonth:
		return inMonth(d, now)
	case domain.PeriodLastMonth:
		return inMonth(d, monthStart(now, -1))
	case domain.PeriodThisYear:
		return d.Year() == now.Year()
	default:
		return true
	}
}

// FilterTransactions applies the period and category filter, preserving input order.
func FilterTransactions(txns []domain.Transaction, filter domain.ReportFilter, now time.Time) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txns))
	for _, t := range txns {
		if !InPeriod(t.Date, filter.Period, now) {
			continue
		}
		if filter.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *filter.CategoryID) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// BudgetRange returns the inclusive date range a budget's spend is counted in.
// Under WindowAllTime the range is unbounded. Under WindowPeriod explicit
// start/end dates win; otherwise the calendar week (Monday first), month or
// year containing now is used.
func BudgetRange(b domain.Budget, policy domain.BudgetWindow, now time.Time) domain.TransactionRange {
	if policy == domain.WindowAllTime {
		return domain.TransactionRange{}
	}
	if b.StartDate != nil || b.EndDate != nil {
		var r domain.TransactionRange
		if b.StartDate != nil {
			r.From = *b.StartDate
		}
		if b.EndDate != nil {
			r.To = *b.EndDate
		}
		return r
	}

	today := domain.DateOf(now)
	switch b.Period {
	case domain.Weekly:
		offset := (int(now.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return domain.TransactionRange{
			From: domain.Date{Time: start},
			To:   domain.Date{Time: start.AddDate(0, 0, 6)},
		}
	case domain.Yearly:
		return domain.TransactionRange{
			From: domain.NewDate(now.Year(), time.January, 1),
			To:   domain.NewDate(now.Year(), time.December, 31),
		}
	default:
		first := domain.NewDate(now.Year(), now.Month(), 1)
		return domain.TransactionRange{
			From: first,
			To:   domain.Date{Time: first.AddDate(0, 1, -1)},
		}
	}
}
