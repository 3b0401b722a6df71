package analytics

import (
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
)

// TypeStats computes the statistics of the income or expense page: the
// current vs previous month, lifetime total, count and average, and for
// expenses a per-category breakdown over the lifetime expense set.
func TypeStats(txns []domain.Transaction, categories []domain.Category, typ domain.TransactionType, now time.Time) domain.TypeStats {
	prev := monthStart(now, -1)

	scoped := make([]domain.Transaction, 0, len(txns))
	var month, prevMonth, total decimal.Decimal
	for _, t := range txns {
		if t.Type != typ {
			continue
		}
		scoped = append(scoped, t)
		total = total.Add(t.Amount)
		switch {
		case inMonth(t.Date, now):
			month = month.Add(t.Amount)
		case inMonth(t.Date, prev):
			prevMonth = prevMonth.Add(t.Amount)
		}
	}

	stats := domain.TypeStats{
		Type:               typ,
		MonthlyTotal:       month,
		PreviousMonthTotal: prevMonth,
		Change:             changePercent(month, prevMonth),
		Total:              total,
		Count:              len(scoped),
		Average:            decimal.Zero,
	}
	if stats.Count > 0 {
		stats.Average = total.DivRound(decimal.NewFromInt(int64(stats.Count)), 2)
	}
	if typ == domain.Expense {
		stats.Breakdown = BreakdownOf(Breakdown(scoped, categories), domain.Expense)
	}
	return stats
}
