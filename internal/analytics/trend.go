package analytics

import (
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultRecentLimit is the size of the recent-transactions widget.
const DefaultRecentLimit = 5

// MonthlyTrend sums income and expenses per calendar month for the chart.
// 6months and 12months end at now's month; year runs January to now's month.
func MonthlyTrend(txns []domain.Transaction, rng domain.TrendRange, now time.Time) domain.MonthlyTrend {
	n := 6
	switch rng {
	case domain.TrendTwelveMonths:
		n = 12
	case domain.TrendYear:
		n = int(now.Month())
	}

	start := monthStart(now, -(n - 1))
	trend := domain.MonthlyTrend{
		Labels:   make([]string, n),
		Months:   make([]string, n),
		Income:   make([]decimal.Decimal, n),
		Expenses: make([]decimal.Decimal, n),
	}
	slot := make(map[string]int, n)
	for i := 0; i < n; i++ {
		m := start.AddDate(0, i, 0)
		key := m.Format("2006-01")
		trend.Labels[i] = m.Format("Jan")
		trend.Months[i] = key
		trend.Income[i] = decimal.Zero
		trend.Expenses[i] = decimal.Zero
		slot[key] = i
	}

	for _, t := range txns {
		i, ok := slot[t.Date.Format("2006-01")]
		if !ok {
			continue
		}
		if t.Type == domain.Income {
			trend.Income[i] = trend.Income[i].Add(t.Amount)
		} else {
			trend.Expenses[i] = trend.Expenses[i].Add(t.Amount)
		}
	}
	return trend
}

// RecentTransactions returns the newest limit transactions with category names.
func RecentTransactions(txns []domain.Transaction, categories []domain.Category, limit int) []domain.RecentTransaction {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	idx := categoryIndex(categories)
	sorted := newestFirst(txns)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]domain.RecentTransaction, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, domain.RecentTransaction{
			Transaction:  t,
			CategoryName: categoryName(idx, t.CategoryID),
		})
	}
	return out
}
