package analytics

import (
	"sort"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
)

// BuildReport filters txns and computes the summary and category breakdown
// of the filtered set. The filtered transactions travel with the report so
// the CSV export always matches the summary.
func BuildReport(txns []domain.Transaction, categories []domain.Category, filter domain.ReportFilter, now time.Time) domain.Report {
	if filter.Period == "" {
		filter.Period = domain.PeriodThisMonth
	}
	filtered := FilterTransactions(txns, filter, now)
	return domain.Report{
		Filter:       filter,
		Summary:      Summarize(filtered),
		Breakdown:    Breakdown(filtered, categories),
		Transactions: filtered,
	}
}

// Summarize totals a transaction set by type.
func Summarize(txns []domain.Transaction) domain.ReportSummary {
	var income, expenses decimal.Decimal
	for _, t := range txns {
		if t.Type == domain.Income {
			income = income.Add(t.Amount)
		} else {
			expenses = expenses.Add(t.Amount)
		}
	}
	return domain.ReportSummary{
		TotalIncome:      income,
		TotalExpenses:    expenses,
		NetIncome:        income.Sub(expenses),
		TransactionCount: len(txns),
	}
}

type breakdownKey struct {
	id  int64
	typ domain.TransactionType
}

// Breakdown sums txns per category, sorted by amount descending.
//
// A transaction counts toward its category only when the category exists and
// has the transaction's type; everything else lands in the "Uncategorized"
// row of its type. Percentages are relative to the total of the row's own
// type, so each type's rows sum to 100.
func Breakdown(txns []domain.Transaction, categories []domain.Category) []domain.CategoryBreakdown {
	idx := categoryIndex(categories)
	totals := make(map[domain.TransactionType]decimal.Decimal, 2)
	rows := make(map[breakdownKey]*domain.CategoryBreakdown)

	for _, t := range txns {
		totals[t.Type] = totals[t.Type].Add(t.Amount)

		key := breakdownKey{typ: t.Type}
		name := Uncategorized
		if t.CategoryID != nil {
			if c, ok := idx[*t.CategoryID]; ok && c.Type == t.Type {
				key.id = c.ID
				name = c.Name
			}
		}

		row, ok := rows[key]
		if !ok {
			row = &domain.CategoryBreakdown{CategoryID: key.id, Name: name, Type: t.Type}
			rows[key] = row
		}
		row.Amount = row.Amount.Add(t.Amount)
		row.Count++
	}

	out := make([]domain.CategoryBreakdown, 0, len(rows))
	for _, row := range rows {
		if row.Amount.IsZero() {
			continue
		}
		row.Percentage = percentOf(row.Amount, totals[row.Type]).InexactFloat64()
		out = append(out, *row)
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		if out[i].CategoryID != out[j].CategoryID {
			return out[i].CategoryID < out[j].CategoryID
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// BreakdownOf restricts a breakdown to one type.
func BreakdownOf(rows []domain.CategoryBreakdown, typ domain.TransactionType) []domain.CategoryBreakdown {
	out := make([]domain.CategoryBreakdown, 0, len(rows))
	for _, r := range rows {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}
