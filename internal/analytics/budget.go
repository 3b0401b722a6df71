package analytics

import (
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	dangerThreshold  = decimal.NewFromInt(100)
	warningThreshold = decimal.NewFromInt(90)
)

// ClassifyBudget maps an unclamped spend percentage to its status tier.
func ClassifyBudget(percentage decimal.Decimal) domain.BudgetStatus {
	switch {
	case percentage.GreaterThanOrEqual(dangerThreshold):
		return domain.BudgetDanger
	case percentage.GreaterThanOrEqual(warningThreshold):
		return domain.BudgetWarning
	default:
		return domain.BudgetGood
	}
}

// BudgetProgress computes spend against one budget. Only expense transactions
// in the budget's category and inside the window chosen by policy count.
func BudgetProgress(b domain.Budget, categories []domain.Category, txns []domain.Transaction, policy domain.BudgetWindow, now time.Time) domain.BudgetProgress {
	name := UnknownCategory
	for _, c := range categories {
		if c.ID == b.CategoryID {
			name = c.Name
			break
		}
	}

	window := BudgetRange(b, policy, now)
	spent := decimal.Zero
	for _, t := range txns {
		if t.Type != domain.Expense || t.CategoryID == nil || *t.CategoryID != b.CategoryID {
			continue
		}
		if !window.Contains(t.Date) {
			continue
		}
		spent = spent.Add(t.Amount)
	}

	pct := percentOf(spent, b.Amount)
	p := domain.BudgetProgress{
		ID:                b.ID,
		CategoryID:        b.CategoryID,
		CategoryName:      name,
		Period:            b.Period,
		Amount:            b.Amount,
		Spent:             spent,
		Remaining:         nonNegative(b.Amount.Sub(spent)),
		Percentage:        pct.InexactFloat64(),
		DisplayPercentage: capped(pct).InexactFloat64(),
		Status:            ClassifyBudget(pct),
	}
	if !window.From.IsZero() {
		from := window.From
		p.WindowStart = &from
	}
	if !window.To.IsZero() {
		to := window.To
		p.WindowEnd = &to
	}
	return p
}

// BudgetsProgress computes progress for every budget, in input order.
func BudgetsProgress(budgets []domain.Budget, categories []domain.Category, txns []domain.Transaction, policy domain.BudgetWindow, now time.Time) []domain.BudgetProgress {
	out := make([]domain.BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, BudgetProgress(b, categories, txns, policy, now))
	}
	return out
}
