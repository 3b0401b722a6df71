package analytics

import (
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
)

// Dashboard computes the dashboard statistics cards.
//
// The balance is lifetime; monthly figures use now's calendar month and are
// compared with the previous calendar month. Savings progress comes from the
// goals, not from transactions.
func Dashboard(txns []domain.Transaction, goals []domain.SavingsGoal, now time.Time) domain.DashboardStats {
	prev := monthStart(now, -1)

	var balance, income, expenses, prevIncome, prevExpenses decimal.Decimal
	for _, t := range txns {
		balance = balance.Add(t.Signed())

		switch {
		case inMonth(t.Date, now):
			if t.Type == domain.Income {
				income = income.Add(t.Amount)
			} else {
				expenses = expenses.Add(t.Amount)
			}
		case inMonth(t.Date, prev):
			if t.Type == domain.Income {
				prevIncome = prevIncome.Add(t.Amount)
			} else {
				prevExpenses = prevExpenses.Add(t.Amount)
			}
		}
	}

	return domain.DashboardStats{
		TotalBalance:    balance,
		MonthlyIncome:   income,
		MonthlyExpenses: expenses,
		SavingsProgress: OverallSavings(goals),
		IncomeChange:    changePercent(income, prevIncome),
		ExpenseChange:   changePercent(expenses, prevExpenses),
	}
}

// OverallSavings is Σcurrent / Σtarget across goals as a percentage capped at 100.
func OverallSavings(goals []domain.SavingsGoal) float64 {
	var current, target decimal.Decimal
	for _, g := range goals {
		current = current.Add(g.CurrentAmount)
		target = target.Add(g.TargetAmount)
	}
	return capped(percentOf(current, target)).InexactFloat64()
}
