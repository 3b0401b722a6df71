package analytics_test

import (
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/analytics"
	"github.com/boddenberg/finance-tracker-go/internal/domain"
)

func TestDashboard_JanuaryScenario(t *testing.T) {
	txns := []domain.Transaction{
		tx(1, domain.Income, "1000", day(2024, time.January, 1), nil),
		tx(2, domain.Expense, "400", day(2024, time.January, 5), nil),
		tx(3, domain.Expense, "100", day(2024, time.February, 1), nil),
	}

	stats := analytics.Dashboard(txns, nil, ref(2024, time.January, 31))

	assertDecimal(t, "monthlyIncome", stats.MonthlyIncome, "1000")
	assertDecimal(t, "monthlyExpenses", stats.MonthlyExpenses, "400")
	assertDecimal(t, "totalBalance", stats.TotalBalance, "500")
	assertFloat(t, "savingsProgress", stats.SavingsProgress, 0)
}

func TestDashboard_BalanceIndependentOfOrder(t *testing.T) {
	txns := []domain.Transaction{
		tx(1, domain.Income, "1234.56", day(2023, time.March, 3), nil),
		tx(2, domain.Expense, "0.10", day(2023, time.June, 1), nil),
		tx(3, domain.Expense, "0.20", day(2024, time.January, 9), nil),
		tx(4, domain.Income, "99.99", day(2024, time.February, 2), nil),
		tx(5, domain.Expense, "500", day(2024, time.February, 3), nil),
	}
	now := ref(2024, time.February, 10)

	forward := analytics.Dashboard(txns, nil, now)

	reversed := make([]domain.Transaction, len(txns))
	for i, tr := range txns {
		reversed[len(txns)-1-i] = tr
	}
	backward := analytics.Dashboard(reversed, nil, now)

	assertDecimal(t, "forward balance", forward.TotalBalance, "834.25")
	if !forward.TotalBalance.Equal(backward.TotalBalance) {
		t.Errorf("balance depends on order: %s vs %s", forward.TotalBalance, backward.TotalBalance)
	}
}

func TestDashboard_MonthOverMonthChange(t *testing.T) {
	txns := []domain.Transaction{
		tx(1, domain.Income, "1000", day(2024, time.February, 1), nil),
		tx(2, domain.Income, "1500", day(2024, time.March, 1), nil),
		tx(3, domain.Expense, "200", day(2024, time.February, 10), nil),
		tx(4, domain.Expense, "150", day(2024, time.March, 12), nil),
	}

	stats := analytics.Dashboard(txns, nil, ref(2024, time.March, 20))

	assertFloat(t, "incomeChange", stats.IncomeChange, 50)
	assertFloat(t, "expenseChange", stats.ExpenseChange, -25)
}

func TestDashboard_ZeroPreviousMonthYieldsZeroChange(t *testing.T) {
	txns := []domain.Transaction{
		tx(1, domain.Income, "1000", day(2024, time.March, 1), nil),
	}

	stats := analytics.Dashboard(txns, nil, ref(2024, time.March, 20))

	assertFloat(t, "incomeChange", stats.IncomeChange, 0)
	assertFloat(t, "expenseChange", stats.ExpenseChange, 0)
}

func TestDashboard_PreviousMonthAcrossYearBoundary(t *testing.T) {
	txns := []domain.Transaction{
		tx(1, domain.Expense, "100", day(2023, time.December, 15), nil),
		tx(2, domain.Expense, "300", day(2024, time.January, 15), nil),
	}

	stats := analytics.Dashboard(txns, nil, ref(2024, time.January, 20))

	assertFloat(t, "expenseChange", stats.ExpenseChange, 200)
}

func TestDashboard_EmptyInputs(t *testing.T) {
	stats := analytics.Dashboard(nil, nil, ref(2024, time.January, 1))

	assertDecimal(t, "totalBalance", stats.TotalBalance, "0")
	assertDecimal(t, "monthlyIncome", stats.MonthlyIncome, "0")
	assertFloat(t, "incomeChange", stats.IncomeChange, 0)
}

func TestOverallSavings(t *testing.T) {
	tests := []struct {
		name  string
		goals []domain.SavingsGoal
		want  float64
	}{
		{"no goals", nil, 0},
		{
			"partial",
			[]domain.SavingsGoal{
				{TargetAmount: dec("1000"), CurrentAmount: dec("250")},
				{TargetAmount: dec("1000"), CurrentAmount: dec("750")},
			},
			50,
		},
		{
			"capped at 100",
			[]domain.SavingsGoal{
				{TargetAmount: dec("100"), CurrentAmount: dec("400")},
			},
			100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFloat(t, "savingsProgress", analytics.OverallSavings(tt.goals), tt.want)
		})
	}
}
