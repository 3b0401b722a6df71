package analytics_test

import (
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/analytics"
	"github.com/boddenberg/finance-tracker-go/internal/domain"
)

func TestTypeStats_Expense(t *testing.T) {
	stats := analytics.TypeStats(reportFixture(), testCategories, domain.Expense, ref(2024, time.March, 20))

	assertDecimal(t, "monthlyTotal", stats.MonthlyTotal, "1000")
	assertDecimal(t, "previousMonthTotal", stats.PreviousMonthTotal, "200")
	assertFloat(t, "change", stats.Change, 400)
	assertDecimal(t, "total", stats.Total, "1200")
	assertDecimal(t, "average", stats.Average, "300")
	if stats.Count != 4 {
		t.Errorf("expected 4 expenses, got %d", stats.Count)
	}

	if len(stats.Breakdown) != 3 {
		t.Fatalf("expected 3 breakdown rows, got %+v", stats.Breakdown)
	}
	for _, row := range stats.Breakdown {
		if row.Type != domain.Expense {
			t.Errorf("unexpected %s row in expense breakdown", row.Type)
		}
	}
	if stats.Breakdown[0].Name != "Shopping" {
		t.Errorf("expected Shopping first, got %s", stats.Breakdown[0].Name)
	}
	assertFloat(t, "shopping share", stats.Breakdown[0].Percentage, 50)
}

func TestTypeStats_Income(t *testing.T) {
	stats := analytics.TypeStats(reportFixture(), testCategories, domain.Income, ref(2024, time.March, 20))

	assertDecimal(t, "monthlyTotal", stats.MonthlyTotal, "4000")
	assertDecimal(t, "previousMonthTotal", stats.PreviousMonthTotal, "0")
	assertFloat(t, "change", stats.Change, 0)
	assertDecimal(t, "total", stats.Total, "4500")
	assertDecimal(t, "average", stats.Average, "1500")
	if stats.Breakdown != nil {
		t.Errorf("income stats carry no breakdown, got %+v", stats.Breakdown)
	}
}

func TestTypeStats_AverageRounded(t *testing.T) {
	txns := []domain.Transaction{
		tx(1, domain.Expense, "10", day(2024, time.March, 1), nil),
		tx(2, domain.Expense, "10", day(2024, time.March, 2), nil),
		tx(3, domain.Expense, "0.01", day(2024, time.March, 3), nil),
	}

	stats := analytics.TypeStats(txns, nil, domain.Expense, ref(2024, time.March, 20))

	assertDecimal(t, "average", stats.Average, "6.67")
}

func TestTypeStats_Empty(t *testing.T) {
	stats := analytics.TypeStats(nil, testCategories, domain.Expense, ref(2024, time.March, 20))

	if stats.Count != 0 {
		t.Errorf("expected no transactions, got %d", stats.Count)
	}
	assertDecimal(t, "average", stats.Average, "0")
	if len(stats.Breakdown) != 0 {
		t.Errorf("expected empty breakdown, got %+v", stats.Breakdown)
	}
}
