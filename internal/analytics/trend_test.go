package analytics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/analytics"
	"github.com/boddenberg/finance-tracker-go/internal/domain"
)

func TestMonthlyTrend_SixMonths(t *testing.T) {
	trend := analytics.MonthlyTrend(reportFixture(), domain.TrendSixMonths, ref(2024, time.March, 20))

	if got := strings.Join(trend.Labels, ","); got != "Oct,Nov,Dec,Jan,Feb,Mar" {
		t.Errorf("unexpected labels %s", got)
	}
	if trend.Months[0] != "2023-10" || trend.Months[5] != "2024-03" {
		t.Errorf("unexpected months %v", trend.Months)
	}
	assertDecimal(t, "december income", trend.Income[2], "500")
	assertDecimal(t, "march income", trend.Income[5], "4000")
	assertDecimal(t, "february expenses", trend.Expenses[4], "200")
	assertDecimal(t, "march expenses", trend.Expenses[5], "1000")
	assertDecimal(t, "october income", trend.Income[0], "0")
}

func TestMonthlyTrend_Ranges(t *testing.T) {
	now := ref(2024, time.March, 20)

	tests := []struct {
		rng   domain.TrendRange
		n     int
		first string
	}{
		{domain.TrendSixMonths, 6, "2023-10"},
		{domain.TrendTwelveMonths, 12, "2023-04"},
		{domain.TrendYear, 3, "2024-01"},
		{"", 6, "2023-10"},
	}

	for _, tt := range tests {
		t.Run(string(tt.rng), func(t *testing.T) {
			trend := analytics.MonthlyTrend(nil, tt.rng, now)
			if len(trend.Months) != tt.n || len(trend.Income) != tt.n || len(trend.Expenses) != tt.n {
				t.Fatalf("expected %d months, got %d", tt.n, len(trend.Months))
			}
			if trend.Months[0] != tt.first {
				t.Errorf("expected first month %s, got %s", tt.first, trend.Months[0])
			}
		})
	}
}

func TestRecentTransactions(t *testing.T) {
	recent := analytics.RecentTransactions(reportFixture(), testCategories, 0)

	if len(recent) != analytics.DefaultRecentLimit {
		t.Fatalf("expected %d transactions, got %d", analytics.DefaultRecentLimit, len(recent))
	}
	if recent[0].ID != 2 || recent[0].CategoryName != "Freelance" {
		t.Errorf("expected newest Freelance income first, got %+v", recent[0])
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].Date.After(recent[i-1].Date) {
			t.Errorf("transactions out of order at %d", i)
		}
	}
}

func TestRecentTransactions_Limit(t *testing.T) {
	fixture := reportFixture()
	recent := analytics.RecentTransactions(fixture, testCategories, 2)

	if len(recent) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(recent))
	}
	if fixture[0].ID != 1 {
		t.Error("input slice was reordered")
	}
}
