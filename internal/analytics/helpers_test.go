package analytics_test

import (
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) domain.Date {
	return domain.NewDate(y, m, d)
}

func ref(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func id(v int64) *int64 { return &v }

func tx(txID int64, typ domain.TransactionType, amount string, date domain.Date, categoryID *int64) domain.Transaction {
	return domain.Transaction{
		ID:          txID,
		UserID:      1,
		Type:        typ,
		Amount:      dec(amount),
		Description: "tx",
		CategoryID:  categoryID,
		Date:        date,
	}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s: expected %s, got %s", name, want, got.String())
	}
}

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	const eps = 1e-9
	if got < want-eps || got > want+eps {
		t.Errorf("%s: expected %v, got %v", name, want, got)
	}
}

var testCategories = []domain.Category{
	{ID: 1, UserID: 1, Name: "Salary", Type: domain.Income},
	{ID: 2, UserID: 1, Name: "Freelance", Type: domain.Income},
	{ID: 3, UserID: 1, Name: "Food", Type: domain.Expense},
	{ID: 4, UserID: 1, Name: "Transport", Type: domain.Expense},
	{ID: 5, UserID: 1, Name: "Shopping", Type: domain.Expense},
}
