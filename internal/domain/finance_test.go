package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validationField(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		return ""
	}
	var ve *ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ErrValidation, got %T", err)
	}
	return ve.Field
}

func TestTransaction_Validate(t *testing.T) {
	base := func() Transaction {
		return Transaction{
			Type:        Expense,
			Amount:      decimal.NewFromInt(10),
			Description: " Lunch ",
			Date:        NewDate(2024, time.January, 2),
		}
	}
	bad := Frequency("daily")

	tests := []struct {
		name   string
		mutate func(*Transaction)
		field  string
	}{
		{"valid", func(*Transaction) {}, ""},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, "type"},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, "amount"},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) }, "amount"},
		{"sub-cent amount", func(tx *Transaction) { tx.Amount = decimal.RequireFromString("1.005") }, "amount"},
		{"trailing zeros", func(tx *Transaction) { tx.Amount = decimal.RequireFromString("1.500") }, ""},
		{"blank description", func(tx *Transaction) { tx.Description = "  " }, "description"},
		{"missing date", func(tx *Transaction) { tx.Date = Date{} }, "date"},
		{"bad period", func(tx *Transaction) { tx.Recurring = true; tx.RecurringPeriod = &bad }, "recurringPeriod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := base()
			tt.mutate(&tx)
			if got := validationField(t, tx.Validate()); got != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, got)
			}
		})
	}
}

func TestTransaction_ValidateNormalizesRecurrence(t *testing.T) {
	tx := Transaction{Type: Income, Amount: decimal.NewFromInt(1), Description: "Rent", Date: NewDate(2024, 1, 1), Recurring: true}
	if err := tx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.RecurringPeriod == nil || *tx.RecurringPeriod != Monthly {
		t.Errorf("expected monthly default, got %v", tx.RecurringPeriod)
	}

	weekly := Weekly
	tx.Recurring = false
	tx.RecurringPeriod = &weekly
	if err := tx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.RecurringPeriod != nil {
		t.Error("non-recurring transaction kept a period")
	}
}

func TestBudget_Validate(t *testing.T) {
	start := NewDate(2024, time.February, 1)
	end := NewDate(2024, time.January, 1)

	b := Budget{CategoryID: 3, Amount: decimal.NewFromInt(100)}
	if err := b.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Period != Monthly {
		t.Errorf("expected monthly default, got %s", b.Period)
	}

	b.StartDate, b.EndDate = &start, &end
	if got := validationField(t, b.Validate()); got != "endDate" {
		t.Errorf("expected endDate error, got %q", got)
	}

	if got := validationField(t, (&Budget{Amount: decimal.NewFromInt(1)}).Validate()); got != "categoryId" {
		t.Errorf("expected categoryId error, got %q", got)
	}
}

func TestSavingsGoal_Validate(t *testing.T) {
	g := SavingsGoal{Title: "Car", TargetAmount: decimal.NewFromInt(5000), TargetDate: NewDate(2025, 1, 1)}
	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g.CurrentAmount = decimal.NewFromInt(-1)
	if got := validationField(t, g.Validate()); got != "currentAmount" {
		t.Errorf("expected currentAmount error, got %q", got)
	}
}

func TestTransactionPatch_Apply(t *testing.T) {
	tx := Transaction{Type: Expense, Amount: decimal.NewFromInt(10), Description: "old"}
	desc := "new"
	amount := decimal.RequireFromString("12.34")

	TransactionPatch{Description: &desc, Amount: &amount}.Apply(&tx)

	if tx.Description != "new" || !tx.Amount.Equal(amount) || tx.Type != Expense {
		t.Errorf("unexpected patched transaction %+v", tx)
	}
}

func TestTransactionRange_Contains(t *testing.T) {
	r := TransactionRange{From: NewDate(2024, 1, 10), To: NewDate(2024, 1, 20)}

	if !r.Contains(NewDate(2024, 1, 10)) || !r.Contains(NewDate(2024, 1, 20)) {
		t.Error("range bounds are inclusive")
	}
	if r.Contains(NewDate(2024, 1, 9)) || r.Contains(NewDate(2024, 1, 21)) {
		t.Error("dates outside the range matched")
	}
	if !(TransactionRange{}).Contains(NewDate(1990, 1, 1)) {
		t.Error("empty range should match everything")
	}
}

func TestTransactionPatch_NullClearsCategory(t *testing.T) {
	cat := int64(7)
	period := Weekly

	tests := []struct {
		name     string
		body     string
		wantCat  *int64
		wantFreq *Frequency
	}{
		{"absent keeps", `{}`, &cat, &period},
		{"null clears", `{"categoryId": null, "recurringPeriod": null}`, nil, nil},
		{"value replaces", `{"categoryId": 9}`, ptrTo(int64(9)), &period},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := Transaction{CategoryID: &cat, Recurring: true, RecurringPeriod: &period}
			var p TransactionPatch
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatal(err)
			}
			p.Apply(&tx)

			if (tx.CategoryID == nil) != (tt.wantCat == nil) || (tx.CategoryID != nil && *tx.CategoryID != *tt.wantCat) {
				t.Errorf("categoryId: got %v, want %v", tx.CategoryID, tt.wantCat)
			}
			if (tx.RecurringPeriod == nil) != (tt.wantFreq == nil) {
				t.Errorf("recurringPeriod: got %v, want %v", tx.RecurringPeriod, tt.wantFreq)
			}
		})
	}
}

func TestBudgetPatch_NullClearsDates(t *testing.T) {
	start, end := NewDate(2024, 1, 1), NewDate(2024, 6, 30)
	b := Budget{StartDate: &start, EndDate: &end}

	var p BudgetPatch
	if err := json.Unmarshal([]byte(`{"startDate": null, "endDate": "2024-12-31"}`), &p); err != nil {
		t.Fatal(err)
	}
	p.Apply(&b)

	if b.StartDate != nil {
		t.Errorf("expected start date cleared, got %v", b.StartDate)
	}
	if b.EndDate == nil || b.EndDate.String() != "2024-12-31" {
		t.Errorf("expected end date replaced, got %v", b.EndDate)
	}
}

func TestSavingsGoalPatch_NullClearsDescription(t *testing.T) {
	desc := "old"
	g := SavingsGoal{Title: "Car", Description: &desc}

	SavingsGoalPatch{Title: ptrTo("Bike")}.Apply(&g)
	if g.Description == nil || *g.Description != "old" {
		t.Fatalf("absent description must be kept, got %v", g.Description)
	}

	SavingsGoalPatch{Description: Null[string]()}.Apply(&g)
	if g.Description != nil {
		t.Errorf("expected description cleared, got %q", *g.Description)
	}

	SavingsGoalPatch{Description: NullableOf("new")}.Apply(&g)
	if g.Description == nil || *g.Description != "new" {
		t.Errorf("expected description set, got %v", g.Description)
	}
}

func ptrTo[T any](v T) *T { return &v }
