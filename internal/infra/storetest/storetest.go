// Package storetest is a behavioural test suite shared by every port.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/port"

	"github.com/shopspring/decimal"
)

// Factory returns a fresh, empty store. Cleanup is registered on t.
type Factory func(t *testing.T) port.Store

// Run exercises the full store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("Transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("DateRange", func(t *testing.T) { testDateRange(t, newStore(t)) })
	t.Run("CategoryDelete", func(t *testing.T) { testCategoryDelete(t, newStore(t)) })
	t.Run("Budgets", func(t *testing.T) { testBudgets(t, newStore(t)) })
	t.Run("SavingsGoals", func(t *testing.T) { testSavingsGoals(t, newStore(t)) })
	t.Run("Ownership", func(t *testing.T) { testOwnership(t, newStore(t)) })
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustUser(t *testing.T, s port.Store, email string) *domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), &domain.User{Username: email, Email: email, PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func mustCategory(t *testing.T, s port.Store, userID int64, name string, typ domain.TransactionType) *domain.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), &domain.Category{UserID: userID, Name: name, Type: typ})
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

func mustTransaction(t *testing.T, s port.Store, userID int64, amount string, date domain.Date, categoryID *int64) *domain.Transaction {
	t.Helper()
	tx, err := s.CreateTransaction(context.Background(), &domain.Transaction{
		UserID:      userID,
		Type:        domain.Expense,
		Amount:      dec(amount),
		Description: fmt.Sprintf("expense %s", amount),
		CategoryID:  categoryID,
		Date:        date,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func expectNotFound(t *testing.T, err error) {
	t.Helper()
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected *domain.ErrNotFound, got %v", err)
	}
}

func testUsers(t *testing.T, s port.Store) {
	ctx := context.Background()
	first := "Ada"
	u, err := s.CreateUser(ctx, &domain.User{Username: "ada", Email: "ada@example.com", PasswordHash: "h", FirstName: &first})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 || u.CreatedAt.IsZero() {
		t.Errorf("expected id and createdAt to be assigned, got %+v", u)
	}

	got, err := s.GetUserByEmail(ctx, "ada@example.com")
	if err != nil || got == nil || got.ID != u.ID || got.PasswordHash != "h" {
		t.Fatalf("lookup by email: %+v, %v", got, err)
	}
	if got.FirstName == nil || *got.FirstName != "Ada" || got.LastName != nil {
		t.Errorf("unexpected names %v %v", got.FirstName, got.LastName)
	}

	missing, err := s.GetUserByEmail(ctx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for unknown email, got %+v, %v", missing, err)
	}

	_, err = s.CreateUser(ctx, &domain.User{Username: "ada2", Email: "ada@example.com", PasswordHash: "h"})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Errorf("expected conflict on duplicate email, got %v", err)
	}

	_, err = s.GetUser(ctx, u.ID+100)
	expectNotFound(t, err)
}

func testCategories(t *testing.T, s port.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "cat@example.com")
	mustCategory(t, s, u.ID, "Salary", domain.Income)
	food := mustCategory(t, s, u.ID, "Food", domain.Expense)

	list, err := s.ListCategories(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Food" || list[1].Name != "Salary" {
		t.Fatalf("expected categories sorted by name, got %+v", list)
	}

	got, err := s.GetCategory(ctx, u.ID, food.ID)
	if err != nil || got.Type != domain.Expense {
		t.Fatalf("get: %+v, %v", got, err)
	}

	if err := s.DeleteCategory(ctx, u.ID, food.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = s.GetCategory(ctx, u.ID, food.ID)
	expectNotFound(t, err)
	expectNotFound(t, s.DeleteCategory(ctx, u.ID, food.ID))
}

func testTransactions(t *testing.T, s port.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "tx@example.com")
	food := mustCategory(t, s, u.ID, "Food", domain.Expense)

	older := mustTransaction(t, s, u.ID, "10.50", domain.NewDate(2024, time.January, 5), &food.ID)
	a := mustTransaction(t, s, u.ID, "0.10", domain.NewDate(2024, time.February, 1), nil)
	b := mustTransaction(t, s, u.ID, "99999.99", domain.NewDate(2024, time.February, 1), &food.ID)

	list, err := s.ListTransactions(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != b.ID || list[1].ID != a.ID || list[2].ID != older.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if !list[0].Amount.Equal(dec("99999.99")) || list[0].Date.String() != "2024-02-01" {
		t.Errorf("values did not round trip: %+v", list[0])
	}
	if list[1].CategoryID != nil {
		t.Errorf("expected nil category, got %v", *list[1].CategoryID)
	}

	weekly := domain.Weekly
	update := *older
	update.Amount = dec("12.25")
	update.Description = "Groceries, weekly"
	update.Recurring = true
	update.RecurringPeriod = &weekly
	updated, err := s.UpdateTransaction(ctx, &update)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Amount.Equal(dec("12.25")) || !updated.CreatedAt.Equal(older.CreatedAt) {
		t.Errorf("unexpected update result %+v", updated)
	}

	got, err := s.GetTransaction(ctx, u.ID, older.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "Groceries, weekly" || !got.Recurring || got.RecurringPeriod == nil || *got.RecurringPeriod != domain.Weekly {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := s.DeleteTransaction(ctx, u.ID, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = s.GetTransaction(ctx, u.ID, a.ID)
	expectNotFound(t, err)

	missing := update
	missing.ID = 9999
	_, err = s.UpdateTransaction(ctx, &missing)
	expectNotFound(t, err)
}

func testDateRange(t *testing.T, s port.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "range@example.com")
	mustTransaction(t, s, u.ID, "1", domain.NewDate(2024, time.January, 31), nil)
	mustTransaction(t, s, u.ID, "2", domain.NewDate(2024, time.February, 1), nil)
	mustTransaction(t, s, u.ID, "3", domain.NewDate(2024, time.February, 29), nil)
	mustTransaction(t, s, u.ID, "4", domain.NewDate(2024, time.March, 1), nil)

	tests := []struct {
		name string
		r    domain.TransactionRange
		want int
	}{
		{"closed", domain.TransactionRange{From: domain.NewDate(2024, 2, 1), To: domain.NewDate(2024, 2, 29)}, 2},
		{"open start", domain.TransactionRange{To: domain.NewDate(2024, 2, 1)}, 2},
		{"open end", domain.TransactionRange{From: domain.NewDate(2024, 2, 29)}, 2},
		{"unbounded", domain.TransactionRange{}, 4},
	}
	for _, tt := range tests {
		got, err := s.ListTransactionsByDateRange(ctx, u.ID, tt.r)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if len(got) != tt.want {
			t.Errorf("%s: expected %d transactions, got %d", tt.name, tt.want, len(got))
		}
	}
}

func testCategoryDelete(t *testing.T, s port.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "detach@example.com")
	food := mustCategory(t, s, u.ID, "Food", domain.Expense)
	tx := mustTransaction(t, s, u.ID, "5", domain.NewDate(2024, 1, 1), &food.ID)
	budget, err := s.CreateBudget(ctx, &domain.Budget{UserID: u.ID, CategoryID: food.ID, Amount: dec("100"), Period: domain.Monthly})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	if err := s.DeleteCategory(ctx, u.ID, food.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	got, err := s.GetTransaction(ctx, u.ID, tx.ID)
	if err != nil {
		t.Fatalf("transaction should survive category deletion: %v", err)
	}
	if got.CategoryID != nil {
		t.Errorf("expected category to be detached, got %d", *got.CategoryID)
	}
	if _, err := s.GetBudget(ctx, u.ID, budget.ID); err != nil {
		t.Errorf("budget should survive category deletion: %v", err)
	}
}

func testBudgets(t *testing.T, s port.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "budget@example.com")
	food := mustCategory(t, s, u.ID, "Food", domain.Expense)
	start := domain.NewDate(2024, time.January, 1)

	b, err := s.CreateBudget(ctx, &domain.Budget{UserID: u.ID, CategoryID: food.ID, Amount: dec("400.00"), Period: domain.Monthly, StartDate: &start})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := s.ListBudgets(ctx, u.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %+v, %v", list, err)
	}
	if list[0].StartDate == nil || list[0].StartDate.String() != "2024-01-01" || list[0].EndDate != nil {
		t.Errorf("dates did not round trip: %+v", list[0])
	}

	end := domain.NewDate(2024, time.December, 31)
	b.Amount = dec("450")
	b.Period = domain.Yearly
	b.EndDate = &end
	if _, err := s.UpdateBudget(ctx, b); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetBudget(ctx, u.ID, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Amount.Equal(dec("450")) || got.Period != domain.Yearly || got.EndDate == nil || got.EndDate.String() != "2024-12-31" {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := s.DeleteBudget(ctx, u.ID, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	expectNotFound(t, s.DeleteBudget(ctx, u.ID, b.ID))
}

func testSavingsGoals(t *testing.T, s port.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "goal@example.com")
	desc := "three months of rent"

	later, err := s.CreateSavingsGoal(ctx, &domain.SavingsGoal{UserID: u.ID, Title: "Car", TargetAmount: dec("5000"), CurrentAmount: dec("0"), TargetDate: domain.NewDate(2026, 1, 1)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sooner, err := s.CreateSavingsGoal(ctx, &domain.SavingsGoal{UserID: u.ID, Title: "Emergency", Description: &desc, TargetAmount: dec("3000"), CurrentAmount: dec("1250.75"), TargetDate: domain.NewDate(2025, 6, 1)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := s.ListSavingsGoals(ctx, u.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %+v, %v", list, err)
	}
	if list[0].ID != sooner.ID || list[1].ID != later.ID {
		t.Errorf("expected goals ordered by target date, got %+v", list)
	}
	if list[0].Description == nil || *list[0].Description != desc || !list[0].CurrentAmount.Equal(dec("1250.75")) {
		t.Errorf("values did not round trip: %+v", list[0])
	}

	sooner.CurrentAmount = dec("3000")
	if _, err := s.UpdateSavingsGoal(ctx, sooner); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetSavingsGoal(ctx, u.ID, sooner.ID)
	if err != nil || !got.CurrentAmount.Equal(dec("3000")) {
		t.Fatalf("update not persisted: %+v, %v", got, err)
	}

	if err := s.DeleteSavingsGoal(ctx, u.ID, later.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = s.GetSavingsGoal(ctx, u.ID, later.ID)
	expectNotFound(t, err)
}

func testOwnership(t *testing.T, s port.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice@example.com")
	bob := mustUser(t, s, "bob@example.com")

	cat := mustCategory(t, s, alice.ID, "Food", domain.Expense)
	tx := mustTransaction(t, s, alice.ID, "10", domain.NewDate(2024, 1, 1), &cat.ID)
	budget, err := s.CreateBudget(ctx, &domain.Budget{UserID: alice.ID, CategoryID: cat.ID, Amount: dec("10"), Period: domain.Monthly})
	if err != nil {
		t.Fatal(err)
	}
	goal, err := s.CreateSavingsGoal(ctx, &domain.SavingsGoal{UserID: alice.ID, Title: "Trip", TargetAmount: dec("10"), TargetDate: domain.NewDate(2025, 1, 1)})
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.GetCategory(ctx, bob.ID, cat.ID)
	expectNotFound(t, err)
	_, err = s.GetTransaction(ctx, bob.ID, tx.ID)
	expectNotFound(t, err)
	_, err = s.GetBudget(ctx, bob.ID, budget.ID)
	expectNotFound(t, err)
	_, err = s.GetSavingsGoal(ctx, bob.ID, goal.ID)
	expectNotFound(t, err)

	stolen := *tx
	stolen.UserID = bob.ID
	_, err = s.UpdateTransaction(ctx, &stolen)
	expectNotFound(t, err)
	expectNotFound(t, s.DeleteTransaction(ctx, bob.ID, tx.ID))
	expectNotFound(t, s.DeleteBudget(ctx, bob.ID, budget.ID))
	expectNotFound(t, s.DeleteSavingsGoal(ctx, bob.ID, goal.ID))
	expectNotFound(t, s.DeleteCategory(ctx, bob.ID, cat.ID))

	txns, err := s.ListTransactions(ctx, bob.ID)
	if err != nil || len(txns) != 0 {
		t.Errorf("bob should see no transactions, got %d (%v)", len(txns), err)
	}
	if _, err := s.GetTransaction(ctx, alice.ID, tx.ID); err != nil {
		t.Errorf("alice lost her transaction: %v", err)
	}
}
