package storage

import (
	"context"
	"fmt"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Demo account credentials.
const (
	DemoEmail    = "demo@financetracker.com"
	DemoPassword = "password"
)

var demoCategories = []domain.Category{
	{Name: "Salary", Type: domain.Income},
	{Name: "Freelance", Type: domain.Income},
	{Name: "Groceries", Type: domain.Expense},
	{Name: "Transportation", Type: domain.Expense},
	{Name: "Entertainment", Type: domain.Expense},
	{Name: "Shopping", Type: domain.Expense},
}

// SeedDemo creates the demo user with its default categories. It does nothing
// when the demo user already exists.
func SeedDemo(ctx context.Context, store port.Store, logger *zap.Logger) (*domain.User, error) {
	existing, err := store.GetUserByEmail(ctx, DemoEmail)
	if err != nil {
		return nil, fmt.Errorf("lookup demo user: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	first, last := "Demo", "User"
	user, err := store.CreateUser(ctx, &domain.User{
		Username:     "demo",
		Email:        DemoEmail,
		PasswordHash: string(hash),
		FirstName:    &first,
		LastName:     &last,
	})
	if err != nil {
		return nil, fmt.Errorf("create demo user: %w", err)
	}

	for _, c := range demoCategories {
		c.UserID = user.ID
		if _, err := store.CreateCategory(ctx, &c); err != nil {
			return nil, fmt.Errorf("create demo category %s: %w", c.Name, err)
		}
	}

	logger.Info("demo data seeded",
		zap.Int64("user_id", user.ID),
		zap.Int("categories", len(demoCategories)),
	)
	return user, nil
}
