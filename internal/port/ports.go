// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// ExpiringCache is a Cache whose entries can carry their own lifetime.
type ExpiringCache[T any] interface {
	Cache[T]
	SetWithTTL(key string, value T, ttl time.Duration)
}

// UserStore persists accounts.
type UserStore interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	// GetUserByEmail returns nil, nil when no user has the address.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// CreateUser fails with *domain.ErrConflict on a duplicate email.
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
}

// CategoryStore persists categories. All methods are scoped to userID.
type CategoryStore interface {
	ListCategories(ctx context.Context, userID int64) ([]domain.Category, error)
	GetCategory(ctx context.Context, userID, categoryID int64) (*domain.Category, error)
	CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID int64) error
}

// TransactionStore persists transactions, newest first.
type TransactionStore interface {
	ListTransactions(ctx context.Context, userID int64) ([]domain.Transaction, error)
	ListTransactionsByDateRange(ctx context.Context, userID int64, r domain.TransactionRange) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, txID int64) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, txID int64) error
}

// BudgetStore persists budgets.
type BudgetStore interface {
	ListBudgets(ctx context.Context, userID int64) ([]domain.Budget, error)
	GetBudget(ctx context.Context, userID, budgetID int64) (*domain.Budget, error)
	CreateBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error)
	UpdateBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error)
	DeleteBudget(ctx context.Context, userID, budgetID int64) error
}

// SavingsGoalStore persists savings goals.
type SavingsGoalStore interface {
	ListSavingsGoals(ctx context.Context, userID int64) ([]domain.SavingsGoal, error)
	GetSavingsGoal(ctx context.Context, userID, goalID int64) (*domain.SavingsGoal, error)
	CreateSavingsGoal(ctx context.Context, g *domain.SavingsGoal) (*domain.SavingsGoal, error)
	UpdateSavingsGoal(ctx context.Context, g *domain.SavingsGoal) (*domain.SavingsGoal, error)
	DeleteSavingsGoal(ctx context.Context, userID, goalID int64) error
}

// Store is the full persistence layer. Implemented by the memory, SQLite and
// Postgres adapters. Reads and writes of another user's ids report
// *domain.ErrNotFound.
type Store interface {
	UserStore
	CategoryStore
	TransactionStore
	BudgetStore
	SavingsGoalStore

	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher delivers domain events to a broker.
type EventPublisher interface {
	PublishBudgetAlert(ctx context.Context, evt domain.BudgetAlertEvent) error
	Close() error
}
