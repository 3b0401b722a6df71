// Package memstore is the in-memory entity store. Data lives for the life of
// the process; it backs local development, tests and the demo account.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
)

// Store keeps every entity in maps keyed by id, guarded by one RWMutex.
// Values are copied in and out so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	users        map[int64]domain.User
	categories   map[int64]domain.Category
	transactions map[int64]domain.Transaction
	budgets      map[int64]domain.Budget
	goals        map[int64]domain.SavingsGoal

	seq map[string]int64
	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:        make(map[int64]domain.User),
		categories:   make(map[int64]domain.Category),
		transactions: make(map[int64]domain.Transaction),
		budgets:      make(map[int64]domain.Budget),
		goals:        make(map[int64]domain.SavingsGoal),
		seq:          make(map[string]int64),
		now:          time.Now,
	}
}

// nextID must be called with mu held.
func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error              { return nil }

// ============================================================
// Users
// ============================================================

func (s *Store) GetUser(_ context.Context, userID int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, domain.NotFound("user", userID)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateUser(_ context.Context, u *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, &domain.ErrConflict{Message: "email already registered"}
		}
	}

	created := *u
	created.ID = s.nextID("users")
	created.CreatedAt = s.now().UTC()
	s.users[created.ID] = created
	return &created, nil
}

// ============================================================
// Categories
// ============================================================

func (s *Store) ListCategories(_ context.Context, userID int64) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, userID, categoryID int64) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[categoryID]
	if !ok || c.UserID != userID {
		return nil, domain.NotFound("category", categoryID)
	}
	return &c, nil
}

func (s *Store) CreateCategory(_ context.Context, c *domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *c
	created.ID = s.nextID("categories")
	s.categories[created.ID] = created
	return &created, nil
}

// DeleteCategory removes the category and detaches its transactions.
// Budgets keep the dangling id and report the category as unknown.
func (s *Store) DeleteCategory(_ context.Context, userID, categoryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[categoryID]
	if !ok || c.UserID != userID {
		return domain.NotFound("category", categoryID)
	}
	delete(s.categories, categoryID)

	for id, t := range s.transactions {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			t.CategoryID = nil
			s.transactions[id] = t
		}
	}
	return nil
}

// ============================================================
// Transactions
// ============================================================

func (s *Store) ListTransactions(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	return s.ListTransactionsByDateRange(ctx, userID, domain.TransactionRange{})
}

func (s *Store) ListTransactionsByDateRange(_ context.Context, userID int64, r domain.TransactionRange) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID && r.Contains(t.Date) {
			out = append(out, cloneTransaction(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, txID int64) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[txID]
	if !ok || t.UserID != userID {
		return nil, domain.NotFound("transaction", txID)
	}
	t = cloneTransaction(t)
	return &t, nil
}

func (s *Store) CreateTransaction(_ context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := cloneTransaction(*t)
	created.ID = s.nextID("transactions")
	created.CreatedAt = s.now().UTC()
	s.transactions[created.ID] = created

	out := cloneTransaction(created)
	return &out, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.transactions[t.ID]
	if !ok || existing.UserID != t.UserID {
		return nil, domain.NotFound("transaction", t.ID)
	}
	updated := cloneTransaction(*t)
	updated.CreatedAt = existing.CreatedAt
	s.transactions[t.ID] = updated

	out := cloneTransaction(updated)
	return &out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, txID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[txID]
	if !ok || t.UserID != userID {
		return domain.NotFound("transaction", txID)
	}
	delete(s.transactions, txID)
	return nil
}

// ============================================================
// Budgets
// ============================================================

func (s *Store) ListBudgets(_ context.Context, userID int64) ([]domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, cloneBudget(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetBudget(_ context.Context, userID, budgetID int64) (*domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.budgets[budgetID]
	if !ok || b.UserID != userID {
		return nil, domain.NotFound("budget", budgetID)
	}
	b = cloneBudget(b)
	return &b, nil
}

func (s *Store) CreateBudget(_ context.Context, b *domain.Budget) (*domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := cloneBudget(*b)
	created.ID = s.nextID("budgets")
	created.CreatedAt = s.now().UTC()
	s.budgets[created.ID] = created

	out := cloneBudget(created)
	return &out, nil
}

func (s *Store) UpdateBudget(_ context.Context, b *domain.Budget) (*domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.budgets[b.ID]
	if !ok || existing.UserID != b.UserID {
		return nil, domain.NotFound("budget", b.ID)
	}
	updated := cloneBudget(*b)
	updated.CreatedAt = existing.CreatedAt
	s.budgets[b.ID] = updated

	out := cloneBudget(updated)
	return &out, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, budgetID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.budgets[budgetID]
	if !ok || b.UserID != userID {
		return domain.NotFound("budget", budgetID)
	}
	delete(s.budgets, budgetID)
	return nil
}

// ============================================================
// Savings goals
// ============================================================

func (s *Store) ListSavingsGoals(_ context.Context, userID int64) ([]domain.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SavingsGoal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, cloneGoal(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TargetDate.Equal(out[j].TargetDate.Time) {
			return out[i].TargetDate.Before(out[j].TargetDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetSavingsGoal(_ context.Context, userID, goalID int64) (*domain.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return nil, domain.NotFound("savings goal", goalID)
	}
	g = cloneGoal(g)
	return &g, nil
}

func (s *Store) CreateSavingsGoal(_ context.Context, g *domain.SavingsGoal) (*domain.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := cloneGoal(*g)
	created.ID = s.nextID("savings_goals")
	created.CreatedAt = s.now().UTC()
	s.goals[created.ID] = created

	out := cloneGoal(created)
	return &out, nil
}

func (s *Store) UpdateSavingsGoal(_ context.Context, g *domain.SavingsGoal) (*domain.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.goals[g.ID]
	if !ok || existing.UserID != g.UserID {
		return nil, domain.NotFound("savings goal", g.ID)
	}
	updated := cloneGoal(*g)
	updated.CreatedAt = existing.CreatedAt
	s.goals[g.ID] = updated

	out := cloneGoal(updated)
	return &out, nil
}

func (s *Store) DeleteSavingsGoal(_ context.Context, userID, goalID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return domain.NotFound("savings goal", goalID)
	}
	delete(s.goals, goalID)
	return nil
}

// ============================================================
// Copies
// ============================================================

func cloneTransaction(t domain.Transaction) domain.Transaction {
	if t.CategoryID != nil {
		id := *t.CategoryID
		t.CategoryID = &id
	}
	if t.RecurringPeriod != nil {
		p := *t.RecurringPeriod
		t.RecurringPeriod = &p
	}
	return t
}

func cloneBudget(b domain.Budget) domain.Budget {
	if b.StartDate != nil {
		d := *b.StartDate
		b.StartDate = &d
	}
	if b.EndDate != nil {
		d := *b.EndDate
		b.EndDate = &d
	}
	return b
}

func cloneGoal(g domain.SavingsGoal) domain.SavingsGoal {
	if g.Description != nil {
		d := *g.Description
		g.Description = &d
	}
	return g
}
