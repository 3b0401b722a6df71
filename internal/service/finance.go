package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/finance-tracker-go/internal/analytics"
	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var financeTracer = otel.Tracer("service/finance")

// FinanceService validates and persists a user's categories, transactions,
// budgets and savings goals.
type FinanceService struct {
	store    port.Store
	events   port.EventPublisher
	settings Settings
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewFinanceService creates the CRUD service. events may be nil.
func NewFinanceService(store port.Store, events port.EventPublisher, settings Settings, metrics *observability.Metrics, logger *zap.Logger) *FinanceService {
	return &FinanceService{
		store:    store,
		events:   events,
		settings: settings,
		metrics:  metrics,
		logger:   logger,
	}
}

// storeErr wraps a store failure and counts it unless it is a domain outcome.
func (s *FinanceService) storeErr(op string, err error) error {
	countStoreError(s.metrics, s.settings.Backend, err)
	return fmt.Errorf("%s: %w", op, err)
}

func countStoreError(m *observability.Metrics, backend string, err error) {
	var (
		nf       *domain.ErrNotFound
		conflict *domain.ErrConflict
	)
	if errors.As(err, &nf) || errors.As(err, &conflict) || errors.Is(err, context.Canceled) {
		return
	}
	m.IncrStoreError(backend)
}

// ============================================================
// Categories
// ============================================================

func (s *FinanceService) ListCategories(ctx context.Context, userID int64) ([]domain.Category, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListCategories")
	defer span.End()

	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, s.storeErr("list categories", err)
	}
	return nonNil(cats), nil
}

func (s *FinanceService) CreateCategory(ctx context.Context, userID int64, c *domain.Category) (*domain.Category, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateCategory")
	defer span.End()

	c.UserID = userID
	if err := c.Validate(); err != nil {
		return nil, err
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return nil, s.storeErr("create category", err)
	}
	s.logger.Info("category created", zap.Int64("user_id", userID), zap.Int64("category_id", created.ID))
	return created, nil
}

// DeleteCategory removes a category. Its transactions become uncategorized;
// budgets keep the dangling id and report as "Unknown".
func (s *FinanceService) DeleteCategory(ctx context.Context, userID, categoryID int64) error {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteCategory")
	defer span.End()

	if err := s.store.DeleteCategory(ctx, userID, categoryID); err != nil {
		return s.storeErr("delete category", err)
	}
	return nil
}

// checkCategory verifies that id names one of the user's categories of type typ.
func (s *FinanceService) checkCategory(ctx context.Context, userID int64, id *int64, typ domain.TransactionType) error {
	if id == nil {
		return nil
	}
	c, err := s.store.GetCategory(ctx, userID, *id)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return &domain.ErrValidation{Field: "categoryId", Message: "unknown category"}
		}
		return s.storeErr("get category", err)
	}
	if c.Type != typ {
		return &domain.ErrValidation{Field: "categoryId", Message: fmt.Sprintf("category is not of type %s", typ)}
	}
	return nil
}

// ============================================================
// Transactions
// ============================================================

func (s *FinanceService) ListTransactions(ctx context.Context, userID int64, r domain.TransactionRange) ([]domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListTransactions")
	defer span.End()

	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return nil, &domain.ErrValidation{Field: "to", Message: "must not be before from"}
	}
	txns, err := s.store.ListTransactionsByDateRange(ctx, userID, r)
	if err != nil {
		return nil, s.storeErr("list transactions", err)
	}
	return nonNil(txns), nil
}

func (s *FinanceService) CreateTransaction(ctx context.Context, userID int64, t *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateTransaction")
	defer span.End()

	t.UserID = userID
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, userID, t.CategoryID, t.Type); err != nil {
		return nil, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return nil, s.storeErr("create transaction", err)
	}
	span.SetAttributes(attribute.Int64("transaction.id", created.ID))

	s.alertBudgets(ctx, created)
	return created, nil
}

func (s *FinanceService) UpdateTransaction(ctx context.Context, userID, txID int64, patch domain.TransactionPatch) (*domain.Transaction, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateTransaction")
	defer span.End()

	t, err := s.store.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, s.storeErr("get transaction", err)
	}
	patch.Apply(t)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, userID, t.CategoryID, t.Type); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return nil, s.storeErr("update transaction", err)
	}

	s.alertBudgets(ctx, updated)
	return updated, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, userID, txID int64) error {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteTransaction")
	defer span.End()

	if err := s.store.DeleteTransaction(ctx, userID, txID); err != nil {
		return s.storeErr("delete transaction", err)
	}
	return nil
}

// ============================================================
// Budgets
// ============================================================

func (s *FinanceService) ListBudgets(ctx context.Context, userID int64) ([]domain.Budget, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListBudgets")
	defer span.End()

	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, s.storeErr("list budgets", err)
	}
	return nonNil(budgets), nil
}

func (s *FinanceService) CreateBudget(ctx context.Context, userID int64, b *domain.Budget) (*domain.Budget, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateBudget")
	defer span.End()

	b.UserID = userID
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, userID, &b.CategoryID, domain.Expense); err != nil {
		return nil, err
	}

	created, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return nil, s.storeErr("create budget", err)
	}
	return created, nil
}

func (s *FinanceService) UpdateBudget(ctx context.Context, userID, budgetID int64, patch domain.BudgetPatch) (*domain.Budget, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateBudget")
	defer span.End()

	b, err := s.store.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return nil, s.storeErr("get budget", err)
	}
	before := b.CategoryID
	patch.Apply(b)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	// A budget may outlive its category; only a changed id is re-checked.
	if b.CategoryID != before {
		if err := s.checkCategory(ctx, userID, &b.CategoryID, domain.Expense); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.UpdateBudget(ctx, b)
	if err != nil {
		return nil, s.storeErr("update budget", err)
	}
	return updated, nil
}

func (s *FinanceService) DeleteBudget(ctx context.Context, userID, budgetID int64) error {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteBudget")
	defer span.End()

	if err := s.store.DeleteBudget(ctx, userID, budgetID); err != nil {
		return s.storeErr("delete budget", err)
	}
	return nil
}

// ============================================================
// Savings goals
// ============================================================

func (s *FinanceService) ListSavingsGoals(ctx context.Context, userID int64) ([]domain.SavingsGoal, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListSavingsGoals")
	defer span.End()

	goals, err := s.store.ListSavingsGoals(ctx, userID)
	if err != nil {
		return nil, s.storeErr("list savings goals", err)
	}
	return nonNil(goals), nil
}

func (s *FinanceService) CreateSavingsGoal(ctx context.Context, userID int64, g *domain.SavingsGoal) (*domain.SavingsGoal, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateSavingsGoal")
	defer span.End()

	g.UserID = userID
	if err := g.Validate(); err != nil {
		return nil, err
	}
	created, err := s.store.CreateSavingsGoal(ctx, g)
	if err != nil {
		return nil, s.storeErr("create savings goal", err)
	}
	return created, nil
}

func (s *FinanceService) UpdateSavingsGoal(ctx context.Context, userID, goalID int64, patch domain.SavingsGoalPatch) (*domain.SavingsGoal, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateSavingsGoal")
	defer span.End()

	g, err := s.store.GetSavingsGoal(ctx, userID, goalID)
	if err != nil {
		return nil, s.storeErr("get savings goal", err)
	}
	patch.Apply(g)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateSavingsGoal(ctx, g)
	if err != nil {
		return nil, s.storeErr("update savings goal", err)
	}
	return updated, nil
}

func (s *FinanceService) DeleteSavingsGoal(ctx context.Context, userID, goalID int64) error {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteSavingsGoal")
	defer span.End()

	if err := s.store.DeleteSavingsGoal(ctx, userID, goalID); err != nil {
		return s.storeErr("delete savings goal", err)
	}
	return nil
}

// ============================================================
// Budget alerts
// ============================================================

// alertBudgets publishes an event for every budget of t's category that is
// in the warning or danger tier after t was written. Failures are logged only.
func (s *FinanceService) alertBudgets(ctx context.Context, t *domain.Transaction) {
	if s.events == nil || t.Type != domain.Expense || t.CategoryID == nil {
		return
	}
	ctx, span := financeTracer.Start(ctx, "FinanceService.alertBudgets")
	defer span.End()

	log := s.logger.With(zap.Int64("user_id", t.UserID), zap.Int64("category_id", *t.CategoryID))

	budgets, err := s.store.ListBudgets(ctx, t.UserID)
	if err != nil {
		countStoreError(s.metrics, s.settings.Backend, err)
		log.Warn("budget alerts skipped", zap.Error(err))
		return
	}
	var matching []domain.Budget
	for _, b := range budgets {
		if b.CategoryID == *t.CategoryID {
			matching = append(matching, b)
		}
	}
	if len(matching) == 0 {
		return
	}

	categories, err := s.store.ListCategories(ctx, t.UserID)
	if err != nil {
		countStoreError(s.metrics, s.settings.Backend, err)
		log.Warn("budget alerts skipped", zap.Error(err))
		return
	}
	txns, err := s.store.ListTransactions(ctx, t.UserID)
	if err != nil {
		countStoreError(s.metrics, s.settings.Backend, err)
		log.Warn("budget alerts skipped", zap.Error(err))
		return
	}

	now := s.settings.now()
	for _, b := range matching {
		p := analytics.BudgetProgress(b, categories, txns, s.settings.window(), now)
		if p.Status == domain.BudgetGood {
			continue
		}
		evt := domain.BudgetAlertEvent{
			UserID:       t.UserID,
			BudgetID:     b.ID,
			CategoryID:   b.CategoryID,
			CategoryName: p.CategoryName,
			Status:       p.Status,
			Percentage:   p.Percentage,
			Spent:        p.Spent,
			Amount:       p.Amount,
			OccurredAt:   now,
		}
		if err := s.events.PublishBudgetAlert(ctx, evt); err != nil {
			s.metrics.IncrEvent("failed")
			log.Warn("budget alert not published", zap.Int64("budget_id", b.ID), zap.Error(err))
			continue
		}
		s.metrics.IncrEvent("ok")
		log.Info("budget alert published", zap.Int64("budget_id", b.ID), zap.String("status", string(p.Status)))
	}
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
