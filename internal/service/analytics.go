package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/analytics"
	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/chart"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var analyticsTracer = otel.Tracer("service/analytics")

// AnalyticsService loads a user's entities and runs the aggregation engine
// over them with the service clock.
type AnalyticsService struct {
	store    port.Store
	settings Settings
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAnalyticsService creates the read-side service.
func NewAnalyticsService(store port.Store, settings Settings, metrics *observability.Metrics, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:    store,
		settings: settings,
		metrics:  metrics,
		logger:   logger,
	}
}

// snapshot is the subset of a user's entities one view needs.
type snapshot struct {
	categories   []domain.Category
	transactions []domain.Transaction
	budgets      []domain.Budget
	goals        []domain.SavingsGoal
}

type need uint8

const (
	needCategories need = 1 << iota
	needTransactions
	needBudgets
	needGoals
)

// load fetches the requested entity lists concurrently.
func (s *AnalyticsService) load(ctx context.Context, userID int64, n need) (*snapshot, error) {
	var snap snapshot
	g, gCtx := errgroup.WithContext(ctx)

	if n&needCategories != 0 {
		g.Go(func() error {
			c, err := s.store.ListCategories(gCtx, userID)
			if err != nil {
				return s.fetchErr("categories", userID, err)
			}
			snap.categories = c
			return nil
		})
	}
	if n&needTransactions != 0 {
		g.Go(func() error {
			t, err := s.store.ListTransactions(gCtx, userID)
			if err != nil {
				return s.fetchErr("transactions", userID, err)
			}
			snap.transactions = t
			return nil
		})
	}
	if n&needBudgets != 0 {
		g.Go(func() error {
			b, err := s.store.ListBudgets(gCtx, userID)
			if err != nil {
				return s.fetchErr("budgets", userID, err)
			}
			snap.budgets = b
			return nil
		})
	}
	if n&needGoals != 0 {
		g.Go(func() error {
			gs, err := s.store.ListSavingsGoals(gCtx, userID)
			if err != nil {
				return s.fetchErr("savings goals", userID, err)
			}
			snap.goals = gs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *AnalyticsService) fetchErr(what string, userID int64, err error) error {
	countStoreError(s.metrics, s.settings.Backend, err)
	s.logger.Error("failed to fetch "+what, zap.Int64("user_id", userID), zap.Error(err))
	return fmt.Errorf("%s fetch: %w", what, err)
}

// observe records one computed view.
func (s *AnalyticsService) observe(view string, start time.Time) {
	s.metrics.IncrAggregation(view)
	s.metrics.RecordRequestDuration(view, time.Since(start))
}

// ============================================================
// Dashboard: GET /api/dashboard
// ============================================================

func (s *AnalyticsService) Dashboard(ctx context.Context, userID int64) (*domain.Dashboard, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Dashboard")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))
	start := time.Now()

	snap, err := s.load(ctx, userID, needCategories|needTransactions|needBudgets|needGoals)
	if err != nil {
		return nil, err
	}
	now := s.settings.now()

	d := &domain.Dashboard{
		Stats:              analytics.Dashboard(snap.transactions, snap.goals, now),
		Budgets:            nonNil(analytics.BudgetsProgress(snap.budgets, snap.categories, snap.transactions, s.settings.window(), now)),
		RecentTransactions: nonNil(analytics.RecentTransactions(snap.transactions, snap.categories, s.settings.recentLimit())),
		SavingsGoals:       nonNil(analytics.SavingsGoalsProgress(snap.goals, now)),
	}
	s.observe(observability.ViewDashboard, start)
	return d, nil
}

// ============================================================
// Budgets & goals progress
// ============================================================

func (s *AnalyticsService) BudgetsProgress(ctx context.Context, userID int64) ([]domain.BudgetProgress, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.BudgetsProgress")
	defer span.End()
	start := time.Now()

	snap, err := s.load(ctx, userID, needCategories|needTransactions|needBudgets)
	if err != nil {
		return nil, err
	}
	out := analytics.BudgetsProgress(snap.budgets, snap.categories, snap.transactions, s.settings.window(), s.settings.now())
	s.observe(observability.ViewBudgets, start)
	return nonNil(out), nil
}

func (s *AnalyticsService) SavingsProgress(ctx context.Context, userID int64) ([]domain.SavingsProgress, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.SavingsProgress")
	defer span.End()
	start := time.Now()

	snap, err := s.load(ctx, userID, needGoals)
	if err != nil {
		return nil, err
	}
	out := analytics.SavingsGoalsProgress(snap.goals, s.settings.now())
	s.observe(observability.ViewSavings, start)
	return nonNil(out), nil
}

// ============================================================
// Reports: GET /api/reports, /api/reports/export.csv
// ============================================================

func validateFilter(f domain.ReportFilter) error {
	if f.Period != "" && !f.Period.Valid() {
		return &domain.ErrValidation{Field: "period", Message: "must be thisMonth, lastMonth, thisYear or all"}
	}
	return nil
}

func (s *AnalyticsService) Report(ctx context.Context, userID int64, filter domain.ReportFilter) (*domain.Report, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Report")
	defer span.End()
	span.SetAttributes(attribute.String("report.period", string(filter.Period)))
	start := time.Now()

	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, userID, needCategories|needTransactions)
	if err != nil {
		return nil, err
	}
	r := analytics.BuildReport(snap.transactions, snap.categories, filter, s.settings.now())
	r.Breakdown = nonNil(r.Breakdown)
	s.observe(observability.ViewReport, start)
	return &r, nil
}

// ExportCSV writes the filtered transactions of a report as CSV to w and
// returns the number of data rows.
func (s *AnalyticsService) ExportCSV(ctx context.Context, userID int64, filter domain.ReportFilter, w io.Writer) (int, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.ExportCSV")
	defer span.End()
	start := time.Now()

	if err := validateFilter(filter); err != nil {
		return 0, err
	}
	snap, err := s.load(ctx, userID, needCategories|needTransactions)
	if err != nil {
		return 0, err
	}
	r := analytics.BuildReport(snap.transactions, snap.categories, filter, s.settings.now())
	if err := analytics.WriteCSV(w, r.Transactions, snap.categories); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}
	s.observe(observability.ViewExport, start)
	return len(r.Transactions), nil
}

// ============================================================
// Type statistics: GET /api/stats/{type}
// ============================================================

func (s *AnalyticsService) TypeStats(ctx context.Context, userID int64, typ domain.TransactionType) (*domain.TypeStats, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.TypeStats")
	defer span.End()
	start := time.Now()

	if !typ.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be income or expense"}
	}
	snap, err := s.load(ctx, userID, needCategories|needTransactions)
	if err != nil {
		return nil, err
	}
	st := analytics.TypeStats(snap.transactions, snap.categories, typ, s.settings.now())
	s.observe(observability.ViewTypeStats, start)
	return &st, nil
}

// ============================================================
// Charts: GET /api/charts/monthly(.png)
// ============================================================

func (s *AnalyticsService) MonthlyTrend(ctx context.Context, userID int64, rng domain.TrendRange) (*domain.MonthlyTrend, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.MonthlyTrend")
	defer span.End()
	start := time.Now()

	if rng == "" {
		rng = domain.TrendSixMonths
	}
	if !rng.Valid() {
		return nil, &domain.ErrValidation{Field: "range", Message: "must be 6months, 12months or year"}
	}
	snap, err := s.load(ctx, userID, needTransactions)
	if err != nil {
		return nil, err
	}
	trend := analytics.MonthlyTrend(snap.transactions, rng, s.settings.now())
	s.observe(observability.ViewTrend, start)
	return &trend, nil
}

// MonthlyChart renders MonthlyTrend as a PNG.
func (s *AnalyticsService) MonthlyChart(ctx context.Context, userID int64, rng domain.TrendRange) ([]byte, error) {
	trend, err := s.MonthlyTrend(ctx, userID, rng)
	if err != nil {
		return nil, err
	}
	img, err := chart.MonthlyPNG(*trend)
	if err != nil {
		return nil, fmt.Errorf("monthly chart: %w", err)
	}
	return img, nil
}
