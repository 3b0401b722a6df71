package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger is the health probe the router needs from the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CircuitReporter is implemented by stores that sit behind a circuit breaker.
type CircuitReporter interface {
	CircuitOpen() bool
}

// Services groups what the router dispatches to. A nil AuthService disables
// the whole /api tree, since every route but register and login needs it.
type Services struct {
	Auth      *service.AuthService
	Finance   *service.FinanceService
	Analytics *service.AnalyticsService
	Store     Pinger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Store, logger))
	r.Get("/readyz", readyzHandler(svc.Store, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		if svc.Auth == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			}))
			return
		}

		// Public routes
		r.Post("/auth/register", authRegisterHandler(svc.Auth, logger))
		r.Post("/auth/login", authLoginHandler(svc.Auth, logger))

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svc.Auth, logger))

			r.Post("/auth/logout", authLogoutHandler(svc.Auth, logger))
			r.Get("/auth/me", authMeHandler(svc.Auth, logger))

			// Categories
			r.Get("/categories", listCategoriesHandler(svc.Finance, logger))
			r.Post("/categories", createCategoryHandler(svc.Finance, logger))
			r.Delete("/categories/{id}", deleteCategoryHandler(svc.Finance, logger))

			// Transactions
			r.Get("/transactions", listTransactionsHandler(svc.Finance, logger))
			r.Post("/transactions", createTransactionHandler(svc.Finance, logger))
			r.Put("/transactions/{id}", updateTransactionHandler(svc.Finance, logger))
			r.Delete("/transactions/{id}", deleteTransactionHandler(svc.Finance, logger))

			// Budgets
			r.Get("/budgets", listBudgetsHandler(svc.Finance, logger))
			r.Post("/budgets", createBudgetHandler(svc.Finance, logger))
			r.Get("/budgets/progress", budgetsProgressHandler(svc.Analytics, logger))
			r.Put("/budgets/{id}", updateBudgetHandler(svc.Finance, logger))
			r.Delete("/budgets/{id}", deleteBudgetHandler(svc.Finance, logger))

			// Savings goals
			r.Get("/savings-goals", listSavingsGoalsHandler(svc.Finance, logger))
			r.Post("/savings-goals", createSavingsGoalHandler(svc.Finance, logger))
			r.Get("/savings-goals/progress", savingsProgressHandler(svc.Analytics, logger))
			r.Put("/savings-goals/{id}", updateSavingsGoalHandler(svc.Finance, logger))
			r.Delete("/savings-goals/{id}", deleteSavingsGoalHandler(svc.Finance, logger))

			// Views
			r.Get("/dashboard", dashboardHandler(svc.Analytics, logger))
			r.Get("/reports", reportHandler(svc.Analytics, logger))
			r.Get("/reports/export.csv", exportCSVHandler(svc.Analytics, logger))
			r.Get("/stats/{type}", typeStatsHandler(svc.Analytics, logger))
			r.Get("/charts/monthly", monthlyTrendHandler(svc.Analytics, logger))
			r.Get("/charts/monthly.png", monthlyChartHandler(svc.Analytics, logger))

			r.Get("/metrics/summary", metricsSummaryHandler(metrics))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(store Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "finance-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if store != nil {
			start := time.Now()
			err := store.Ping(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				logger.Warn("healthz: store ping failed", zap.Error(err))
				status = "degraded"
			}
			if cr, ok := store.(CircuitReporter); ok && cr.CircuitOpen() {
				logger.Warn("healthz: store circuit breaker open")
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "store", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler(store Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				logger.Warn("readyz: store not reachable", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
