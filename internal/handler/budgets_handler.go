package handler

import (
	"net/http"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Budgets
// ============================================================

func listBudgetsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/budgets")
		defer span.End()

		budgets, err := svc.ListBudgets(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, budgets)
	}
}

func createBudgetHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/budgets")
		defer span.End()

		var req domain.Budget
		if !decodeJSON(w, r, &req) {
			return
		}

		b, err := svc.CreateBudget(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

func updateBudgetHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/budgets/{id}")
		defer span.End()

		id, ok := idParam(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.Int64("budget.id", id))

		var patch domain.BudgetPatch
		if !decodeJSON(w, r, &patch) {
			return
		}

		b, err := svc.UpdateBudget(ctx, UserIDFromContext(ctx), id, patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func deleteBudgetHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/budgets/{id}")
		defer span.End()

		id, ok := idParam(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.Int64("budget.id", id))

		if err := svc.DeleteBudget(ctx, UserIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "budget deleted"})
	}
}

// ============================================================
// Savings goals
// ============================================================

func listSavingsGoalsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/savings-goals")
		defer span.End()

		goals, err := svc.ListSavingsGoals(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, goals)
	}
}

func createSavingsGoalHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/savings-goals")
		defer span.End()

		var req domain.SavingsGoal
		if !decodeJSON(w, r, &req) {
			return
		}

		g, err := svc.CreateSavingsGoal(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, g)
	}
}

func updateSavingsGoalHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/savings-goals/{id}")
		defer span.End()

		id, ok := idParam(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.Int64("savings_goal.id", id))

		var patch domain.SavingsGoalPatch
		if !decodeJSON(w, r, &patch) {
			return
		}

		g, err := svc.UpdateSavingsGoal(ctx, UserIDFromContext(ctx), id, patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func deleteSavingsGoalHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/savings-goals/{id}")
		defer span.End()

		id, ok := idParam(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.Int64("savings_goal.id", id))

		if err := svc.DeleteSavingsGoal(ctx, UserIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "savings goal deleted"})
	}
}
