package handler

import (
	"net/http"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Categories
// ============================================================

func listCategoriesHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/categories")
		defer span.End()

		cats, err := svc.ListCategories(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cats)
	}
}

func createCategoryHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/categories")
		defer span.End()

		var req domain.Category
		if !decodeJSON(w, r, &req) {
			return
		}

		cat, err := svc.CreateCategory(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, cat)
	}
}

func deleteCategoryHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/categories/{id}")
		defer span.End()

		id, ok := idParam(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.Int64("category.id", id))

		if err := svc.DeleteCategory(ctx, UserIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "category deleted"})
	}
}

// ============================================================
// Transactions
// ============================================================

func listTransactionsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/transactions")
		defer span.End()

		from, err := dateQuery(r, "from")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		to, err := dateQuery(r, "to")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		txns, err := svc.ListTransactions(ctx, UserIDFromContext(ctx), domain.TransactionRange{From: from, To: to})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, txns)
	}
}

func createTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/transactions")
		defer span.End()

		var req domain.Transaction
		if !decodeJSON(w, r, &req) {
			return
		}

		tx, err := svc.CreateTransaction(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func updateTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/transactions/{id}")
		defer span.End()

		id, ok := idParam(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.Int64("transaction.id", id))

		var patch domain.TransactionPatch
		if !decodeJSON(w, r, &patch) {
			return
		}

		tx, err := svc.UpdateTransaction(ctx, UserIDFromContext(ctx), id, patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func deleteTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/transactions/{id}")
		defer span.End()

		id, ok := idParam(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.Int64("transaction.id", id))

		if err := svc.DeleteTransaction(ctx, UserIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "transaction deleted"})
	}
}
