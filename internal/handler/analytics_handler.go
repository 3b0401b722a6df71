package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Dashboard & progress
// ============================================================

func dashboardHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/dashboard")
		defer span.End()

		d, err := svc.Dashboard(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func budgetsProgressHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/budgets/progress")
		defer span.End()

		progress, err := svc.BudgetsProgress(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, progress)
	}
}

func savingsProgressHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/savings-goals/progress")
		defer span.End()

		progress, err := svc.SavingsProgress(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, progress)
	}
}

// ============================================================
// Reports
// ============================================================

func reportHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/reports")
		defer span.End()

		filter, err := reportFilter(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("report.period", string(filter.Period)))

		report, err := svc.Report(ctx, UserIDFromContext(ctx), filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// exportCSVHandler buffers the CSV so a failure can still be answered as JSON.
func exportCSVHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/reports/export.csv")
		defer span.End()

		filter, err := reportFilter(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var buf bytes.Buffer
		rows, err := svc.ExportCSV(ctx, UserIDFromContext(ctx), filter, &buf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("csv.rows", rows))

		period := string(filter.Period)
		if period == "" {
			period = string(domain.PeriodThisMonth)
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="transactions-%s.csv"`, period))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

// ============================================================
// Statistics & charts
// ============================================================

func typeStatsHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/stats/{type}")
		defer span.End()

		typ := domain.TransactionType(chi.URLParam(r, "type"))
		stats, err := svc.TypeStats(ctx, UserIDFromContext(ctx), typ)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func monthlyTrendHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/charts/monthly")
		defer span.End()

		rng := domain.TrendRange(r.URL.Query().Get("range"))
		trend, err := svc.MonthlyTrend(ctx, UserIDFromContext(ctx), rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, trend)
	}
}

func monthlyChartHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/charts/monthly.png")
		defer span.End()

		rng := domain.TrendRange(r.URL.Query().Get("range"))
		img, err := svc.MonthlyChart(ctx, UserIDFromContext(ctx), rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(img)))
		w.WriteHeader(http.StatusOK)
		w.Write(img)
	}
}
