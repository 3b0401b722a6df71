package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrAggregation(observability.ViewDashboard)
	m.IncrAggregation(observability.ViewDashboard)
	m.IncrAggregation(observability.ViewReport)
	m.IncrStoreError("sqlite")
	m.IncrStoreError("postgres")
	m.IncrEvent("ok")
	m.IncrEvent("failed")
	m.IncrEvent("ok")
	m.IncrCacheHit(observability.CacheRevokedTokens)
	m.IncrCacheMiss(observability.CacheRevokedTokens)
	m.IncrCacheMiss(observability.CacheRevokedTokens)

	snap := m.Snapshot()

	if snap.Aggregations[observability.ViewDashboard] != 2 || snap.Aggregations[observability.ViewReport] != 1 {
		t.Errorf("unexpected aggregations %v", snap.Aggregations)
	}
	if _, ok := snap.Aggregations[observability.ViewTrend]; !ok {
		t.Error("expected every view in the snapshot")
	}
	if snap.StoreErrors != 2 {
		t.Errorf("expected 2 store errors, got %d", snap.StoreErrors)
	}
	if snap.EventsPublished != 2 || snap.EventsFailed != 1 {
		t.Errorf("unexpected events %d/%d", snap.EventsPublished, snap.EventsFailed)
	}
	if snap.TokenCacheHits != 1 || snap.TokenCacheMisses != 2 {
		t.Errorf("unexpected cache counters %d/%d", snap.TokenCacheHits, snap.TokenCacheMisses)
	}
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()

	a.IncrAggregation(observability.ViewTrend)

	if b.Snapshot().Aggregations[observability.ViewTrend] != 0 {
		t.Error("metrics leaked across registries")
	}
}

func TestZapLoggerMiddleware_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	tests := []struct {
		path   string
		status int
		level  zapcore.Level
	}{
		{"/api/dashboard", http.StatusOK, zapcore.InfoLevel},
		{"/api/transactions/9", http.StatusNotFound, zapcore.WarnLevel},
		{"/api/reports", http.StatusBadGateway, zapcore.ErrorLevel},
		{"/healthz", http.StatusOK, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		h := observability.ZapLoggerMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("%s: expected one log entry, got %d", tt.path, len(entries))
		}
		if entries[0].Level != tt.level {
			t.Errorf("%s: expected level %s, got %s", tt.path, tt.level, entries[0].Level)
		}
		if entries[0].ContextMap()["status"] != int64(tt.status) {
			t.Errorf("%s: unexpected status field %v", tt.path, entries[0].ContextMap()["status"])
		}
	}
}

func TestInitTracer_NoEndpoint(t *testing.T) {
	shutdown, err := observability.InitTracer("", "finance-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestZapLoggerMiddleware_TraceID(t *testing.T) {
	if _, err := observability.InitTracer("", "test"); err != nil {
		t.Fatal(err)
	}
	core, logs := observer.New(zapcore.InfoLevel)

	h := observability.TracingMiddleware(observability.ZapLoggerMiddleware(zap.New(core))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}),
	))
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.TakeAll()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["trace_id"]; got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("unexpected trace_id %v", got)
	}
}
