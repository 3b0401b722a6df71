package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/handler"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/infra/postgres"

	"go.uber.org/zap"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthz(t *testing.T) {
	router := handler.NewRouter(handler.Services{}, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHealthz_StoreDown(t *testing.T) {
	router := handler.NewRouter(handler.Services{Store: stubPinger{err: errors.New("down")}}, observability.NewMetrics(), zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var health domain.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "degraded" {
		t.Errorf("expected degraded, got %s", health.Status)
	}
	if len(health.Services) != 2 || health.Services[1].Name != "store" {
		t.Errorf("unexpected services: %+v", health.Services)
	}
}

var _ handler.CircuitReporter = (*postgres.Store)(nil)

type breakerStore struct {
	stubPinger
	open bool
}

func (b breakerStore) CircuitOpen() bool { return b.open }

func TestHealthz_CircuitOpen(t *testing.T) {
	for _, open := range []bool{false, true} {
		router := handler.NewRouter(handler.Services{Store: breakerStore{open: open}}, observability.NewMetrics(), zap.NewNop())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		var health domain.HealthStatus
		if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
			t.Fatal(err)
		}
		want := "healthy"
		if open {
			want = "degraded"
		}
		if health.Status != want || health.Services[1].Status != want {
			t.Errorf("breaker open=%v: expected %s, got %+v", open, want, health)
		}
	}
}

func TestReadyz(t *testing.T) {
	router := handler.NewRouter(handler.Services{Store: stubPinger{}}, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz_StoreDown(t *testing.T) {
	router := handler.NewRouter(handler.Services{Store: stubPinger{err: errors.New("down")}}, observability.NewMetrics(), zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	metrics := observability.NewMetrics()
	metrics.IncrAggregation(observability.ViewDashboard)
	router := handler.NewRouter(handler.Services{}, metrics, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "dashboard") {
		t.Error("expected aggregation counter in exposition")
	}
}

func TestPing(t *testing.T) {
	router := handler.NewRouter(handler.Services{}, observability.NewMetrics(), zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAPI_WithoutAuthService(t *testing.T) {
	router := handler.NewRouter(handler.Services{}, observability.NewMetrics(), zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
