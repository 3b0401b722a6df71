package observability

import (
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Aggregation view labels.
const (
	ViewDashboard = "dashboard"
	ViewBudgets   = "budgets"
	ViewSavings   = "savings"
	ViewReport    = "report"
	ViewExport    = "export"
	ViewTypeStats = "type_stats"
	ViewTrend     = "trend"
)

var (
	views    = []string{ViewDashboard, ViewBudgets, ViewSavings, ViewReport, ViewExport, ViewTypeStats, ViewTrend}
	backends = []string{"memory", "sqlite", "postgres"}
)

// Cache label for the revoked token denylist.
const CacheRevokedTokens = "revoked_tokens"

// Metrics holds all Prometheus metrics for the finance service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	aggregations    *prometheus.CounterVec
	eventsTotal     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finance_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_store_errors_total",
				Help: "Total errors returned by the entity store.",
			},
			[]string{"backend"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		aggregations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_aggregations_total",
				Help: "Total aggregation engine runs by view.",
			},
			[]string{"view"},
		),
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_events_total",
				Help: "Budget alert events by publish outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStoreError increments the store error counter.
func (m *Metrics) IncrStoreError(backend string) {
	m.storeErrors.WithLabelValues(backend).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrAggregation counts one engine run for view.
func (m *Metrics) IncrAggregation(view string) {
	m.aggregations.WithLabelValues(view).Inc()
}

// IncrEvent counts a published ("ok") or failed ("failed") event.
func (m *Metrics) IncrEvent(outcome string) {
	m.eventsTotal.WithLabelValues(outcome).Inc()
}

// Snapshot returns the counters suitable for GET /api/metrics/summary.
func (m *Metrics) Snapshot() *domain.ServiceMetrics {
	snap := &domain.ServiceMetrics{
		Aggregations: make(map[string]int64, len(views)),
	}
	for _, v := range views {
		snap.Aggregations[v] = int64(getCounterValue(m.aggregations, v))
	}
	for _, b := range backends {
		snap.StoreErrors += int64(getCounterValue(m.storeErrors, b))
	}
	snap.EventsPublished = int64(getCounterValue(m.eventsTotal, "ok"))
	snap.EventsFailed = int64(getCounterValue(m.eventsTotal, "failed"))
	snap.TokenCacheHits = int64(getCounterValue(m.cacheHits, CacheRevokedTokens))
	snap.TokenCacheMisses = int64(getCounterValue(m.cacheMisses, CacheRevokedTokens))
	return snap
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
