package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// ServiceMetrics is returned by GET /api/metrics/summary.
type ServiceMetrics struct {
	Aggregations     map[string]int64 `json:"aggregations"`
	StoreErrors      int64            `json:"storeErrors"`
	EventsPublished  int64            `json:"eventsPublished"`
	EventsFailed     int64            `json:"eventsFailed"`
	TokenCacheHits   int64            `json:"tokenCacheHits"`
	TokenCacheMisses int64            `json:"tokenCacheMisses"`
}

// SuccessResponse wraps a successful mutation without a body.
type SuccessResponse struct {
	Message string `json:"message"`
}
