package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// ReminderMetrics is returned by GET /v1/metrics/reminders.
type ReminderMetrics struct {
	TotalSent      int64   `json:"totalSent"`
	SentFirst      int64   `json:"sentFirst"`
	SentSecond     int64   `json:"sentSecond"`
	SentThird      int64   `json:"sentThird"`
	TransportFails int64   `json:"transportFailures"`
	CandidateCount int64   `json:"candidateCount"`
	CacheHitRate   float64 `json:"cacheHitRate"`
	Period         string  `json:"period"`
}

// ListResponse wraps paginated list results.
type ListResponse[T any] struct {
	Data     []T  `json:"data"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}
