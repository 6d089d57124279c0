package observability

import (
	"time"

	"github.com/jardinchef/jardinchef-api/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the Jardin Chef API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	remindersSent   *prometheus.CounterVec
	transportFails  prometheus.Counter
	candidateCount  prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
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
				Name:    "jardinchef_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jardinchef_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jardinchef_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jardinchef_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		remindersSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jardinchef_reminders_sent_total",
				Help: "Total payment reminders recorded, by tier.",
			},
			[]string{"tier"},
		),
		transportFails: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jardinchef_reminder_transport_failures_total",
				Help: "Total reminder sends where the email hand-off failed.",
			},
		),
		candidateCount: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "jardinchef_reminder_candidates",
				Help: "Overdue invoices currently eligible for a reminder (badge count).",
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jardinchef_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrReminderSent increments the sent counter for a tier.
func (m *Metrics) IncrReminderSent(tier domain.ReminderTier) {
	m.remindersSent.WithLabelValues(string(tier)).Inc()
}

// IncrTransportFailure increments the email hand-off failure counter.
func (m *Metrics) IncrTransportFailure() {
	m.transportFails.Inc()
}

// SetCandidateCount sets the badge gauge.
func (m *Metrics) SetCandidateCount(n int) {
	m.candidateCount.Set(float64(n))
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetReminderSnapshot returns a snapshot of reminder-related metrics for
// the GET /v1/metrics/reminders endpoint.
func (m *Metrics) GetReminderSnapshot() *domain.ReminderMetrics {
	first := getCounterValue(m.remindersSent, string(domain.TierFirst))
	second := getCounterValue(m.remindersSent, string(domain.TierSecond))
	third := getCounterValue(m.remindersSent, string(domain.TierThird))

	hits := getCounterValue(m.cacheHits, "badge")
	misses := getCounterValue(m.cacheMisses, "badge")
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.ReminderMetrics{
		TotalSent:      int64(first + second + third),
		SentFirst:      int64(first),
		SentSecond:     int64(second),
		SentThird:      int64(third),
		TransportFails: int64(getSingleCounterValue(m.transportFails)),
		CandidateCount: int64(getGaugeValue(m.candidateCount)),
		CacheHitRate:   hitRate,
		Period:         "all_time",
	}
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

func getSingleCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getGaugeValue(g prometheus.Gauge) float64 {
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		return 0
	}
	if m.Gauge != nil && m.Gauge.Value != nil {
		return *m.Gauge.Value
	}
	return 0
}
