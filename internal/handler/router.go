// Package handler wires the HTTP surface: routing, middleware, request
// decoding and error mapping. Handlers stay thin; everything
// interesting happens in the service layer.
package handler

import (
	"net/http"
	"time"

	"github.com/jardinchef/jardinchef-api/internal/domain"
	"github.com/jardinchef/jardinchef-api/internal/infra/observability"
	"github.com/jardinchef/jardinchef-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Deps bundles everything the router needs.
type Deps struct {
	Invoices  *service.InvoiceService
	Reminders *service.ReminderService
	Templates *service.TemplateCatalog
	Stats     *service.StatsService
	Metrics   *observability.Metrics
	Auth      AuthConfig
	Logger    *zap.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(d.Logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Invoices, d.Logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 (all routes scoped to the authenticated user) ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(SupabaseAuthMiddleware(d.Auth, d.Logger))

		// Invoices
		r.Get("/invoices", listInvoicesHandler(d.Invoices, d.Logger))
		r.Get("/invoices/{invoiceId}", getInvoiceHandler(d.Invoices, d.Logger))

		// Reminders
		r.Route("/reminders", func(r chi.Router) {
			r.Get("/candidates", listCandidatesHandler(d.Reminders, d.Logger))
			r.Get("/badge", badgeHandler(d.Reminders, d.Logger))
			r.Post("/preview", previewReminderHandler(d.Reminders, d.Logger))
			r.Post("/send", sendReminderHandler(d.Reminders, d.Logger))
			r.Get("/templates", listTemplatesHandler(d.Templates, d.Logger))
			r.Get("/history/{invoiceId}", reminderHistoryHandler(d.Reminders, d.Logger))
		})

		// Dashboard
		r.Get("/dashboard/summary", dashboardSummaryHandler(d.Stats, d.Logger))

		// Metrics snapshot for the frontend
		r.Get("/metrics/reminders", reminderMetricsHandler(d.Metrics))
	})

	return r
}

// ============================================================
// Health
// ============================================================

func healthzHandler(invoices *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "jardinchef-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if invoices != nil {
			start := time.Now()
			err := invoices.Ping(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overall = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// ============================================================
// Metrics snapshot
// ============================================================

func reminderMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetReminderSnapshot())
	}
}
