package integration_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jardinchef/jardinchef-api/internal/domain"
	"github.com/jardinchef/jardinchef-api/internal/handler"
	"github.com/jardinchef/jardinchef-api/internal/infra/cache"
	"github.com/jardinchef/jardinchef-api/internal/infra/mailer"
	"github.com/jardinchef/jardinchef-api/internal/infra/observability"
	"github.com/jardinchef/jardinchef-api/internal/infra/resilience"
	"github.com/jardinchef/jardinchef-api/internal/infra/supabase"
	"github.com/jardinchef/jardinchef-api/internal/service"

	"go.uber.org/zap"
)

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// fakePostgrest emulates the handful of PostgREST endpoints the API
// uses, with an in-memory reminder_history table so upserts round-trip.
type fakePostgrest struct {
	mu      sync.Mutex
	history map[string]map[string]any // invoice_id -> row
}

func newFakePostgrest() *fakePostgrest {
	return &fakePostgrest{history: map[string]map[string]any{}}
}

func (f *fakePostgrest) handler(t *testing.T, dueDate string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasPrefix(r.URL.Path, "/rest/v1/invoices"):
			json.NewEncoder(w).Encode([]map[string]any{{
				"id":             "inv-1",
				"user_id":        "user-1",
				"invoice_number": "F-2026-001",
				"client_name":    "Dupont Paysage",
				"client_email":   "compta@dupont.example",
				"total_amount":   1480.00,
				"due_date":       dueDate,
				"status":         "sent",
			}})

		case strings.HasPrefix(r.URL.Path, "/rest/v1/reminder_history"):
			f.mu.Lock()
			defer f.mu.Unlock()
			if r.Method == http.MethodPost {
				body, _ := io.ReadAll(r.Body)
				var row map[string]any
				if err := json.Unmarshal(body, &row); err != nil {
					t.Errorf("bad upsert body: %v", err)
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				f.history[row["invoice_id"].(string)] = row
				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode([]map[string]any{row})
				return
			}
			rows := make([]map[string]any, 0, len(f.history))
			for _, row := range f.history {
				rows = append(rows, row)
			}
			json.NewEncoder(w).Encode(rows)

		case strings.HasPrefix(r.URL.Path, "/rest/v1/email_templates"),
			strings.HasPrefix(r.URL.Path, "/rest/v1/quotes"),
			strings.HasPrefix(r.URL.Path, "/rest/v1/payments"):
			json.NewEncoder(w).Encode([]map[string]any{})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func buildRouter(t *testing.T, backendURL string) http.Handler {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("integration")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	store := supabase.NewClient(httpClient, backendURL, "anon", "service", cb, cfg, logger)

	templates := service.NewTemplateCatalog(store, cache.New[[]domain.MessageTemplate](time.Minute), logger)
	reminders := service.NewReminderService(store, store, templates, mailer.NewLogSender(logger),
		realClock{}, cache.New[int](time.Minute), metrics, logger, "Jardin Chef")

	return handler.NewRouter(handler.Deps{
		Invoices:  service.NewInvoiceService(store, logger),
		Reminders: reminders,
		Templates: templates,
		Stats:     service.NewStatsService(store, store, realClock{}, logger),
		Metrics:   metrics,
		Auth:      handler.AuthConfig{Required: false},
		Logger:    logger,
	})
}

// TestIntegration_ReminderFlow drives the full path: list candidates,
// send a reminder, and observe the recorded history in the next pass.
func TestIntegration_ReminderFlow(t *testing.T) {
	// 10 days overdue: first tier.
	dueDate := time.Now().AddDate(0, 0, -10).Format("2006-01-02")

	backend := newFakePostgrest()
	server := httptest.NewServer(backend.handler(t, dueDate))
	defer server.Close()

	router := buildRouter(t, server.URL)

	// --- 1. Candidates ---
	req := httptest.NewRequest(http.MethodGet, "/v1/reminders/candidates", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("candidates: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	var candidatesResp struct {
		Candidates []domain.ReminderCandidate `json:"candidates"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&candidatesResp); err != nil {
		t.Fatalf("decode candidates: %v", err)
	}
	if len(candidatesResp.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidatesResp.Candidates))
	}
	cand := candidatesResp.Candidates[0]
	if cand.RecommendedTier == nil || *cand.RecommendedTier != domain.TierFirst {
		t.Fatalf("expected first tier recommendation, got %v", cand.RecommendedTier)
	}
	if cand.SentCount != 0 {
		t.Errorf("expected sent_count 0 before any send, got %d", cand.SentCount)
	}

	// --- 2. Send ---
	req = httptest.NewRequest(http.MethodPost, "/v1/reminders/send",
		strings.NewReader(`{"invoice_id":"inv-1"}`))
	req.Header.Set("X-User-ID", "user-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	var result domain.SendReminderResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode send result: %v", err)
	}
	if result.Tier != domain.TierFirst {
		t.Errorf("expected first tier, got %s", result.Tier)
	}
	if result.History.SentCount != 1 {
		t.Errorf("expected recorded sent_count 1, got %d", result.History.SentCount)
	}
	if !strings.Contains(result.Rendered.Body, "F-2026-001") {
		t.Errorf("expected invoice number in rendered body")
	}

	// --- 3. Candidates again: history is visible ---
	req = httptest.NewRequest(http.MethodGet, "/v1/reminders/candidates", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("candidates: expected 200, got %d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&candidatesResp); err != nil {
		t.Fatalf("decode candidates: %v", err)
	}
	cand = candidatesResp.Candidates[0]
	if cand.SentCount != 1 {
		t.Errorf("expected sent_count 1 after send, got %d", cand.SentCount)
	}
	// 10 days late with one send: still first, second needs 15.
	if cand.RecommendedTier == nil || *cand.RecommendedTier != domain.TierFirst {
		t.Errorf("expected first tier after one send at 10 days, got %v", cand.RecommendedTier)
	}
}

// TestIntegration_BackendDown verifies the send path surfaces store
// failures instead of silently reporting success.
func TestIntegration_BackendDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	router := buildRouter(t, server.URL)

	req := httptest.NewRequest(http.MethodPost, "/v1/reminders/send",
		strings.NewReader(`{"invoice_id":"inv-1"}`))
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code == http.StatusCreated {
		t.Error("expected failure when store is unavailable")
	}
}

// TestIntegration_DashboardSummary exercises the fan-out across
// invoices, quotes and payments against the fake backend.
func TestIntegration_DashboardSummary(t *testing.T) {
	dueDate := time.Now().AddDate(0, 0, -20).Format("2006-01-02")

	backend := newFakePostgrest()
	server := httptest.NewServer(backend.handler(t, dueDate))
	defer server.Close()

	router := buildRouter(t, server.URL)

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard/summary", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	var summary domain.DashboardSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.InvoiceCount != 1 {
		t.Errorf("expected 1 invoice, got %d", summary.InvoiceCount)
	}
	if summary.OverdueCount != 1 || summary.OverdueTotal != 1480 {
		t.Errorf("unexpected overdue aggregates: %+v", summary)
	}
}
