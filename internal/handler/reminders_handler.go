package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jardinchef/jardinchef-api/internal/domain"
	"github.com/jardinchef/jardinchef-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Reminders — candidates, badge, preview, send, history
// ============================================================

func listCandidatesHandler(svc *service.ReminderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reminders/candidates")
		defer span.End()

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.String("user.id", userID))

		// Optional reference date for previewing a different day.
		var today time.Time
		if dateStr := r.URL.Query().Get("date"); dateStr != "" {
			parsed, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
				return
			}
			today = parsed
		}

		candidates, err := svc.ListCandidates(ctx, userID, today)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"candidates": candidates,
			"count":      len(candidates),
		})
	}
}

func badgeHandler(svc *service.ReminderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reminders/badge")
		defer span.End()

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		count, err := svc.BadgeCount(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": count})
	}
}

func previewReminderHandler(svc *service.ReminderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/reminders/preview")
		defer span.End()

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		var req domain.SendReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := svc.Preview(ctx, userID, req.InvoiceID, req.TemplateID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func sendReminderHandler(svc *service.ReminderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/reminders/send")
		defer span.End()

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.String("user.id", userID))

		var req domain.SendReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("invoice.id", req.InvoiceID))

		result, err := svc.SendReminder(ctx, userID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func listTemplatesHandler(catalog *service.TemplateCatalog, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reminders/templates")
		defer span.End()

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		templates := catalog.List(ctx, userID)
		writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
	}
}

func reminderHistoryHandler(svc *service.ReminderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reminders/history/{invoiceId}")
		defer span.End()

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		invoiceID := chi.URLParam(r, "invoiceId")
		if invoiceID == "" {
			writeError(w, http.StatusBadRequest, "invoiceId is required")
			return
		}

		entry, err := svc.History(ctx, userID, invoiceID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}
