package handler

import (
	"net/http"

	"github.com/jardinchef/jardinchef-api/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Dashboard — GET /v1/dashboard/summary
// ============================================================

func dashboardSummaryHandler(svc *service.StatsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/summary")
		defer span.End()

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.String("user.id", userID))

		summary, err := svc.DashboardSummary(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
