// Package service provides the business logic layer (use cases).
// ReminderService is the payment-reminder cadence engine: it decides
// which invoices need a reminder, which escalation tier applies, and
// records what was sent.
package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jardinchef/jardinchef-api/internal/domain"
	"github.com/jardinchef/jardinchef-api/internal/infra/observability"
	"github.com/jardinchef/jardinchef-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var reminderTracer = otel.Tracer("service/reminder")

// ReminderService composes the invoice source, history store, template
// catalog and email transport into the reminder workflow.
type ReminderService struct {
	invoices  port.InvoiceSource
	history   port.ReminderHistoryStore
	templates *TemplateCatalog
	sender    port.EmailSender
	clock     port.Clock
	badge     port.Cache[int]
	metrics   *observability.Metrics
	logger    *zap.Logger

	companyName string

	// Serializes read-modify-write of history entries so a double-click
	// cannot lose an increment. Single-process deployment.
	sendMu sync.Mutex
}

// NewReminderService creates the reminder engine with all dependencies injected.
func NewReminderService(
	invoices port.InvoiceSource,
	history port.ReminderHistoryStore,
	templates *TemplateCatalog,
	sender port.EmailSender,
	clock port.Clock,
	badge port.Cache[int],
	metrics *observability.Metrics,
	logger *zap.Logger,
	companyName string,
) *ReminderService {
	return &ReminderService{
		invoices:    invoices,
		history:     history,
		templates:   templates,
		sender:      sender,
		clock:       clock,
		badge:       badge,
		metrics:     metrics,
		logger:      logger,
		companyName: companyName,
	}
}

// RecommendTier returns the escalation tier for an invoice given how
// many reminders were already sent and how late it is. nil means the
// invoice is visible but below the first threshold. The tier never
// drops below what the sent count implies: once a first reminder went
// out, the floor is first; after two sends, second.
func RecommendTier(sentCount, daysLate int) *domain.ReminderTier {
	tierPtr := func(t domain.ReminderTier) *domain.ReminderTier { return &t }

	switch {
	case sentCount <= 0:
		if daysLate >= domain.TierFirstThresholdDays {
			return tierPtr(domain.TierFirst)
		}
		return nil
	case sentCount == 1:
		if daysLate >= domain.TierSecondThresholdDays {
			return tierPtr(domain.TierSecond)
		}
		return tierPtr(domain.TierFirst)
	default:
		if daysLate >= domain.TierThirdThresholdDays {
			return tierPtr(domain.TierThird)
		}
		return tierPtr(domain.TierSecond)
	}
}

// Classify computes reminder candidates for a set of invoices. Pure:
// same inputs, same output, same order. An invoice appears whenever it
// is late at all (daysLate > 0); RecommendedTier stays nil until the
// 7/15/30-day thresholds (gated by sent count) are reached, so the UI
// can show "not yet due for reminder" instead of hiding the row.
// Invoices with a missing due date cannot be assessed and are excluded.
func Classify(invoices []domain.Invoice, historyByInvoiceID map[string]domain.ReminderHistoryEntry, today time.Time) []domain.ReminderCandidate {
	candidates := make([]domain.ReminderCandidate, 0, len(invoices))

	for _, inv := range invoices {
		if !inv.ReminderEligible() {
			continue
		}
		if inv.DueDate.IsZero() {
			continue
		}
		daysLate := inv.DaysLate(today)
		if daysLate <= 0 {
			continue
		}

		cand := domain.ReminderCandidate{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			ClientName:    inv.ClientName,
			Amount:        inv.TotalAmount,
			DaysLate:      daysLate,
		}
		if entry, ok := historyByInvoiceID[inv.ID]; ok {
			cand.SentCount = entry.SentCount
			if !entry.LastSentAt.IsZero() {
				t := entry.LastSentAt
				cand.LastReminderAt = &t
			}
		}
		cand.RecommendedTier = RecommendTier(cand.SentCount, daysLate)

		candidates = append(candidates, cand)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DaysLate != candidates[j].DaysLate {
			return candidates[i].DaysLate > candidates[j].DaysLate
		}
		return candidates[i].InvoiceNumber < candidates[j].InvoiceNumber
	})

	return candidates
}

// ListCandidates fetches the user's invoices and reminder history and
// classifies them against the given reference date (zero means now).
// A history read failure degrades to "no history known": better to show
// an invoice as needing a first reminder than to hide it.
func (s *ReminderService) ListCandidates(ctx context.Context, userID string, today time.Time) ([]domain.ReminderCandidate, error) {
	ctx, span := reminderTracer.Start(ctx, "ReminderService.ListCandidates")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if today.IsZero() {
		today = s.clock.Now()
	}

	invoices, err := s.invoices.ListInvoices(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	history, err := s.history.GetAllReminderHistory(ctx, userID)
	if err != nil {
		s.logger.Warn("reminder history unavailable, classifying without it",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("reminder_history")
		history = map[string]domain.ReminderHistoryEntry{}
	}

	return Classify(invoices, history, today), nil
}

// BadgeCount returns the number of current reminder candidates, cached
// between scans so the nav badge does not hammer the store.
func (s *ReminderService) BadgeCount(ctx context.Context, userID string) (int, error) {
	ctx, span := reminderTracer.Start(ctx, "ReminderService.BadgeCount")
	defer span.End()

	if n, ok := s.badge.Get("badge:" + userID); ok {
		s.metrics.IncrCacheHit("badge")
		return n, nil
	}
	s.metrics.IncrCacheMiss("badge")

	return s.RefreshBadge(ctx, userID)
}

// RefreshBadge recomputes the candidate count, updates the cache and
// the gauge. Called from the badge endpoint on cache miss and from the
// periodic scan. Read-only: it never sends anything.
func (s *ReminderService) RefreshBadge(ctx context.Context, userID string) (int, error) {
	candidates, err := s.ListCandidates(ctx, userID, time.Time{})
	if err != nil {
		return 0, err
	}

	n := len(candidates)
	s.badge.Set("badge:"+userID, n)
	s.metrics.SetCandidateCount(n)
	return n, nil
}

// History returns the reminder history entry for one invoice.
func (s *ReminderService) History(ctx context.Context, userID, invoiceID string) (*domain.ReminderHistoryEntry, error) {
	ctx, span := reminderTracer.Start(ctx, "ReminderService.History")
	defer span.End()

	return s.history.GetReminderHistory(ctx, userID, invoiceID)
}

// RecordSend increments the sent count for an invoice and stamps the
// send time, creating the entry on first send. The read-modify-write
// runs under a mutex so concurrent sends for the same invoice cannot
// lose an increment. Store failures propagate untouched wrapping aside:
// a send must never be recorded-but-lost.
func (s *ReminderService) RecordSend(ctx context.Context, userID, invoiceID string, now time.Time) (*domain.ReminderHistoryEntry, error) {
	ctx, span := reminderTracer.Start(ctx, "ReminderService.RecordSend")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", invoiceID))

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	entry := domain.ReminderHistoryEntry{InvoiceID: invoiceID}
	if existing, err := s.history.GetReminderHistory(ctx, userID, invoiceID); err == nil && existing != nil {
		entry = *existing
	}

	entry.SentCount++
	entry.LastSentAt = now

	if err := s.history.UpsertReminderHistory(ctx, userID, entry); err != nil {
		return nil, &domain.ErrHistoryWrite{InvoiceID: invoiceID, Err: err}
	}

	s.badge.Delete("badge:" + userID)
	return &entry, nil
}

// Preview renders the reminder for an invoice without sending or
// recording anything, so the user can review the message first.
// templateID selects a custom template; empty uses the tier default.
func (s *ReminderService) Preview(ctx context.Context, userID, invoiceID, templateID string) (*domain.SendReminderResult, error) {
	ctx, span := reminderTracer.Start(ctx, "ReminderService.Preview")
	defer span.End()

	inv, tier, tpl, err := s.prepare(ctx, userID, invoiceID, templateID)
	if err != nil {
		return nil, err
	}

	rendered := RenderTemplate(*tpl, s.renderContext(inv))
	result := &domain.SendReminderResult{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Rendered:      rendered,
	}
	if tier != nil {
		result.Tier = *tier
	}
	return result, nil
}

// SendReminder renders the reminder, hands it to the email transport
// and records the send. History is written even when the transport
// hand-off fails — otherwise a failed attempt leaves no trace and the
// same tier is offered again as if nothing happened. The transport
// outcome is reported separately in the result.
func (s *ReminderService) SendReminder(ctx context.Context, userID string, req *domain.SendReminderRequest) (*domain.SendReminderResult, error) {
	ctx, span := reminderTracer.Start(ctx, "ReminderService.SendReminder")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("invoice.id", req.InvoiceID),
	)

	inv, tier, tpl, err := s.prepare(ctx, userID, req.InvoiceID, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if req.TemplateID == "" && tier == nil {
		return nil, &domain.ErrValidation{Field: "invoice_id", Message: "below first reminder threshold"}
	}
	if inv.ClientEmail == "" {
		return nil, &domain.ErrValidation{Field: "client_email", Message: "invoice has no client email"}
	}

	rendered := RenderTemplate(*tpl, s.renderContext(inv))

	var emailErr error
	if err := s.sender.Send(ctx, domain.EmailMessage{
		To:      inv.ClientEmail,
		Subject: rendered.Subject,
		Body:    rendered.Body,
	}); err != nil {
		emailErr = err
		s.metrics.IncrTransportFailure()
		s.logger.Error("reminder transport hand-off failed",
			zap.String("invoice_id", inv.ID),
			zap.String("to", inv.ClientEmail),
			zap.Error(err),
		)
	}

	now := s.clock.Now()
	entry, err := s.RecordSend(ctx, userID, inv.ID, now)
	if err != nil {
		// The caller must know the send may not have been recorded and
		// retry deliberately; include the transport outcome in the log.
		s.logger.Error("reminder history write failed",
			zap.String("invoice_id", inv.ID),
			zap.Bool("email_delivered", emailErr == nil),
			zap.Error(err),
		)
		return nil, err
	}

	result := &domain.SendReminderResult{
		InvoiceID:      inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		Rendered:       rendered,
		History:        *entry,
		EmailDelivered: emailErr == nil,
	}
	if tier != nil {
		result.Tier = *tier
		s.metrics.IncrReminderSent(*tier)
	}
	if emailErr != nil {
		result.EmailError = emailErr.Error()
	}

	s.logger.Info("reminder sent",
		zap.String("invoice_id", inv.ID),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("tier", string(result.Tier)),
		zap.Int("sent_count", entry.SentCount),
		zap.Bool("email_delivered", emailErr == nil),
	)

	return result, nil
}

// prepare loads the invoice, computes the applicable tier and selects
// the template for a send or preview.
func (s *ReminderService) prepare(ctx context.Context, userID, invoiceID, templateID string) (*domain.Invoice, *domain.ReminderTier, *domain.MessageTemplate, error) {
	if invoiceID == "" {
		return nil, nil, nil, &domain.ErrValidation{Field: "invoice_id", Message: "required"}
	}

	inv, err := s.invoices.GetInvoice(ctx, userID, invoiceID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !inv.ReminderEligible() {
		return nil, nil, nil, &domain.ErrValidation{
			Field:   "status",
			Message: fmt.Sprintf("invoice with status '%s' is not reminder-eligible", inv.Status),
		}
	}

	now := s.clock.Now()
	daysLate := inv.DaysLate(now)
	if inv.DueDate.IsZero() || daysLate <= 0 {
		return nil, nil, nil, &domain.ErrValidation{Field: "due_date", Message: "invoice is not overdue"}
	}

	sentCount := 0
	if existing, err := s.history.GetReminderHistory(ctx, userID, invoiceID); err == nil && existing != nil {
		sentCount = existing.SentCount
	}
	tier := RecommendTier(sentCount, daysLate)

	// Explicit template selection bypasses the tier default entirely.
	if templateID != "" {
		tpl, err := s.templates.Resolve(ctx, userID, templateID)
		if err != nil {
			return nil, nil, nil, err
		}
		return inv, tier, tpl, nil
	}

	if tier == nil {
		// Preview of a below-threshold invoice shows the first-tier text.
		tpl := s.templates.ForTier(domain.TierFirst)
		return inv, nil, &tpl, nil
	}
	tpl := s.templates.ForTier(*tier)
	return inv, tier, &tpl, nil
}

// renderContext builds the substitution context for an invoice.
func (s *ReminderService) renderContext(inv *domain.Invoice) map[string]string {
	now := s.clock.Now()
	return map[string]string{
		"clientName":    inv.ClientName,
		"invoiceNumber": inv.InvoiceNumber,
		"amount":        strconv.FormatFloat(inv.TotalAmount, 'f', 2, 64),
		"dueDate":       inv.DueDate.Format("02/01/2006"),
		"daysLate":      strconv.Itoa(inv.DaysLate(now)),
		"companyName":   s.companyName,
	}
}
