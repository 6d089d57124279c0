// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/jardinchef/jardinchef-api/internal/domain"
)

// Clock supplies the reference time. The engine never reads the system
// clock directly so classification stays deterministic under test.
type Clock interface {
	Now() time.Time
}

// InvoiceSource provides invoice records for the current user. The
// engine never queries storage directly.
type InvoiceSource interface {
	ListInvoices(ctx context.Context, userID, status string) ([]domain.Invoice, error)
	GetInvoice(ctx context.Context, userID, invoiceID string) (*domain.Invoice, error)
}

// ReminderHistoryStore is the durable invoiceID → history mapping,
// scoped per user. Upsert has full-replace semantics: the caller
// supplies the complete new entry, the store never merges fields.
type ReminderHistoryStore interface {
	GetReminderHistory(ctx context.Context, userID, invoiceID string) (*domain.ReminderHistoryEntry, error)
	GetAllReminderHistory(ctx context.Context, userID string) (map[string]domain.ReminderHistoryEntry, error)
	UpsertReminderHistory(ctx context.Context, userID string, entry domain.ReminderHistoryEntry) error
}

// TemplateStore provides user-defined message templates. Custom
// templates are data to the engine, not part of its own state.
type TemplateStore interface {
	ListTemplates(ctx context.Context, userID string) ([]domain.MessageTemplate, error)
	GetTemplate(ctx context.Context, userID, templateID string) (*domain.MessageTemplate, error)
}

// StatsSource provides the raw records the dashboard aggregates.
type StatsSource interface {
	ListQuotes(ctx context.Context, userID string) ([]domain.Quote, error)
	ListPayments(ctx context.Context, userID string) ([]domain.Payment, error)
}

// EmailSender hands a rendered reminder to the delivery transport.
// The engine's contract ends here; actual delivery is external.
type EmailSender interface {
	Send(ctx context.Context, msg domain.EmailMessage) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
