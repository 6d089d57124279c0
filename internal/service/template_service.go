package service

import (
	"context"
	"regexp"

	"github.com/jardinchef/jardinchef-api/internal/domain"
	"github.com/jardinchef/jardinchef-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tplTracer = otel.Tracer("service/template")

// placeholderRe matches {{name}} tokens. Names are identifiers; malformed
// tokens are left alone.
var placeholderRe = regexp.MustCompile(`\{\{([a-zA-Z][a-zA-Z0-9_]*)\}\}`)

// RenderTemplate substitutes context values into the template's subject
// and body. Substitution is single-pass and textual:
//   - missing context keys leave the literal {{name}} token in place, so
//     the user reviewing the message sees the gap instead of a
//     plausible-looking wrong message;
//   - replacement values are never re-scanned for placeholders, so a
//     client name containing {{...}} cannot inject anything.
func RenderTemplate(tpl domain.MessageTemplate, context map[string]string) domain.RenderedMessage {
	return domain.RenderedMessage{
		Subject: substitute(tpl.Subject, context),
		Body:    substitute(tpl.Body, context),
	}
}

func substitute(s string, context map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(token string) string {
		name := token[2 : len(token)-2]
		if v, ok := context[name]; ok {
			return v
		}
		return token
	})
}

// Default tier templates. French copy, matching the app's audience.
var defaultTemplates = map[domain.ReminderTier]domain.MessageTemplate{
	domain.TierFirst: {
		Name:    "Premier rappel",
		Tier:    domain.TierFirst,
		Subject: "Rappel : facture {{invoiceNumber}} en attente de règlement",
		Body: "Bonjour {{clientName}},\n\n" +
			"Sauf erreur de notre part, la facture {{invoiceNumber}} d'un montant de {{amount}} €, " +
			"échue le {{dueDate}}, reste en attente de règlement.\n\n" +
			"Merci de bien vouloir procéder au paiement dans les meilleurs délais. " +
			"Si celui-ci a déjà été effectué, veuillez ne pas tenir compte de ce message.\n\n" +
			"Cordialement,\n{{companyName}}",
		Placeholders: []string{"clientName", "invoiceNumber", "amount", "dueDate", "companyName"},
		IsDefault:    true,
	},
	domain.TierSecond: {
		Name:    "Deuxième rappel",
		Tier:    domain.TierSecond,
		Subject: "Relance : facture {{invoiceNumber}} impayée ({{daysLate}} jours de retard)",
		Body: "Bonjour {{clientName}},\n\n" +
			"Malgré notre premier rappel, la facture {{invoiceNumber}} d'un montant de {{amount}} €, " +
			"échue le {{dueDate}}, demeure impayée à ce jour ({{daysLate}} jours de retard).\n\n" +
			"Nous vous remercions de régulariser la situation sous huitaine.\n\n" +
			"Cordialement,\n{{companyName}}",
		Placeholders: []string{"clientName", "invoiceNumber", "amount", "dueDate", "daysLate", "companyName"},
		IsDefault:    true,
	},
	domain.TierThird: {
		Name:    "Mise en demeure",
		Tier:    domain.TierThird,
		Subject: "Mise en demeure : facture {{invoiceNumber}}",
		Body: "Bonjour {{clientName}},\n\n" +
			"Malgré nos relances successives, la facture {{invoiceNumber}} d'un montant de {{amount}} €, " +
			"échue le {{dueDate}}, reste impayée ({{daysLate}} jours de retard).\n\n" +
			"Sans règlement de votre part sous 8 jours, nous nous verrons contraints " +
			"d'engager une procédure de recouvrement.\n\n" +
			"Cordialement,\n{{companyName}}",
		Placeholders: []string{"clientName", "invoiceNumber", "amount", "dueDate", "daysLate", "companyName"},
		IsDefault:    true,
	},
}

// TemplateCatalog serves the fixed tier defaults plus the user's custom
// templates from the template store.
type TemplateCatalog struct {
	store  port.TemplateStore
	cache  port.Cache[[]domain.MessageTemplate]
	logger *zap.Logger
}

// NewTemplateCatalog creates the catalog.
func NewTemplateCatalog(store port.TemplateStore, cache port.Cache[[]domain.MessageTemplate], logger *zap.Logger) *TemplateCatalog {
	return &TemplateCatalog{store: store, cache: cache, logger: logger}
}

// ForTier returns the default template for a tier.
func (c *TemplateCatalog) ForTier(tier domain.ReminderTier) domain.MessageTemplate {
	return defaultTemplates[tier]
}

// List returns the tier defaults followed by the user's custom
// templates. A store failure degrades to defaults only: the user can
// always send the standard reminders.
func (c *TemplateCatalog) List(ctx context.Context, userID string) []domain.MessageTemplate {
	ctx, span := tplTracer.Start(ctx, "TemplateCatalog.List")
	defer span.End()

	all := []domain.MessageTemplate{
		defaultTemplates[domain.TierFirst],
		defaultTemplates[domain.TierSecond],
		defaultTemplates[domain.TierThird],
	}

	custom, ok := c.cache.Get("templates:" + userID)
	if !ok {
		var err error
		custom, err = c.store.ListTemplates(ctx, userID)
		if err != nil {
			c.logger.Warn("template catalog: custom templates unavailable",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			return all
		}
		c.cache.Set("templates:"+userID, custom)
	}

	return append(all, custom...)
}

// Resolve returns the custom template with the given ID.
func (c *TemplateCatalog) Resolve(ctx context.Context, userID, templateID string) (*domain.MessageTemplate, error) {
	ctx, span := tplTracer.Start(ctx, "TemplateCatalog.Resolve")
	defer span.End()

	return c.store.GetTemplate(ctx, userID, templateID)
}
