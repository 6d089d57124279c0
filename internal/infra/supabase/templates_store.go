package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jardinchef/jardinchef-api/internal/domain"
)

// ============================================================
// Email templates store — implements port.TemplateStore
// ============================================================

// templateRow maps the email_templates table (user-defined templates).
type templateRow struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	Name         string   `json:"name"`
	Subject      string   `json:"subject"`
	Body         string   `json:"body"`
	Placeholders []string `json:"placeholders"`
}

func (r templateRow) toDomain() domain.MessageTemplate {
	return domain.MessageTemplate{
		ID:           r.ID,
		Name:         r.Name,
		Subject:      r.Subject,
		Body:         r.Body,
		Placeholders: r.Placeholders,
	}
}

// ListTemplates fetches the user's custom templates.
func (c *Client) ListTemplates(ctx context.Context, userID string) ([]domain.MessageTemplate, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTemplates")
	defer span.End()

	path := fmt.Sprintf("email_templates?user_id=eq.%s&order=name.asc", url.QueryEscape(userID))

	var rows []templateRow
	if err := c.getJSON(ctx, "email_templates", path, &rows); err != nil {
		return nil, err
	}

	templates := make([]domain.MessageTemplate, 0, len(rows))
	for _, r := range rows {
		templates = append(templates, r.toDomain())
	}
	return templates, nil
}

// GetTemplate fetches one custom template scoped to the user.
func (c *Client) GetTemplate(ctx context.Context, userID, templateID string) (*domain.MessageTemplate, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTemplate")
	defer span.End()

	path := fmt.Sprintf("email_templates?user_id=eq.%s&id=eq.%s&limit=1",
		url.QueryEscape(userID), url.QueryEscape(templateID))

	var rows []templateRow
	if err := c.getJSON(ctx, "email_templates", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "email_template", ID: templateID}
	}

	tpl := rows[0].toDomain()
	return &tpl, nil
}
