package domain

// ============================================================
// Message Templates
// ============================================================

// MessageTemplate is an email template with {{placeholder}} tokens in
// subject and body. Placeholders lists the names the template declares
// it uses — documentation only, rendering never fails on unknown or
// missing names.
type MessageTemplate struct {
	ID           string       `json:"id,omitempty"`
	Name         string       `json:"name"`
	Tier         ReminderTier `json:"tier,omitempty"` // empty for custom templates
	Subject      string       `json:"subject"`
	Body         string       `json:"body"`
	Placeholders []string     `json:"placeholders,omitempty"`
	IsDefault    bool         `json:"is_default"`
}

// RenderedMessage is the result of substituting a context into a
// template's subject and body.
type RenderedMessage struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailMessage is what gets handed to the email transport after a send
// is confirmed. Delivery itself is external to this API.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
