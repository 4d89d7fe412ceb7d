// Package notification renders and dispatches the transactional emails sent
// by the dashboard: access-request alerts to administrators and approval or
// denial notices to requesters.
package notification

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Template IDs.
const (
	TemplateAccessRequested = "access-requested"
	TemplateAccessApproved  = "access-approved"
	TemplateAccessDenied    = "access-denied"
)

// Email is a rendered message ready for delivery.
type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// EmailSender delivers a rendered email.
type EmailSender interface {
	SendEmail(ctx context.Context, email Email) error
}

// Template defines a reusable email. Body placeholders use {{key}}.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateEngine manages templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateAccessRequested,
			Subject: "New walkthrough access request from {{name}}",
			Body: "{{name}} <{{email}}> requested access to the clinical walkthrough.\n\n" +
				"Organization: {{organization}}\nRole: {{role}}\nReason: {{reason}}\n\n" +
				"Review it at {{review_url}}",
		},
		{
			ID:      TemplateAccessApproved,
			Subject: "Your walkthrough access has been approved",
			Body: "Hello {{name}},\n\nYour request to view the clinical walkthrough has been approved. " +
				"You can open it here: {{walkthrough_url}}\n\n" +
				"All patient data in the walkthrough is illustrative.",
		},
		{
			ID:      TemplateAccessDenied,
			Subject: "Update on your walkthrough access request",
			Body: "Hello {{name}},\n\nThank you for your interest. We are unable to grant access " +
				"to the clinical walkthrough at this time.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement. Keys
// present in the template but absent from data are left as-is. The HTML
// variant escapes every value.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, text, htmlBody string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	text = t.Body
	htmlBody = html.EscapeString(t.Body)
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		text = strings.ReplaceAll(text, placeholder, v)
		htmlBody = strings.ReplaceAll(htmlBody, html.EscapeString(placeholder), html.EscapeString(v))
	}
	// Subjects are single-line headers.
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)
	htmlBody = "<p>" + strings.ReplaceAll(htmlBody, "\n\n", "</p><p>") + "</p>"
	htmlBody = strings.ReplaceAll(htmlBody, "\n", "<br>")
	return subject, text, htmlBody, nil
}

// Mailer renders templates and hands them to an EmailSender.
type Mailer struct {
	sender    EmailSender
	templates *TemplateEngine
	logger    zerolog.Logger
}

// NewMailer constructs a Mailer.
func NewMailer(sender EmailSender, tpl *TemplateEngine, logger zerolog.Logger) *Mailer {
	return &Mailer{sender: sender, templates: tpl, logger: logger}
}

// SendTemplate renders templateID with data and sends it to recipient.
func (m *Mailer) SendTemplate(ctx context.Context, templateID, recipient string, data map[string]string) error {
	if recipient == "" {
		return errors.New("recipient is required")
	}
	subject, text, htmlBody, err := m.templates.Render(templateID, data)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	email := Email{To: recipient, Subject: subject, Text: text, HTML: htmlBody}
	if err := m.sender.SendEmail(ctx, email); err != nil {
		m.logger.Error().Err(err).Str("template", templateID).Msg("email delivery failed")
		return fmt.Errorf("send %s email: %w", templateID, err)
	}

	m.logger.Info().Str("template", templateID).Msg("email sent")
	return nil
}

// LogSender writes emails to the log instead of delivering them. It is used
// when no email provider is configured.
type LogSender struct {
	Logger zerolog.Logger
}

func (s LogSender) SendEmail(_ context.Context, email Email) error {
	s.Logger.Info().
		Str("to", email.To).
		Str("subject", email.Subject).
		Msg("email not delivered: no provider configured")
	return nil
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []Email
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, email Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, email)
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded emails.
func (m *MockEmailSender) Calls() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Email, len(m.calls))
	copy(out, m.calls)
	return out
}
