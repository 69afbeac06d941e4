// Package delivery builds and sends the two emails produced by a contact
// submission: the owner notification and the submitter confirmation. Both
// are rendered from embedded markdown templates.
package delivery

import (
	"context"
	"embed"
	"fmt"
	"html"
	"io/fs"
	"time"

	"github.com/dmitrymomot/contactform/internal/contact"
	"github.com/dmitrymomot/contactform/pkg/mailer"
	"github.com/dmitrymomot/contactform/pkg/sanitizer"
)

//go:embed templates
var templatesFS embed.FS

// TemplatesFS returns the embedded template tree rooted at templates/,
// ready to hand to mailer.NewRenderer.
func TemplatesFS() (fs.FS, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("embedded templates: %w", err)
	}
	return sub, nil
}

// Config holds the addresses the deliverer sends from and to.
type Config struct {
	// OwnerEmail receives the notification for every submission.
	OwnerEmail string `env:"CONTACT_OWNER_EMAIL,required"`
	// OwnerName is used in the notification recipient header.
	OwnerName string `env:"CONTACT_OWNER_NAME" envDefault:""`
	// FromEmail is the envelope sender for both emails.
	FromEmail string `env:"CONTACT_FROM_EMAIL,required"`
	// FromName is the display name on the envelope sender.
	FromName string `env:"CONTACT_FROM_NAME" envDefault:""`
	// SiteName appears in email subjects and bodies.
	SiteName string `env:"CONTACT_SITE_NAME" envDefault:"our site"`
}

// Deliverer renders and sends contact emails through a Mailer.
type Deliverer struct {
	mailer *mailer.Mailer
	cfg    Config
}

// New creates a Deliverer.
func New(m *mailer.Mailer, cfg Config) *Deliverer {
	return &Deliverer{mailer: m, cfg: cfg}
}

// Notification emails the site owner about a submission. Reply-To is set
// to the submitter so the owner can answer directly.
func (d *Deliverer) Notification(ctx context.Context, sub contact.Submission) error {
	err := d.mailer.Send(ctx, mailer.SendParams{
		To:       mailer.Recipient(d.cfg.OwnerName, d.cfg.OwnerEmail),
		Template: "notification.md",
		Data:     d.templateData(sub),
		From:     mailer.Recipient(d.cfg.FromName, d.cfg.FromEmail),
		ReplyTo:  mailer.Recipient(sub.Name, sub.Email),
	})
	if err != nil {
		return fmt.Errorf("notification email: %w", err)
	}
	return nil
}

// Confirmation emails the submitter a copy of their message.
func (d *Deliverer) Confirmation(ctx context.Context, sub contact.Submission) error {
	err := d.mailer.Send(ctx, mailer.SendParams{
		To:       mailer.Recipient(sub.Name, sub.Email),
		Template: "confirmation.md",
		Data:     d.templateData(sub),
		From:     mailer.Recipient(d.cfg.FromName, d.cfg.FromEmail),
	})
	if err != nil {
		return fmt.Errorf("confirmation email: %w", err)
	}
	return nil
}

func (d *Deliverer) templateData(sub contact.Submission) map[string]any {
	return map[string]any{
		"Name":         plain(sub.Name),
		"Email":        plain(sub.Email),
		"Organization": plain(sub.Organization),
		"Service":      plain(sub.Service),
		"Subject":      plain(sub.Subject),
		"Message":      plain(sub.Message),
		"ClientIP":     sub.ClientIP,
		"SubmittedAt":  sub.SubmittedAt.UTC().Format(time.RFC1123),
		"SiteName":     d.cfg.SiteName,
	}
}

// plain strips HTML markup from a form value before it is interpolated
// into an email template. The unescape restores literal characters the
// sanitizer entity-encoded, so "R&D" survives intact; anything that
// still looks like markup is filtered again during rendering.
func plain(s string) string {
	return html.UnescapeString(sanitizer.StripHTML(s))
}
