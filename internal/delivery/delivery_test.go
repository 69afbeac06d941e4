package delivery_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/contactform/internal/contact"
	"github.com/dmitrymomot/contactform/internal/delivery"
	"github.com/dmitrymomot/contactform/pkg/mailer"
)

type capturingSender struct {
	sent []*mailer.Email
}

func (s *capturingSender) Send(ctx context.Context, email *mailer.Email) error {
	s.sent = append(s.sent, email)
	return nil
}

func testSubmission() contact.Submission {
	return contact.Submission{
		Name:         "Ada",
		Email:        "ada@example.com",
		Organization: "Acme",
		Service:      "Web Design",
		Subject:      "Project inquiry",
		Message:      "I would like a quote.",
		ClientIP:     "10.0.0.1",
		SubmittedAt:  time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func newDeliverer(t *testing.T) (*delivery.Deliverer, *capturingSender) {
	t.Helper()

	templates, err := delivery.TemplatesFS()
	require.NoError(t, err)

	sender := &capturingSender{}
	m := mailer.New(sender, mailer.NewRenderer(templates), mailer.Config{
		FallbackSubject: "Notification",
		DefaultLayout:   "base.html",
	})

	d := delivery.New(m, delivery.Config{
		OwnerEmail: "owner@example.com",
		OwnerName:  "Site Owner",
		FromEmail:  "noreply@example.com",
		FromName:   "Example",
		SiteName:   "Example",
	})
	return d, sender
}

func TestNotification(t *testing.T) {
	t.Parallel()

	d, sender := newDeliverer(t)
	require.NoError(t, d.Notification(context.Background(), testSubmission()))
	require.Len(t, sender.sent, 1)

	email := sender.sent[0]
	require.Equal(t, []string{"Site Owner <owner@example.com>"}, email.To)
	require.Equal(t, "Example <noreply@example.com>", email.From)
	require.Equal(t, "Ada <ada@example.com>", email.ReplyTo)
	require.Equal(t, "[Example] New contact from Ada: Project inquiry", email.Subject)
	require.Contains(t, email.HTML, "I would like a quote.")
	require.Contains(t, email.HTML, "10.0.0.1")
	require.Contains(t, email.Text, "ada@example.com")
}

func TestConfirmation(t *testing.T) {
	t.Parallel()

	d, sender := newDeliverer(t)
	require.NoError(t, d.Confirmation(context.Background(), testSubmission()))
	require.Len(t, sender.sent, 1)

	email := sender.sent[0]
	require.Equal(t, []string{"Ada <ada@example.com>"}, email.To)
	require.Equal(t, "We received your message, Ada", email.Subject)
	require.Empty(t, email.ReplyTo)
	require.Contains(t, email.HTML, "Project inquiry")
}

func TestNotification_MarkupInDataIsNotRenderedAsHTML(t *testing.T) {
	t.Parallel()

	d, sender := newDeliverer(t)
	sub := testSubmission()
	sub.Message = "look <b>bold</b> claim"

	require.NoError(t, d.Notification(context.Background(), sub))
	require.Len(t, sender.sent, 1)
	require.NotContains(t, sender.sent[0].HTML, "<b>bold</b>")
	require.Contains(t, sender.sent[0].HTML, "look bold claim")
}

func TestNotification_AmpersandSurvivesStripping(t *testing.T) {
	t.Parallel()

	d, sender := newDeliverer(t)
	sub := testSubmission()
	sub.Organization = "R&D Partners"

	require.NoError(t, d.Notification(context.Background(), sub))
	require.Len(t, sender.sent, 1)
	require.Contains(t, sender.sent[0].Text, "R&D Partners")
}
