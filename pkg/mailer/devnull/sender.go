// Package devnull implements a mailer.Sender that logs the would-be
// email instead of delivering it. Use it in non-production environments
// to exercise the full submission pipeline without SMTP credentials.
package devnull

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/contactform/pkg/mailer"
)

// Sender logs emails instead of sending them.
type Sender struct {
	logger *slog.Logger
}

// New creates a logging sender. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger.With(slog.String("component", "devnull_sender"))}
}

// Send implements mailer.Sender. It never fails.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	s.logger.InfoContext(ctx, "email send bypassed",
		slog.String("to", strings.Join(email.To, ", ")),
		slog.String("subject", email.Subject),
		slog.String("reply_to", email.ReplyTo),
		slog.Int("html_bytes", len(email.HTML)),
		slog.Int("text_bytes", len(email.Text)),
	)
	return nil
}
