// Package smtp implements mailer.Sender over a plain SMTP connection
// with optional PLAIN auth and opportunistic STARTTLS.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/dmitrymomot/contactform/pkg/mailer"
)

// Config holds SMTP connection configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	Host        string        `env:"SMTP_HOST"`
	Port        int           `env:"SMTP_PORT" envDefault:"587"`
	Username    string        `env:"SMTP_USERNAME"`
	Password    string        `env:"SMTP_PASSWORD"`
	SenderEmail string        `env:"SMTP_FROM_EMAIL"`
	SenderName  string        `env:"SMTP_FROM_NAME"`
	DialTimeout time.Duration `env:"SMTP_DIAL_TIMEOUT" envDefault:"30s"`
}

// Sender implements mailer.Sender using net/smtp.
type Sender struct {
	config Config
}

// New creates a new SMTP sender.
func New(cfg Config) *Sender {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 30 * time.Second
	}
	return &Sender{config: cfg}
}

// Send implements mailer.Sender. The context deadline bounds the whole
// SMTP conversation via the connection deadline.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if len(email.To) == 0 {
		return mailer.ErrNoRecipient
	}

	from := email.From
	if from == "" {
		from = mailer.Recipient(s.config.SenderName, s.config.SenderEmail)
	}
	envelopeFrom := addressOnly(from)

	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))
	dialer := &net.Dialer{Timeout: s.config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp: dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("smtp: set deadline: %w", err)
		}
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("smtp: new client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConf := &tls.Config{
			ServerName: s.config.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConf); err != nil {
			return fmt.Errorf("smtp: starttls: %w", err)
		}
	}

	if s.config.Username != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp: auth: %w", err)
		}
	}

	if err := client.Mail(envelopeFrom); err != nil {
		return fmt.Errorf("smtp: mail from: %w", err)
	}
	for _, rcpt := range email.To {
		if err := client.Rcpt(addressOnly(rcpt)); err != nil {
			return fmt.Errorf("smtp: rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp: data start: %w", err)
	}
	if _, err := w.Write(buildMessage(from, email)); err != nil {
		return fmt.Errorf("smtp: data write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: data close: %w", err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("smtp: quit: %w", err)
	}

	return nil
}

// buildMessage assembles an RFC 5322 message with a multipart/alternative
// body when both text and HTML parts are present.
func buildMessage(from string, email *mailer.Email) []byte {
	var b strings.Builder

	writeHeader(&b, "From", from)
	writeHeader(&b, "To", strings.Join(email.To, ", "))
	if email.ReplyTo != "" {
		writeHeader(&b, "Reply-To", email.ReplyTo)
	}
	writeHeader(&b, "Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	writeHeader(&b, "MIME-Version", "1.0")
	for k, v := range email.Headers {
		writeHeader(&b, k, v)
	}

	const boundary = "=-contactform-alt-boundary"

	switch {
	case email.Text != "" && email.HTML != "":
		writeHeader(&b, "Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", boundary))
		b.WriteString("\r\n")
		writePart(&b, boundary, "text/plain; charset=utf-8", email.Text)
		writePart(&b, boundary, "text/html; charset=utf-8", email.HTML)
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	case email.HTML != "":
		writeHeader(&b, "Content-Type", "text/html; charset=utf-8")
		b.WriteString("\r\n")
		b.WriteString(email.HTML)
		b.WriteString("\r\n")
	default:
		writeHeader(&b, "Content-Type", "text/plain; charset=utf-8")
		b.WriteString("\r\n")
		b.WriteString(email.Text)
		b.WriteString("\r\n")
	}

	return []byte(b.String())
}

func writeHeader(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "%s: %s\r\n", key, value)
}

func writePart(b *strings.Builder, boundary, contentType, body string) {
	fmt.Fprintf(b, "--%s\r\n", boundary)
	fmt.Fprintf(b, "Content-Type: %s\r\n\r\n", contentType)
	b.WriteString(body)
	b.WriteString("\r\n")
}

// addressOnly strips an RFC 5322 display name, returning the bare address
// for the SMTP envelope.
func addressOnly(s string) string {
	if i := strings.LastIndex(s, "<"); i != -1 {
		if j := strings.LastIndex(s, ">"); j > i {
			return s[i+1 : j]
		}
	}
	return strings.TrimSpace(s)
}
