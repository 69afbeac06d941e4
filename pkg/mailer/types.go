package mailer

import "fmt"

// Email represents a fully-prepared email message ready for sending.
type Email struct {
	Headers map[string]string // Custom headers
	Subject string            // Email subject
	HTML    string            // HTML body content
	Text    string            // Plain text alternative
	From    string            // Override default sender (if provider allows)
	ReplyTo string            // Reply-to address
	To      []string          // Recipients (at least one required)
}

// Recipient formats a name and email into RFC 5322 address format.
// Returns "Name <email>" if name is provided, otherwise just email.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
