// Package contact defines the contact-form submission model and its
// validation pipeline: sanitization, required-field and length checks,
// email format validation and spam screening.
package contact

import (
	"time"

	"github.com/dmitrymomot/contactform/pkg/sanitizer"
)

// Submission is a validated contact-form submission. It exists only for
// the duration of request handling and job construction; it is never
// persisted.
type Submission struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	Service      string `json:"service"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`

	ClientIP    string    `json:"-"`
	SubmittedAt time.Time `json:"-"`
}

// Input is the raw, untrusted form payload as decoded from the request
// body. Call Sanitize to produce cleaned field values.
type Input struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Organization      string `json:"organization"`
	Service           string `json:"service"`
	Subject           string `json:"subject"`
	Message           string `json:"message"`
	VerificationToken string `json:"verificationToken"`
}

// Sanitize returns a Submission with every field cleaned: control
// characters stripped, line endings normalized, lengths hard-capped and
// whitespace trimmed. Single-line fields additionally have embedded
// newlines collapsed. Sanitization happens before any validation.
func (in Input) Sanitize(clientIP string, now time.Time) Submission {
	return Submission{
		Name:         sanitizer.Line(in.Name),
		Email:        sanitizer.Line(in.Email),
		Organization: sanitizer.Line(in.Organization),
		Service:      sanitizer.Line(in.Service),
		Subject:      sanitizer.Line(in.Subject),
		Message:      sanitizer.Text(in.Message),
		ClientIP:     clientIP,
		SubmittedAt:  now,
	}
}

// combinedText joins the fields screened for spam signatures. The
// service field is a fixed-choice selector and is excluded.
func (s Submission) combinedText() string {
	return s.Name + " " + s.Email + " " + s.Organization + " " + s.Subject + " " + s.Message
}
