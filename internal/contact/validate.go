package contact

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrMissingFields indicates one or more required fields are empty
	// after sanitization.
	ErrMissingFields = errors.New("name, email, organization, service, subject and message are required")

	// ErrFieldTooLong indicates a field exceeds its length ceiling.
	ErrFieldTooLong = errors.New("field exceeds maximum length")

	// ErrInvalidEmail indicates the email address is malformed.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrSpamDetected indicates the submission matched spam signatures.
	ErrSpamDetected = errors.New("message content rejected")
)

// Per-field length ceilings, applied after sanitization.
const (
	MaxNameLen         = 100
	MaxEmailLen        = 100
	MaxOrganizationLen = 150
	MaxServiceLen      = 100
	MaxSubjectLen      = 200
	MaxMessageLen      = 5000
)

// emailPattern is a strict RFC-5322-ish address check.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

// spamPatterns covers pharmaceutical, gambling, financial-scam and
// credit-card-number signatures. The matched patterns are never reported
// to callers; only the match count is surfaced for logging.
var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(viagra|cialis|levitra|phentermine|xanax|tramadol)\b`),
	regexp.MustCompile(`(?i)\b(casino|jackpot|slot\s*machine|online\s+poker|sports?\s*betting)\b`),
	regexp.MustCompile(`(?i)\b(wire\s+transfer|advance\s+fee|lottery\s+winner|inheritance\s+fund|nigerian\s+prince)\b`),
	regexp.MustCompile(`(?i)\b(million\s+(dollars|usd)|guaranteed\s+(income|profit|returns))\b`),
	regexp.MustCompile(`(?i)\b(cheap\s+(meds|pills|pharmacy)|no\s+prescription)\b`),
	regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`), // credit-card-looking digit runs
}

// Validate checks a sanitized Submission against the required-field,
// spam, length and email-format rules, in that order. The first failing
// rule determines the returned error.
func (s Submission) Validate() error {
	if s.Name == "" || s.Email == "" || s.Organization == "" || s.Service == "" || s.Subject == "" || s.Message == "" {
		return ErrMissingFields
	}

	if n := s.SpamMatches(); n > 0 {
		return fmt.Errorf("%w: %d pattern(s) matched", ErrSpamDetected, n)
	}

	for _, check := range []struct {
		field string
		value string
		max   int
	}{
		{"name", s.Name, MaxNameLen},
		{"email", s.Email, MaxEmailLen},
		{"organization", s.Organization, MaxOrganizationLen},
		{"service", s.Service, MaxServiceLen},
		{"subject", s.Subject, MaxSubjectLen},
		{"message", s.Message, MaxMessageLen},
	} {
		if len([]rune(check.value)) > check.max {
			return fmt.Errorf("%w: %s exceeds %d characters", ErrFieldTooLong, check.field, check.max)
		}
	}

	if !emailPattern.MatchString(s.Email) {
		return ErrInvalidEmail
	}

	return nil
}

// SpamMatches returns the number of spam signatures the submission's
// combined text matches. Which patterns matched is deliberately not
// exposed so detection rules do not leak.
func (s Submission) SpamMatches() int {
	text := s.combinedText()
	count := 0
	for _, p := range spamPatterns {
		if p.MatchString(text) {
			count++
		}
	}
	return count
}
