package sanitizer

import (
	"strings"
)

// MaxTextLen is the hard ceiling applied to any single input before
// further validation runs. Longer input is truncated, not rejected.
const MaxTextLen = 10000

// Text cleans raw form input: normalizes CRLF/CR line endings to LF,
// strips control characters (except newline and tab), caps length at
// MaxTextLen runes and trims surrounding whitespace.
//
// Text is idempotent: Text(Text(s)) == Text(s).
func Text(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	if runes := []rune(s); len(runes) > MaxTextLen {
		s = string(runes[:MaxTextLen])
	}

	return strings.TrimSpace(s)
}

// Line is like Text but additionally collapses newlines and tabs into
// single spaces. Use for single-line fields (name, subject, email).
func Line(s string) string {
	s = Text(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}

// isControl reports whether r is a C0 or C1 control character.
func isControl(r rune) bool {
	return r < 0x20 || (r >= 0x7F && r < 0xA0)
}
