package sanitizer

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		// StrictPolicy strips ALL HTML, returns plain text
		strictPolicy = bluemonday.StrictPolicy()
	})
}

// StripHTML removes every HTML element and attribute from the input,
// returning plain text. Use before embedding untrusted form values in
// rendered email bodies.
func StripHTML(s string) string {
	initPolicies()
	return strictPolicy.Sanitize(s)
}
