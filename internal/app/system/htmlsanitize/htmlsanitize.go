// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans user-supplied free text before storage.
// Member names, addresses, and cultural backgrounds are plain text;
// any markup that arrives via forms or CSV import is stripped.
package htmlsanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes every tag. Script and style contents are
// dropped entirely, not just unwrapped.
var policy = bluemonday.StrictPolicy()

// Sanitize strips all HTML from s.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}
