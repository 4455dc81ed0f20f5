// internal/htmlsanitize/htmlsanitize.go

// Package htmlsanitize strips unsafe HTML from user-generated content
// before it enters a document body. It wraps bluemonday's UGC policy so
// callers do not construct policies ad hoc.
package htmlsanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// policy is built once; bluemonday policies are safe for concurrent use.
var policy = bluemonday.UGCPolicy()

// Sanitize returns s with scripts, event handlers, and other unsafe
// markup removed. Safe formatting tags are preserved.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}
