// internal/normalize/normalize.go

// Package normalize provides canonical forms for user-entered values
// before validation and persistence.
package normalize

import "strings"

// Email trims whitespace and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims whitespace around a display name, preserving its case.
func Name(s string) string {
	return strings.TrimSpace(s)
}
