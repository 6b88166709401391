// Package normalize provides canonical forms for user-supplied strings
// before they are validated or persisted.
package normalize

import "strings"

// Email lowercases and trims an email address. Emails are stored and
// looked up in this form, so equality checks are exact matches.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Username trims surrounding whitespace but preserves case.
// Uniqueness is enforced on the folded form, not this one.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a free-form query or form value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
