// Package emailutil parses the comma-separated email lists used by the
// invitation forms.
package emailutil

import "strings"

// ParseList splits raw on commas, trims whitespace, and drops empty
// tokens. Order is preserved and duplicates are kept: a duplicate email
// resolves to the same user and is absorbed downstream by the
// already-a-member check.
func ParseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		if e := strings.TrimSpace(tok); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// ValidSyntax reports whether email looks like an email address: it must
// contain "@" and ".". This is intentionally permissive and not
// RFC-compliant; unknown addresses are skipped during invitation anyway,
// so a stricter check here buys nothing.
func ValidSyntax(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}
