// Package htmlsanitize strips unsafe markup from user-supplied rich text
// (group descriptions) before it is rendered.
package htmlsanitize

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.UGCPolicy()

// Sanitize returns s with all markup removed except the user-generated
// content set (paragraphs, emphasis, lists, safe links).
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeHTML sanitizes s and marks the result safe for template output.
func SanitizeHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}
