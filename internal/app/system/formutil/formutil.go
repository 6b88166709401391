// Package formutil provides helpers for form re-rendering with validation
// errors.
//
// When a form submission fails validation, the form is re-rendered with
// the user's previously entered values echoed back, an error message, and
// the common page context. Base carries the common fields and is embedded
// in per-form data structs.
package formutil

import (
	"html/template"
	"net/http"

	"github.com/huddleapp/huddle/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/httpnav"
)

// Base contains common fields for form pages, embedded in form data structs.
type Base struct {
	Title       string
	IsLoggedIn  bool
	UserName    string
	BackURL     string
	CurrentPath string
	Error       template.HTML
}

// SetBase populates the common Base fields from the request context.
func SetBase(b *Base, r *http.Request, title, backDefault string) {
	uname, _, ok := authz.UserCtx(r)
	b.Title = title
	b.IsLoggedIn = ok
	b.UserName = uname
	b.BackURL = httpnav.ResolveBackURL(r, backDefault)
	b.CurrentPath = httpnav.CurrentPath(r)
}

// SetError sets the error message on a Base struct.
func (b *Base) SetError(msg string) {
	b.Error = template.HTML(msg)
}
