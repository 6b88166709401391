// internal/testutil/http.go
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/huddleapp/huddle/internal/app/system/auth"
	"github.com/huddleapp/huddle/internal/domain/models"
)

// WithUser returns the request with u injected as the signed-in user,
// bypassing the session cookie round trip.
func WithUser(r *http.Request, u models.User) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:        u.ID.Hex(),
		Username:  u.Username,
		Email:     u.Email,
		Superuser: u.Superuser,
	})
}

// GetRequest builds a GET request that accepts HTML.
func GetRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Header.Set("Accept", "text/html")
	return r
}

// PostForm builds a POST request with an urlencoded form body.
func PostForm(t *testing.T, target string, form url.Values) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Accept", "text/html")
	return r
}
