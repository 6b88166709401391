// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/huddleapp/huddle/internal/app/system/auth"
	"github.com/huddleapp/huddle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "", NilObjectID, false. This ensures callers can trust that ok=true means
// a valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return "", primitive.NilObjectID, false
	}
	return user.Username, userID, true
}

// Principal returns the explicit principal for the current request.
// Policies and lifecycle operations take this value as a parameter
// instead of reading the request context themselves.
func Principal(r *http.Request) (models.Principal, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return models.Principal{}, false
	}
	uid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return models.Principal{}, false
	}
	return models.Principal{UserID: uid, Superuser: user.Superuser}, true
}

// IsSuperuser reports whether the current request's user is a superuser.
func IsSuperuser(r *http.Request) bool {
	user, ok := auth.CurrentUser(r)
	return ok && user.Superuser
}
