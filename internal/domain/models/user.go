// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that can sign in, create groups, and hold
// memberships. Group membership is never embedded on the user;
// the memberships collection is the authoritative join.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	UsernameCI string             `bson:"username_ci" json:"username_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`             // stored normalized (lowercase)

	HashedPassword string `bson:"hashed_password" json:"-"`

	// Superuser accounts bypass per-group authorization checks.
	Superuser bool `bson:"superuser,omitempty" json:"superuser,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
