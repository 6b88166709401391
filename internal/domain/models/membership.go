// internal/domain/models/membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles, from most to least privileged.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleMember    = "member"
)

// Points bounds for a membership.
const (
	MinPoints = 0
	MaxPoints = 10000
)

// ValidRole reports whether role is one of the membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleModerator, RoleMember:
		return true
	}
	return false
}

// Membership is the authoritative join between users and groups.
// Exactly one document per (user_id, group_id); role is a scalar.
type Membership struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`

	Role     string `bson:"role" json:"role"`
	Points   int    `bson:"points" json:"points"`
	IsActive bool   `bson:"is_active" json:"is_active"`

	JoinedAt time.Time `bson:"joined_at" json:"joined_at"` // set once at creation
}

// IsAdmin reports whether this membership carries the admin role.
func (m Membership) IsAdmin() bool { return m.Role == RoleAdmin }

// IsModerator reports whether this membership carries the moderator role.
func (m Membership) IsModerator() bool { return m.Role == RoleModerator }

// CanModerate reports whether this membership may moderate the group
// (admins and moderators).
func (m Membership) CanModerate() bool { return m.Role == RoleAdmin || m.Role == RoleModerator }
