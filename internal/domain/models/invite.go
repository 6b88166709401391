// internal/domain/models/invite.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PendingInvite records an invitation sent to an email address that does
// not yet belong to any user. When that email registers, the invite is
// converted into a membership and removed.
type PendingInvite struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Token     string             `bson:"token" json:"token"`
	Email     string             `bson:"email" json:"email"` // normalized (lowercase)
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	Role      string             `bson:"role" json:"role"`
	InvitedBy primitive.ObjectID `bson:"invited_by" json:"invited_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
