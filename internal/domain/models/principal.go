// internal/domain/models/principal.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Principal identifies the actor behind an operation. Policies and
// lifecycle operations take it as an explicit parameter instead of
// reading identity out of request context.
type Principal struct {
	UserID    primitive.ObjectID
	Superuser bool
}
