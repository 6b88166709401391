// internal/app/features/groups/handler.go
package groups

import (
	uierrors "github.com/huddleapp/huddle/internal/app/features/errors"
	groupstore "github.com/huddleapp/huddle/internal/app/store/groups"
	invitestore "github.com/huddleapp/huddle/internal/app/store/invites"
	membershipstore "github.com/huddleapp/huddle/internal/app/store/memberships"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the stores the group pages work through.
type Handler struct {
	DB          *mongo.Database
	Log         *zap.Logger
	ErrLog      *uierrors.ErrorLogger
	Groups      *groupstore.Store
	Memberships *membershipstore.Store
	Invites     *invitestore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Log:         logger,
		ErrLog:      uierrors.NewErrorLogger(logger),
		Groups:      groupstore.New(db, logger),
		Memberships: membershipstore.New(db, logger),
		Invites:     invitestore.New(db, logger),
	}
}
