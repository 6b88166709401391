package home

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	apperrors "github.com/huddleapp/huddle/internal/app/features/errors"
	groupstore "github.com/huddleapp/huddle/internal/app/store/groups"
	"github.com/huddleapp/huddle/internal/app/system/authz"
	"github.com/huddleapp/huddle/internal/app/system/formutil"
	"github.com/huddleapp/huddle/internal/app/system/timeouts"
	"github.com/huddleapp/huddle/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds dependencies needed to serve the home page.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *apperrors.ErrorLogger
	Groups *groupstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: apperrors.NewErrorLogger(logger),
		Groups: groupstore.New(db, logger),
	}
}

type pageData struct {
	formutil.Base
	Groups []models.Group
}

// ServeRoot handles GET /. Visitors get the landing page; signed-in users
// get their group list.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	data := pageData{}
	formutil.SetBase(&data.Base, r, "Welcome", "/")

	_, userID, ok := authz.UserCtx(r)
	if !ok {
		templates.Render(w, r, "home", data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var err error
	if authz.IsSuperuser(r) {
		data.Groups, err = h.Groups.ListAll(ctx)
	} else {
		data.Groups, err = h.Groups.ListByUser(ctx, userID)
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "home: list groups", err)
		return
	}

	templates.Render(w, r, "home_groups", data)
}
