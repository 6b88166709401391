// internal/app/features/groups/groupview.go
package groups

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/huddleapp/huddle/internal/app/features/errors"
	"github.com/huddleapp/huddle/internal/app/policy/grouppolicy"
	membershipstore "github.com/huddleapp/huddle/internal/app/store/memberships"
	"github.com/huddleapp/huddle/internal/app/system/authz"
	"github.com/huddleapp/huddle/internal/app/system/formutil"
	"github.com/huddleapp/huddle/internal/app/system/htmlsanitize"
	"github.com/huddleapp/huddle/internal/app/system/timeouts"
	"github.com/huddleapp/huddle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type groupViewData struct {
	formutil.Base
	Group          models.Group
	Description    template.HTML
	Members        []membershipstore.Member
	PendingInvites []models.PendingInvite
	MemberCount    int64
	AdminCount     int64
	TotalPoints    int64
	Me             *models.Membership
	CanModerate    bool
	CanManage      bool
	Notice         string
}

// groupID pulls and parses the {id} route parameter.
func groupID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// ServeGroupView renders the group detail page: members, counts, points,
// and the viewer's own standing.
// GET /groups/{id}
func (h *Handler) ServeGroupView(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.Principal(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	gid, ok := groupID(r)
	if !ok {
		uierrors.RenderNotFound(w, r, "Group not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	allowed, err := grouppolicy.CanView(ctx, h.DB, p, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: view authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "You are not a member of this group.", "/")
		return
	}

	g, err := h.Groups.GetByID(ctx, gid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Group not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: load group", err)
		return
	}

	data := groupViewData{
		Group:       *g,
		Description: htmlsanitize.SanitizeHTML(g.Description),
		Notice:      r.URL.Query().Get("notice"),
	}
	formutil.SetBase(&data.Base, r, g.Name, "/")

	data.Members, err = h.Memberships.ListByGroup(ctx, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: list members", err)
		return
	}
	data.MemberCount, err = h.Memberships.CountByGroup(ctx, gid, "")
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: count members", err)
		return
	}
	data.AdminCount, err = h.Memberships.CountByGroup(ctx, gid, models.RoleAdmin)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: count admins", err)
		return
	}
	data.TotalPoints, err = h.Memberships.TotalPoints(ctx, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: total points", err)
		return
	}

	me, err := h.Memberships.Get(ctx, gid, p.UserID)
	if err == nil {
		data.Me = me
	} else if !errors.Is(err, membershipstore.ErrNotAMember) {
		h.ErrLog.LogServerError(w, r, "groups: own membership", err)
		return
	}

	data.CanModerate, err = grouppolicy.CanModerate(ctx, h.DB, p, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: moderate authorization", err)
		return
	}
	if data.CanModerate {
		data.PendingInvites, err = h.Invites.ListByGroup(ctx, gid)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "groups: list invites", err)
			return
		}
	}
	data.CanManage, err = grouppolicy.CanManage(ctx, h.DB, p, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: manage authorization", err)
		return
	}

	templates.Render(w, r, "group_view", data)
}
