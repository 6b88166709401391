// internal/app/features/groups/groupinvite.go
package groups

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/huddleapp/huddle/internal/app/features/errors"
	"github.com/huddleapp/huddle/internal/app/policy/grouppolicy"
	membershipstore "github.com/huddleapp/huddle/internal/app/store/memberships"
	"github.com/huddleapp/huddle/internal/app/system/authz"
	"github.com/huddleapp/huddle/internal/app/system/emailutil"
	"github.com/huddleapp/huddle/internal/app/system/formutil"
	"github.com/huddleapp/huddle/internal/app/system/timeouts"
	"github.com/huddleapp/huddle/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type inviteFormData struct {
	formutil.Base
	GroupID   string
	GroupName string
	Emails    string
	Role      string
}

// ServeInviteForm renders the invite page for moderators and admins.
// GET /groups/{id}/invite
func (h *Handler) ServeInviteForm(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	allowed, err := grouppolicy.CanModerate(ctx, h.DB, p, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: invite authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "Only admins and moderators can invite members.", "/groups/"+gid.Hex())
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

	data := inviteFormData{GroupID: gid.Hex(), GroupName: g.Name, Role: models.RoleMember}
	formutil.SetBase(&data.Base, r, "Invite to "+g.Name, "/groups/"+gid.Hex())
	templates.Render(w, r, "group_invite", data)
}

// HandleInvite processes the invite form. Known addresses join right away,
// unknown ones are parked until registration, and anything skipped is
// reported back on the group page.
// POST /groups/{id}/invite
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
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
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	allowed, err := grouppolicy.CanModerate(ctx, h.DB, p, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: invite authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "Only admins and moderators can invite members.", "/groups/"+gid.Hex())
		return
	}

	raw := r.PostFormValue("emails")
	role := r.PostFormValue("role")
	if role == "" {
		role = models.RoleMember
	}

	emails := emailutil.ParseList(raw)
	if len(emails) == 0 {
		data := inviteFormData{GroupID: gid.Hex(), Emails: raw, Role: role}
		formutil.SetBase(&data.Base, r, "Invite members", "/groups/"+gid.Hex())
		data.SetError("Enter at least one email address.")
		templates.Render(w, r, "group_invite", data)
		return
	}

	rep, err := h.Memberships.InviteByEmails(ctx, gid, p.UserID, emails, role)
	if errors.Is(err, membershipstore.ErrInvalidRole) {
		data := inviteFormData{GroupID: gid.Hex(), Emails: raw, Role: models.RoleMember}
		formutil.SetBase(&data.Base, r, "Invite members", "/groups/"+gid.Hex())
		data.SetError("Invited members can only be moderators or members.")
		templates.Render(w, r, "group_invite", data)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: invite", err)
		return
	}

	msg := fmt.Sprintf("%d added, %d invited pending registration.", rep.Invited, rep.Pending)
	if len(rep.Skipped) > 0 {
		msg += " Skipped: " + strings.Join(rep.Skipped, ", ")
	}
	http.Redirect(w, r, "/groups/"+gid.Hex()+"?notice="+url.QueryEscape(msg), http.StatusSeeOther)
}
