// internal/app/features/groups/groupnew.go
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
	groupstore "github.com/huddleapp/huddle/internal/app/store/groups"
	membershipstore "github.com/huddleapp/huddle/internal/app/store/memberships"
	"github.com/huddleapp/huddle/internal/app/system/authz"
	"github.com/huddleapp/huddle/internal/app/system/emailutil"
	"github.com/huddleapp/huddle/internal/app/system/formutil"
	"github.com/huddleapp/huddle/internal/app/system/htmlsanitize"
	"github.com/huddleapp/huddle/internal/app/system/inputval"
	"github.com/huddleapp/huddle/internal/app/system/timeouts"
	"github.com/huddleapp/huddle/internal/app/system/txn"
	"github.com/huddleapp/huddle/internal/domain/models"
	"go.uber.org/zap"
)

// createGroupInput defines validation rules for creating a group. The
// invite fields are part of the form whether or not they are filled in.
type createGroupInput struct {
	Name         string `validate:"required,max=100" label:"Name"`
	Description  string `validate:"max=2000" label:"Description"`
	InviteEmails string
	InviteRole   string
}

type newGroupData struct {
	formutil.Base
	Name         string
	Description  string
	InviteEmails string
	InviteRole   string
}

// ServeNewGroup renders the create-group page.
// GET /groups/new
func (h *Handler) ServeNewGroup(w http.ResponseWriter, r *http.Request) {
	data := newGroupData{InviteRole: models.RoleMember}
	formutil.SetBase(&data.Base, r, "New group", "/")
	templates.Render(w, r, "group_new", data)
}

// HandleCreateGroup processes the create-group form. The group, its admin
// membership, and any invites commit in one transaction: a failure along
// the way writes nothing. Individual addresses that cannot be invited are
// reported, not failed.
// POST /groups/create
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.Principal(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	in := createGroupInput{
		Name:         r.PostFormValue("name"),
		Description:  r.PostFormValue("description"),
		InviteEmails: r.PostFormValue("invite_emails"),
		InviteRole:   r.PostFormValue("invite_role"),
	}
	if in.InviteRole == "" {
		in.InviteRole = models.RoleMember
	}

	data := newGroupData{
		Name:         in.Name,
		Description:  in.Description,
		InviteEmails: in.InviteEmails,
		InviteRole:   in.InviteRole,
	}
	formutil.SetBase(&data.Base, r, "New group", "/")

	if res := inputval.Validate(in); res.HasErrors() {
		data.SetError(res.First())
		templates.Render(w, r, "group_new", data)
		return
	}
	if in.InviteRole != models.RoleMember && in.InviteRole != models.RoleModerator {
		data.SetError("Invited members can only be moderators or members.")
		templates.Render(w, r, "group_new", data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	desc := htmlsanitize.Sanitize(in.Description)
	emails := emailutil.ParseList(in.InviteEmails)

	var g models.Group
	var rep membershipstore.InviteReport
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		g, err = h.Groups.CreateWithAdmin(ctx, in.Name, desc, p.UserID)
		if err != nil {
			return err
		}
		if len(emails) > 0 {
			rep, err = h.Memberships.InviteByEmails(ctx, g.ID, p.UserID, emails, in.InviteRole)
		}
		return err
	})
	if errors.Is(err, groupstore.ErrDuplicateGroupName) {
		data.SetError(err.Error())
		templates.Render(w, r, "group_new", data)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: create", err)
		return
	}

	dest := "/groups/" + g.ID.Hex()
	if len(emails) > 0 {
		h.Log.Info("groups: created with invites",
			zap.String("group_id", g.ID.Hex()),
			zap.Int("invited", rep.Invited),
			zap.Int("pending", rep.Pending),
			zap.Strings("skipped", rep.Skipped))
		msg := fmt.Sprintf("%d added, %d invited pending registration.", rep.Invited, rep.Pending)
		if len(rep.Skipped) > 0 {
			msg += " Skipped: " + strings.Join(rep.Skipped, ", ")
		}
		dest += "?notice=" + url.QueryEscape(msg)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
