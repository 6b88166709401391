// internal/app/features/groups/groupedit.go
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/huddleapp/huddle/internal/app/features/errors"
	"github.com/huddleapp/huddle/internal/app/policy/grouppolicy"
	groupstore "github.com/huddleapp/huddle/internal/app/store/groups"
	"github.com/huddleapp/huddle/internal/app/system/authz"
	"github.com/huddleapp/huddle/internal/app/system/formutil"
	"github.com/huddleapp/huddle/internal/app/system/htmlsanitize"
	"github.com/huddleapp/huddle/internal/app/system/inputval"
	"github.com/huddleapp/huddle/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

type editGroupInput struct {
	Name        string `validate:"required,max=100" label:"Name"`
	Description string `validate:"max=2000" label:"Description"`
}

type editGroupData struct {
	formutil.Base
	GroupID     string
	Name        string
	Description string
}

// ServeEditGroup renders the edit form for the group's admins.
// GET /groups/{id}/edit
func (h *Handler) ServeEditGroup(w http.ResponseWriter, r *http.Request) {
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

	allowed, err := grouppolicy.CanManage(ctx, h.DB, p, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: edit authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "Only group admins can edit the group.", "/groups/"+gid.Hex())
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

	data := editGroupData{GroupID: gid.Hex(), Name: g.Name, Description: g.Description}
	formutil.SetBase(&data.Base, r, "Edit "+g.Name, "/groups/"+gid.Hex())
	templates.Render(w, r, "group_edit", data)
}

// HandleEditGroup saves the edit form.
// POST /groups/{id}/edit
func (h *Handler) HandleEditGroup(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	allowed, err := grouppolicy.CanManage(ctx, h.DB, p, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: edit authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "Only group admins can edit the group.", "/groups/"+gid.Hex())
		return
	}

	in := editGroupInput{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
	data := editGroupData{GroupID: gid.Hex(), Name: in.Name, Description: in.Description}
	formutil.SetBase(&data.Base, r, "Edit group", "/groups/"+gid.Hex())

	if res := inputval.Validate(in); res.HasErrors() {
		data.SetError(res.First())
		templates.Render(w, r, "group_edit", data)
		return
	}

	err = h.Groups.UpdateInfo(ctx, gid, in.Name, htmlsanitize.Sanitize(in.Description))
	if errors.Is(err, groupstore.ErrDuplicateGroupName) {
		data.SetError(err.Error())
		templates.Render(w, r, "group_edit", data)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: update", err)
		return
	}

	http.Redirect(w, r, "/groups/"+gid.Hex(), http.StatusSeeOther)
}
