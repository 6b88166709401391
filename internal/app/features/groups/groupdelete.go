// internal/app/features/groups/groupdelete.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/huddleapp/huddle/internal/app/features/errors"
	"github.com/huddleapp/huddle/internal/app/policy/grouppolicy"
	"github.com/huddleapp/huddle/internal/app/system/authz"
	"github.com/huddleapp/huddle/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleDeleteGroup removes a group and everything attached to it. Group
// admins and superusers only.
// POST /groups/{id}/delete
func (h *Handler) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	allowed, err := grouppolicy.CanManage(ctx, h.DB, p, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: delete authorization", err)
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "Only group admins can delete the group.", "/groups/"+gid.Hex())
		return
	}

	if err := h.Groups.Delete(ctx, gid); err != nil {
		h.ErrLog.LogServerError(w, r, "groups: delete", err)
		return
	}

	h.Log.Info("group deleted",
		zap.String("group_id", gid.Hex()),
		zap.String("by", p.UserID.Hex()))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
