// internal/app/features/groups/groupleave.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	uierrors "github.com/huddleapp/huddle/internal/app/features/errors"
	membershipstore "github.com/huddleapp/huddle/internal/app/store/memberships"
	"github.com/huddleapp/huddle/internal/app/system/authz"
	"github.com/huddleapp/huddle/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleLeaveGroup removes the current user's own membership. The last
// admin cannot leave; they are sent back to the group page with a notice.
// POST /groups/{id}/leave
func (h *Handler) HandleLeaveGroup(w http.ResponseWriter, r *http.Request) {
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

	err := h.Memberships.Remove(ctx, gid, p.UserID)
	switch {
	case errors.Is(err, membershipstore.ErrLastAdmin):
		notice := url.QueryEscape("You are the only admin. Promote someone else or delete the group instead.")
		http.Redirect(w, r, "/groups/"+gid.Hex()+"?notice="+notice, http.StatusSeeOther)
		return
	case errors.Is(err, membershipstore.ErrNotAMember):
		uierrors.RenderForbidden(w, r, "You are not a member of this group.", "/")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "groups: leave", err)
		return
	}

	h.Log.Info("left group",
		zap.String("group_id", gid.Hex()),
		zap.String("user_id", p.UserID.Hex()))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
