// internal/app/features/groups/groupmembers.go
package groups

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/huddleapp/huddle/internal/app/features/errors"
	"github.com/huddleapp/huddle/internal/app/policy/grouppolicy"
	membershipstore "github.com/huddleapp/huddle/internal/app/store/memberships"
	"github.com/huddleapp/huddle/internal/app/system/authz"
	"github.com/huddleapp/huddle/internal/app/system/timeouts"
	"github.com/huddleapp/huddle/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func memberIDs(r *http.Request) (gid, uid primitive.ObjectID, ok bool) {
	gid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return gid, uid, false
	}
	uid, err = primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	return gid, uid, err == nil
}

// requireManage runs the admin check shared by the member-management posts.
// It writes the response itself when the request may not proceed.
func (h *Handler) requireManage(w http.ResponseWriter, r *http.Request, ctx context.Context, gid primitive.ObjectID) (models.Principal, bool) {
	p, ok := authz.Principal(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return p, false
	}
	allowed, err := grouppolicy.CanManage(ctx, h.DB, p, gid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: manage authorization", err)
		return p, false
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "Only group admins can manage members.", "/groups/"+gid.Hex())
		return p, false
	}
	return p, true
}

func redirectWithNotice(w http.ResponseWriter, r *http.Request, gid primitive.ObjectID, notice string) {
	target := "/groups/" + gid.Hex()
	if notice != "" {
		target += "?notice=" + url.QueryEscape(notice)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandleSetRole changes a member's role. Demoting the last admin is
// refused.
// POST /groups/{id}/members/{userID}/role
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	gid, uid, ok := memberIDs(r)
	if !ok {
		uierrors.RenderNotFound(w, r, "Member not found.")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, ok := h.requireManage(w, r, ctx, gid); !ok {
		return
	}

	err := h.Memberships.UpdateRole(ctx, gid, uid, r.PostFormValue("role"))
	switch {
	case errors.Is(err, membershipstore.ErrLastAdmin):
		redirectWithNotice(w, r, gid, "A group must keep at least one admin.")
	case errors.Is(err, membershipstore.ErrNotAMember):
		uierrors.RenderNotFound(w, r, "Member not found.")
	case errors.Is(err, membershipstore.ErrInvalidRole):
		redirectWithNotice(w, r, gid, "Unknown role.")
	case err != nil:
		h.ErrLog.LogServerError(w, r, "groups: set role", err)
	default:
		redirectWithNotice(w, r, gid, "")
	}
}

// HandleSetPoints sets a member's points.
// POST /groups/{id}/members/{userID}/points
func (h *Handler) HandleSetPoints(w http.ResponseWriter, r *http.Request) {
	gid, uid, ok := memberIDs(r)
	if !ok {
		uierrors.RenderNotFound(w, r, "Member not found.")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, ok := h.requireManage(w, r, ctx, gid); !ok {
		return
	}

	points, err := strconv.Atoi(r.PostFormValue("points"))
	if err != nil || points < models.MinPoints || points > models.MaxPoints {
		redirectWithNotice(w, r, gid, fmt.Sprintf("Points must be a whole number between %d and %d.", models.MinPoints, models.MaxPoints))
		return
	}

	err = h.Memberships.UpdatePoints(ctx, gid, uid, points)
	switch {
	case errors.Is(err, membershipstore.ErrNotAMember):
		uierrors.RenderNotFound(w, r, "Member not found.")
	case err != nil:
		h.ErrLog.LogServerError(w, r, "groups: set points", err)
	default:
		redirectWithNotice(w, r, gid, "")
	}
}

// HandleRemoveMember removes another member from the group. The same
// last-admin rule applies as when leaving.
// POST /groups/{id}/members/{userID}/remove
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	gid, uid, ok := memberIDs(r)
	if !ok {
		uierrors.RenderNotFound(w, r, "Member not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, ok := h.requireManage(w, r, ctx, gid); !ok {
		return
	}

	err := h.Memberships.Remove(ctx, gid, uid)
	switch {
	case errors.Is(err, membershipstore.ErrLastAdmin):
		redirectWithNotice(w, r, gid, "A group must keep at least one admin.")
	case errors.Is(err, membershipstore.ErrNotAMember):
		uierrors.RenderNotFound(w, r, "Member not found.")
	case err != nil:
		h.ErrLog.LogServerError(w, r, "groups: remove member", err)
	default:
		redirectWithNotice(w, r, gid, "")
	}
}
