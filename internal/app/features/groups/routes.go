// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"
	"github.com/huddleapp/huddle/internal/app/system/auth"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Everything under /groups requires authentication.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		// CREATE
		pr.Get("/new", h.ServeNewGroup)
		pr.Post("/create", h.HandleCreateGroup)

		// VIEW
		pr.Get("/{id}", h.ServeGroupView)

		// EDIT
		pr.Get("/{id}/edit", h.ServeEditGroup)
		pr.Post("/{id}/edit", h.HandleEditGroup)

		// DELETE
		pr.Post("/{id}/delete", h.HandleDeleteGroup)

		// LEAVE
		pr.Post("/{id}/leave", h.HandleLeaveGroup)

		// INVITE
		pr.Get("/{id}/invite", h.ServeInviteForm)
		pr.Post("/{id}/invite", h.HandleInvite)

		// MEMBER MANAGEMENT
		pr.Post("/{id}/members/{userID}/role", h.HandleSetRole)
		pr.Post("/{id}/members/{userID}/points", h.HandleSetPoints)
		pr.Post("/{id}/members/{userID}/remove", h.HandleRemoveMember)
	})

	return r
}
