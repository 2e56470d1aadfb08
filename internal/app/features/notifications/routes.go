// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/dalemusser/researchhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, tm *auth.TokenManager) chi.Router {
	r := chi.NewRouter()
	r.Use(tm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/unread-count", h.ServeUnreadCount)
	r.Put("/mark-read", h.HandleMarkRead)
	r.Put("/{id}/mark-read", h.HandleMarkOneRead)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/group-invitation/action", h.HandleInvitationAction)
	r.Post("/group-join-request/action", h.HandleJoinRequestAction)

	return r
}
