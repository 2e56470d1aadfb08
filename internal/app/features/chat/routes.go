// internal/app/features/chat/routes.go
package chat

import (
	"github.com/dalemusser/researchhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /chat.
func Routes(h *Handler, tm *auth.TokenManager) chi.Router {
	r := chi.NewRouter()
	r.Use(tm.RequireSignedIn)

	r.Route("/groups/{group_id}", func(gr chi.Router) {
		gr.Get("/messages", h.ServeMessages)
		gr.Post("/messages", h.HandleSend)
		gr.Post("/messages/read-all", h.HandleReadAll)
		gr.Put("/messages/{id}", h.HandleEdit)
		gr.Delete("/messages/{id}", h.HandleDelete)
		gr.Post("/messages/{id}/read", h.HandleRead)
		gr.Get("/unread-count", h.ServeUnreadCount)
	})

	return r
}
