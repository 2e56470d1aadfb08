// internal/app/features/mentorship/routes.go
package mentorship

import (
	"github.com/dalemusser/researchhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, tm *auth.TokenManager) chi.Router {
	r := chi.NewRouter()
	r.Use(tm.RequireSignedIn)

	r.Post("/", h.HandleCreate)
	r.Get("/professor/{professor_id}", h.ServeForProfessor)
	r.Get("/group/{group_id}", h.ServeForGroup)
	r.Get("/{id}", h.ServeRequest)
	r.Put("/{id}/status", h.HandleStatus)
	r.Delete("/{id}", h.HandleWithdraw)

	return r
}
