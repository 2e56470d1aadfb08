// internal/app/features/matching/routes.go
package matching

import (
	"github.com/dalemusser/researchhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, tm *auth.TokenManager) chi.Router {
	r := chi.NewRouter()
	r.Use(tm.RequireSignedIn)
	r.Post("/match", h.HandleMatch)
	return r
}
