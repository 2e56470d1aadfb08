// internal/app/features/research/routes.go
package research

import (
	"github.com/dalemusser/researchhub/internal/app/system/auth"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, tm *auth.TokenManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(tm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServePaper)

		pr.Group(func(ar chi.Router) {
			ar.Use(tm.RequireRole(models.RoleAdmin))
			ar.Post("/", h.HandleCreate)
			ar.Post("/bulk", h.HandleBulk)
			ar.Put("/{id}", h.HandleUpdate)
			ar.Delete("/{id}", h.HandleDelete)
		})
	})

	return r
}
