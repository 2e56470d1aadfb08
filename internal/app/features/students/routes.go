// internal/app/features/students/routes.go
package students

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
		pr.Get("/{id}", h.ServeStudent)
		pr.Put("/{id}", h.HandleUpdate)

		pr.Group(func(ar chi.Router) {
			ar.Use(tm.RequireRole(models.RoleAdmin))
			ar.Post("/", h.HandleCreate)
			ar.Post("/bulk", h.HandleBulk)
			ar.Delete("/{id}", h.HandleDelete)
		})
	})

	return r
}
