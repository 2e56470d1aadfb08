// internal/app/features/auth/routes.go
package auth

import (
	"github.com/dalemusser/researchhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, tm *auth.TokenManager) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.HandleLogin)
	r.Post("/register", h.HandleRegister)

	r.Group(func(pr chi.Router) {
		pr.Use(tm.RequireSignedIn)

		pr.Get("/me", h.ServeMe)

		pr.Get("/student-profile", h.ServeStudentProfile)
		pr.Put("/student-profile", h.HandleUpdateStudentProfile)
		pr.Get("/professor-profile", h.ServeProfessorProfile)
		pr.Put("/professor-profile", h.HandleUpdateProfessorProfile)

		// Older clients use /profile/{role}.
		pr.Get("/profile/student", h.ServeStudentProfile)
		pr.Put("/profile/student", h.HandleUpdateStudentProfile)
		pr.Get("/profile/professor", h.ServeProfessorProfile)
		pr.Put("/profile/professor", h.HandleUpdateProfessorProfile)
	})

	return r
}
