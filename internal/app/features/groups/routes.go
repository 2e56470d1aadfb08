// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/researchhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, tm *auth.TokenManager) chi.Router {
	r := chi.NewRouter()
	r.Use(tm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/my-groups", h.ServeMyGroups)

	r.Route("/invitations", func(ir chi.Router) {
		ir.Post("/", h.HandleInvite)
		ir.Get("/student/{student_id}", h.ServeStudentInvitations)
		ir.Put("/{id}/status", h.HandleInvitationStatus)
	})

	r.Route("/join-requests", func(jr chi.Router) {
		jr.Post("/", h.HandleJoinRequest)
		jr.Get("/group/{group_id}", h.ServeGroupJoinRequests)
		jr.Put("/{id}/status", h.HandleJoinRequestStatus)
	})

	r.Route("/{id}", func(gr chi.Router) {
		gr.Get("/", h.ServeGroup)
		gr.Put("/", h.HandleUpdate)
		gr.Delete("/", h.HandleDelete)
		gr.Get("/members", h.ServeMembers)
		gr.Post("/members/{student_id}", h.HandleAddMember)
		gr.Delete("/members/{student_id}", h.HandleRemoveMember)
		gr.Get("/mentors", h.ServeMentors)
	})

	return r
}
