// internal/app/features/groups/requests.go
package groups

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	invitationstore "github.com/dalemusser/researchhub/internal/app/store/invitations"
	joinrequeststore "github.com/dalemusser/researchhub/internal/app/store/joinrequests"
	studentstore "github.com/dalemusser/researchhub/internal/app/store/students"
	"github.com/dalemusser/researchhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type requestBody struct {
	GroupID   primitive.ObjectID `json:"group_id"`
	StudentID primitive.ObjectID `json:"student_id"`
	Message   string             `json:"message"`
}

// statusParam reads the target status from ?status=, falling back to a
// JSON body of the form {"status": "..."}.
func statusParam(w http.ResponseWriter, r *http.Request) (string, error) {
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" {
		return strings.ToLower(s), nil
	}
	if r.Body == nil || r.ContentLength == 0 {
		return "", errStatusRequired
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := jsonutil.Decode(w, r, &body); err != nil || strings.TrimSpace(body.Status) == "" {
		return "", errStatusRequired
	}
	return strings.ToLower(strings.TrimSpace(body.Status)), nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Invitations                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleInvite handles POST /groups/invitations. Leader or admin.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var in requestBody
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode invitation", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create invitation")
	defer cancel()

	inv, err := h.Flow.Invite(ctx, a, in.GroupID, in.StudentID, htmlsanitize.Text(in.Message))
	if err != nil {
		h.ErrLog.Fail(w, r, "create invitation", err)
		return
	}
	jsonutil.Write(w, http.StatusCreated, inv)
}

// ServeStudentInvitations handles GET /groups/invitations/student/{student_id}.
// The student themselves or an admin.
func (h *Handler) ServeStudentInvitations(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	sid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "student_id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "student invitations", studentstore.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "student invitations")
	defer cancel()

	if !a.IsAdmin() {
		st, err := h.Flow.StudentFor(ctx, a)
		if err != nil || st.ID != sid {
			h.ErrLog.Fail(w, r, "student invitations", requestflow.ErrNotAuthorized)
			return
		}
	}
	list, err := invitationstore.New(h.DB).ListForStudent(ctx, sid)
	if err != nil {
		h.ErrLog.Fail(w, r, "student invitations", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, list)
}

// HandleInvitationStatus handles PUT /groups/invitations/{id}/status.
func (h *Handler) HandleInvitationStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "invitation status", invitationstore.ErrNotFound)
		return
	}
	status, err := statusParam(w, r)
	if err != nil {
		h.ErrLog.Fail(w, r, "invitation status", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "invitation status")
	defer cancel()

	if _, err := h.Flow.RespondInvitation(ctx, a, id, status); err != nil {
		h.ErrLog.Fail(w, r, "invitation status", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Invitation %s", status)})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Join requests                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleJoinRequest handles POST /groups/join-requests.
func (h *Handler) HandleJoinRequest(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var in requestBody
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode join request", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create join request")
	defer cancel()

	jr, err := h.Flow.RequestJoin(ctx, a, in.GroupID, in.StudentID, htmlsanitize.Text(in.Message))
	if err != nil {
		h.ErrLog.Fail(w, r, "create join request", err)
		return
	}
	jsonutil.Write(w, http.StatusCreated, jr)
}

// ServeGroupJoinRequests handles GET /groups/join-requests/group/{group_id}.
// Pending requests only, for the leader.
func (h *Handler) ServeGroupJoinRequests(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	gid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "group_id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "group join requests", joinrequeststore.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "group join requests")
	defer cancel()

	list, err := h.Flow.JoinRequestsFor(ctx, a, gid)
	if err != nil {
		h.ErrLog.Fail(w, r, "group join requests", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, list)
}

// HandleJoinRequestStatus handles PUT /groups/join-requests/{id}/status.
func (h *Handler) HandleJoinRequestStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "join request status", joinrequeststore.ErrNotFound)
		return
	}
	status, err := statusParam(w, r)
	if err != nil {
		h.ErrLog.Fail(w, r, "join request status", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "join request status")
	defer cancel()

	if _, err := h.Flow.RespondJoinRequest(ctx, a, id, status); err != nil {
		h.ErrLog.Fail(w, r, "join request status", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Join request %s", status)})
}
