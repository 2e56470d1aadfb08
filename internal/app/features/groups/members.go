// internal/app/features/groups/members.go
package groups

import (
	"net/http"

	groupstore "github.com/dalemusser/researchhub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/researchhub/internal/app/store/memberships"
	studentstore "github.com/dalemusser/researchhub/internal/app/store/students"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeMembers handles GET /groups/{id}/members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "group members", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "group members")
	defer cancel()

	if _, err := groupstore.New(h.DB).GetByID(ctx, id); err != nil {
		h.ErrLog.Fail(w, r, "group members", err)
		return
	}
	members, err := membershipstore.New(h.DB).ListByGroup(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "group members", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, members)
}

func memberParams(r *http.Request) (gid, sid primitive.ObjectID, err error) {
	if gid, err = groupID(r); err != nil {
		return
	}
	if sid, err = primitive.ObjectIDFromHex(chi.URLParam(r, "student_id")); err != nil {
		err = studentstore.ErrNotFound
	}
	return
}

// HandleAddMember handles POST /groups/{id}/members/{student_id}.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	gid, sid, err := memberParams(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "add member", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "add member")
	defer cancel()

	if err := h.Flow.AddMember(ctx, a, gid, sid); err != nil {
		h.ErrLog.Fail(w, r, "add member", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, map[string]string{"message": "Member added successfully"})
}

// HandleRemoveMember handles DELETE /groups/{id}/members/{student_id}.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	gid, sid, err := memberParams(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "remove member", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "remove member")
	defer cancel()

	if err := h.Flow.RemoveMember(ctx, a, gid, sid); err != nil {
		h.ErrLog.Fail(w, r, "remove member", err)
		return
	}
	jsonutil.NoContent(w)
}
