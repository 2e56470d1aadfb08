// internal/app/features/mentorship/mentorship.go
package mentorship

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	groupstore "github.com/dalemusser/researchhub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/researchhub/internal/app/store/memberships"
	mentorshipstore "github.com/dalemusser/researchhub/internal/app/store/mentorship"
	professorstore "github.com/dalemusser/researchhub/internal/app/store/professors"
	studentstore "github.com/dalemusser/researchhub/internal/app/store/students"
	"github.com/dalemusser/researchhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (requestflow.Actor, bool) {
	a, ok := requestflow.ActorFrom(r)
	if !ok {
		h.ErrLog.Fail(w, r, "mentorship", requestflow.ErrNotAuthorized)
	}
	return a, ok
}

func objectID(r *http.Request, key string, missing error) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		return primitive.NilObjectID, missing
	}
	return id, nil
}

type createRequest struct {
	GroupID     primitive.ObjectID `json:"group_id"`
	ProfessorID primitive.ObjectID `json:"professor_id"`
	RequestedBy primitive.ObjectID `json:"requested_by"`
	Message     string             `json:"message"`
}

// HandleCreate handles POST /mentorship-requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var in createRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode mentorship request", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create mentorship request")
	defer cancel()

	req, err := h.Flow.RequestMentorship(ctx, a, requestflow.MentorshipInput{
		GroupID:     in.GroupID,
		ProfessorID: in.ProfessorID,
		RequestedBy: in.RequestedBy,
		Message:     htmlsanitize.Text(in.Message),
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "create mentorship request", err)
		return
	}
	jsonutil.Write(w, http.StatusCreated, req)
}

// ServeRequest handles GET /mentorship-requests/{id}. Visible to the
// addressed professor, members of the group, and admins.
func (h *Handler) ServeRequest(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := objectID(r, "id", mentorshipstore.ErrNotFound)
	if err != nil {
		h.ErrLog.Fail(w, r, "get mentorship request", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get mentorship request")
	defer cancel()

	req, err := mentorshipstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get mentorship request", err)
		return
	}
	if err := h.canView(ctx, a, req); err != nil {
		h.ErrLog.Fail(w, r, "get mentorship request", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, req)
}

func (h *Handler) canView(ctx context.Context, a requestflow.Actor, req models.MentorshipRequest) error {
	switch a.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleProfessor:
		p, err := h.Flow.ProfessorFor(ctx, a)
		if err != nil {
			return requestflow.ErrNotAuthorized
		}
		if p.ID == req.ProfessorID {
			return nil
		}
	case models.RoleStudent:
		st, err := h.Flow.StudentFor(ctx, a)
		if err != nil {
			return requestflow.ErrNotAuthorized
		}
		if st.ID == req.RequestedBy {
			return nil
		}
		member, err := membershipstore.New(h.DB).Exists(ctx, req.GroupID, st.ID)
		if err != nil {
			return err
		}
		if member {
			return nil
		}
	}
	return requestflow.ErrNotAuthorized
}

// ServeForProfessor handles GET /mentorship-requests/professor/{professor_id}?status=.
func (h *Handler) ServeForProfessor(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	pid, err := objectID(r, "professor_id", professorstore.ErrNotFound)
	if err != nil {
		h.ErrLog.Fail(w, r, "professor mentorship requests", err)
		return
	}
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "professor mentorship requests")
	defer cancel()

	if !a.IsAdmin() {
		p, err := h.Flow.ProfessorFor(ctx, a)
		if err != nil || p.ID != pid {
			h.ErrLog.Fail(w, r, "professor mentorship requests", errViewProfessor)
			return
		}
	}
	reqs, err := mentorshipstore.New(h.DB).ListForProfessor(ctx, pid, status)
	if err != nil {
		h.ErrLog.Fail(w, r, "professor mentorship requests", err)
		return
	}
	out, err := h.withDetails(ctx, pid, reqs)
	if err != nil {
		h.ErrLog.Fail(w, r, "professor mentorship requests", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}

// withDetails joins group, requester, and professor fields onto reqs.
func (h *Handler) withDetails(ctx context.Context, pid primitive.ObjectID, reqs []models.MentorshipRequest) ([]models.MentorshipRequestWithDetails, error) {
	var gids, sids []primitive.ObjectID
	for _, q := range reqs {
		gids = append(gids, q.GroupID)
		sids = append(sids, q.RequestedBy)
	}
	gs, err := groupstore.New(h.DB).ByIDs(ctx, gids)
	if err != nil {
		return nil, err
	}
	byGroup := make(map[primitive.ObjectID]models.Group, len(gs))
	for _, g := range gs {
		byGroup[g.ID] = g
	}
	students, err := studentstore.New(h.DB).ByIDs(ctx, sids)
	if err != nil {
		return nil, err
	}
	var profName string
	if len(reqs) > 0 {
		p, err := professorstore.New(h.DB).GetWithUser(ctx, pid)
		if err != nil {
			return nil, err
		}
		profName = p.Name
	}

	out := make([]models.MentorshipRequestWithDetails, 0, len(reqs))
	for _, q := range reqs {
		g := byGroup[q.GroupID]
		st := students[q.RequestedBy]
		skills := g.NeededSkills
		if skills == nil {
			skills = []string{}
		}
		out = append(out, models.MentorshipRequestWithDetails{
			MentorshipRequest: q,
			GroupName:         g.Name,
			GroupDescription:  g.Description,
			GroupNeededSkills: skills,
			RequesterName:     st.Name,
			RequesterEmail:    st.Email,
			ProfessorName:     profName,
		})
	}
	return out, nil
}

// ServeForGroup handles GET /mentorship-requests/group/{group_id}.
func (h *Handler) ServeForGroup(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	gid, err := objectID(r, "group_id", groupstore.ErrNotFound)
	if err != nil {
		h.ErrLog.Fail(w, r, "group mentorship requests", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "group mentorship requests")
	defer cancel()

	g, err := groupstore.New(h.DB).GetByID(ctx, gid)
	if err != nil {
		h.ErrLog.Fail(w, r, "group mentorship requests", err)
		return
	}
	if err := h.Flow.CanManage(ctx, a, g, errViewGroup); err != nil {
		h.ErrLog.Fail(w, r, "group mentorship requests", err)
		return
	}
	reqs, err := mentorshipstore.New(h.DB).ListForGroup(ctx, gid)
	if err != nil {
		h.ErrLog.Fail(w, r, "group mentorship requests", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, reqs)
}

type statusRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason"`
}

// HandleStatus handles PUT /mentorship-requests/{id}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := objectID(r, "id", mentorshipstore.ErrNotFound)
	if err != nil {
		h.ErrLog.Fail(w, r, "mentorship status", err)
		return
	}
	var in statusRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode mentorship status", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "mentorship status")
	defer cancel()

	req, err := h.Flow.RespondMentorship(ctx, a, id,
		strings.ToLower(strings.TrimSpace(in.Status)), htmlsanitize.Text(in.RejectionReason))
	if err != nil {
		h.ErrLog.Fail(w, r, "mentorship status", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, req)
}

// HandleWithdraw handles DELETE /mentorship-requests/{id}.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := objectID(r, "id", mentorshipstore.ErrNotFound)
	if err != nil {
		h.ErrLog.Fail(w, r, "withdraw mentorship request", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "withdraw mentorship request")
	defer cancel()

	if err := h.Flow.WithdrawMentorship(ctx, a, id); err != nil {
		h.ErrLog.Fail(w, r, "withdraw mentorship request", err)
		return
	}
	jsonutil.NoContent(w)
}
