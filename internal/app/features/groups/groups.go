// internal/app/features/groups/groups.go
package groups

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	groupstore "github.com/dalemusser/researchhub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/researchhub/internal/app/store/memberships"
	professorstore "github.com/dalemusser/researchhub/internal/app/store/professors"
	"github.com/dalemusser/researchhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/normalize"
	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (requestflow.Actor, bool) {
	a, ok := requestflow.ActorFrom(r)
	if !ok {
		h.ErrLog.Fail(w, r, "groups", requestflow.ErrNotAuthorized)
	}
	return a, ok
}

func groupID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, groupstore.ErrNotFound
	}
	return id, nil
}

// withMentors attaches mentor summaries, loading every referenced
// professor in one query.
func (h *Handler) withMentors(ctx context.Context, groups []models.Group) ([]models.GroupWithMentors, error) {
	var ids []primitive.ObjectID
	for _, g := range groups {
		ids = append(ids, g.MentorIDs...)
	}
	profs, err := professorstore.New(h.DB).ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.GroupWithMentors, 0, len(groups))
	for _, g := range groups {
		gw := models.GroupWithMentors{Group: g, Mentors: []models.MentorSummary{}}
		for _, id := range g.MentorIDs {
			p, ok := profs[id]
			if !ok {
				continue
			}
			gw.Mentors = append(gw.Mentors, models.MentorSummary{
				ID:            p.ID,
				Name:          p.Name,
				Email:         p.Email,
				Department:    p.Department,
				ResearchAreas: p.ResearchAreas,
			})
		}
		out = append(out, gw)
	}
	return out, nil
}

// ServeList handles GET /groups.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list groups")
	defer cancel()

	gs, err := groupstore.New(h.DB).List(ctx, paging.Parse(r, paging.DefaultLimit))
	if err != nil {
		h.ErrLog.Fail(w, r, "list groups", err)
		return
	}
	out, err := h.withMentors(ctx, gs)
	if err != nil {
		h.ErrLog.Fail(w, r, "list groups", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}

// ServeMyGroups handles GET /groups/my-groups. Students get the groups they
// belong to (led or joined); professors get the groups they mentor.
func (h *Handler) ServeMyGroups(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "my groups")
	defer cancel()

	gs, err := h.myGroups(ctx, a)
	if err != nil {
		h.ErrLog.Fail(w, r, "my groups", err)
		return
	}
	out, err := h.withMentors(ctx, gs)
	if err != nil {
		h.ErrLog.Fail(w, r, "my groups", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}

func (h *Handler) myGroups(ctx context.Context, a requestflow.Actor) ([]models.Group, error) {
	gstore := groupstore.New(h.DB)
	switch a.Role {
	case models.RoleStudent:
		st, err := h.Flow.StudentFor(ctx, a)
		if err != nil {
			return []models.Group{}, nil
		}
		ids, err := membershipstore.New(h.DB).GroupIDsForStudent(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		return gstore.ByIDs(ctx, ids)
	case models.RoleProfessor:
		p, err := h.Flow.ProfessorFor(ctx, a)
		if err != nil {
			return []models.Group{}, nil
		}
		return gstore.MentoredBy(ctx, p.ID)
	}
	return []models.Group{}, nil
}

// ServeGroup handles GET /groups/{id}.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "get group", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get group")
	defer cancel()

	g, err := groupstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get group", err)
		return
	}
	out, err := h.withMentors(ctx, []models.Group{g})
	if err != nil {
		h.ErrLog.Fail(w, r, "get group", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out[0])
}

// ServeMentors handles GET /groups/{id}/mentors.
func (h *Handler) ServeMentors(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "group mentors", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "group mentors")
	defer cancel()

	g, err := groupstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "group mentors", err)
		return
	}
	out, err := h.withMentors(ctx, []models.Group{g})
	if err != nil {
		h.ErrLog.Fail(w, r, "group mentors", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out[0].Mentors)
}

type createRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	NeededSkills []string `json:"needed_skills"`
	MaxMembers   int      `json:"max_members"`
	LeaderID     string   `json:"leader_id"`
}

// HandleCreate handles POST /groups. The caller becomes the leader.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var in createRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode group", err, "Invalid JSON body")
		return
	}

	gi := requestflow.GroupInput{
		Name:         htmlsanitize.Text(in.Name),
		Description:  htmlsanitize.Text(in.Description),
		NeededSkills: normalize.List(htmlsanitize.TextSlice(in.NeededSkills)),
		MaxMembers:   in.MaxMembers,
	}
	if gi.Name == "" {
		h.ErrLog.Fail(w, r, "create group", errNameRequired)
		return
	}
	if gi.MaxMembers < 1 {
		h.ErrLog.Fail(w, r, "create group", errMaxMembersLow)
		return
	}
	if s := strings.TrimSpace(in.LeaderID); s != "" {
		lid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			h.ErrLog.Fail(w, r, "create group", requestflow.ErrLeaderMismatch)
			return
		}
		gi.LeaderID = lid
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create group")
	defer cancel()

	g, err := h.Flow.CreateGroup(ctx, a, gi)
	if err != nil {
		h.ErrLog.Fail(w, r, "create group", err)
		return
	}
	jsonutil.Write(w, http.StatusCreated, models.GroupWithMentors{Group: g, Mentors: []models.MentorSummary{}})
}

type updateRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	NeededSkills []string `json:"needed_skills"`
	MaxMembers   *int     `json:"max_members"`
}

// HandleUpdate handles PUT /groups/{id}. Leader or admin.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := groupID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "update group", err)
		return
	}
	var in updateRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode group update", err, "Invalid JSON body")
		return
	}

	u := groupstore.Update{MaxMembers: in.MaxMembers}
	if in.Name != nil {
		name := htmlsanitize.Text(*in.Name)
		if name == "" {
			h.ErrLog.Fail(w, r, "update group", errNameRequired)
			return
		}
		u.Name = &name
	}
	if in.Description != nil {
		d := htmlsanitize.Text(*in.Description)
		u.Description = &d
	}
	if in.NeededSkills != nil {
		u.NeededSkills = normalize.List(htmlsanitize.TextSlice(in.NeededSkills))
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update group")
	defer cancel()

	gstore := groupstore.New(h.DB)
	g, err := gstore.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "update group", err)
		return
	}
	if err := h.Flow.CanManage(ctx, a, g, requestflow.ErrUpdateLeaderOnly); err != nil {
		h.ErrLog.Fail(w, r, "update group", err)
		return
	}
	g, err = gstore.Update(ctx, id, u)
	if err != nil {
		h.ErrLog.Fail(w, r, "update group", err)
		return
	}
	out, err := h.withMentors(ctx, []models.Group{g})
	if err != nil {
		h.ErrLog.Fail(w, r, "update group", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out[0])
}

// HandleDelete handles DELETE /groups/{id}. Leader or admin.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := groupID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "delete group", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "delete group")
	defer cancel()

	if err := h.Flow.DeleteGroup(ctx, a, id); err != nil {
		h.ErrLog.Fail(w, r, "delete group", err)
		return
	}
	jsonutil.NoContent(w)
}
