// internal/app/features/auth/profile.go
package auth

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/researchhub/internal/app/features/errors"
	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	professorstore "github.com/dalemusser/researchhub/internal/app/store/professors"
	studentstore "github.com/dalemusser/researchhub/internal/app/store/students"
	userstore "github.com/dalemusser/researchhub/internal/app/store/users"
	"github.com/dalemusser/researchhub/internal/app/system/authz"
	"github.com/dalemusser/researchhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/normalize"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeMe returns the caller's account.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "auth me")
	defer cancel()

	u, err := userstore.New(h.DB).GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		errorsfeature.Unauthorized(w, "User not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load current user", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, u)
}

// ServeStudentProfile returns the calling student's profile.
func (h *Handler) ServeStudentProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireRole(w, r, models.RoleStudent, "Only students can access student profiles")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get student profile")
	defer cancel()

	st, err := h.studentForUser(ctx, uid)
	if err != nil {
		h.ErrLog.Fail(w, r, "get student profile", err)
		return
	}
	out, err := studentstore.New(h.DB).GetWithUser(ctx, st.ID)
	if err != nil {
		h.ErrLog.Fail(w, r, "get student profile", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}

type studentProfileUpdate struct {
	Bio             *string  `json:"bio"`
	Skills          []string `json:"skills"`
	LookingForGroup *bool    `json:"looking_for_group"`
}

// HandleUpdateStudentProfile lets a student edit bio, skills, and
// looking_for_group. Academic fields stay admin-managed.
func (h *Handler) HandleUpdateStudentProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireRole(w, r, models.RoleStudent, "Only students can update student profiles")
	if !ok {
		return
	}
	var in studentProfileUpdate
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode student profile", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update student profile")
	defer cancel()

	st, err := h.studentForUser(ctx, uid)
	if err != nil {
		h.ErrLog.Fail(w, r, "update student profile", err)
		return
	}

	upd := studentstore.Update{LookingForGroup: in.LookingForGroup}
	if in.Bio != nil {
		bio := htmlsanitize.Text(*in.Bio)
		upd.Bio = &bio
	}
	if in.Skills != nil {
		upd.Skills = normalize.List(htmlsanitize.TextSlice(in.Skills))
	}

	store := studentstore.New(h.DB)
	if _, err := store.Update(ctx, st.ID, upd); err != nil {
		h.ErrLog.Fail(w, r, "update student profile", err)
		return
	}
	out, err := store.GetWithUser(ctx, st.ID)
	if err != nil {
		h.ErrLog.Fail(w, r, "update student profile", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}

// ServeProfessorProfile returns the calling professor's profile.
func (h *Handler) ServeProfessorProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireRole(w, r, models.RoleProfessor, "Only professors can access professor profiles")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get professor profile")
	defer cancel()

	p, err := h.professorForUser(ctx, uid)
	if err != nil {
		h.ErrLog.Fail(w, r, "get professor profile", err)
		return
	}
	out, err := professorstore.New(h.DB).GetWithUser(ctx, p.ID)
	if err != nil {
		h.ErrLog.Fail(w, r, "get professor profile", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}

type professorProfileUpdate struct {
	Bio               *string  `json:"bio"`
	ResearchInterests []string `json:"research_interests"`
	TotalSlots        *int     `json:"total_slots"`
}

// HandleUpdateProfessorProfile lets a professor edit bio, research
// interests, and total_slots. Lowering total_slots clamps available_slots.
func (h *Handler) HandleUpdateProfessorProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireRole(w, r, models.RoleProfessor, "Only professors can update professor profiles")
	if !ok {
		return
	}
	var in professorProfileUpdate
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode professor profile", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update professor profile")
	defer cancel()

	p, err := h.professorForUser(ctx, uid)
	if err != nil {
		h.ErrLog.Fail(w, r, "update professor profile", err)
		return
	}

	upd := professorstore.Update{TotalSlots: in.TotalSlots}
	if in.Bio != nil {
		bio := htmlsanitize.Text(*in.Bio)
		upd.Bio = &bio
	}
	if in.ResearchInterests != nil {
		upd.ResearchInterests = normalize.List(htmlsanitize.TextSlice(in.ResearchInterests))
	}

	store := professorstore.New(h.DB)
	if _, err := store.Update(ctx, p.ID, upd); err != nil {
		h.ErrLog.Fail(w, r, "update professor profile", err)
		return
	}
	out, err := store.GetWithUser(ctx, p.ID)
	if err != nil {
		h.ErrLog.Fail(w, r, "update professor profile", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}

/*─────────────────────────────────────────────────────────────────────────────*
| helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, role, detail string) (primitive.ObjectID, bool) {
	cur, _, uid, ok := authz.UserCtx(r)
	if !ok {
		errorsfeature.Unauthorized(w, "Could not validate credentials")
		return primitive.NilObjectID, false
	}
	if cur != role {
		errorsfeature.Forbidden(w, detail)
		return primitive.NilObjectID, false
	}
	return uid, true
}

func (h *Handler) studentForUser(ctx context.Context, uid primitive.ObjectID) (models.Student, error) {
	st, err := studentstore.New(h.DB).GetByUserID(ctx, uid)
	if errors.Is(err, studentstore.ErrNotFound) {
		return models.Student{}, requestflow.ErrStudentProfile
	}
	return st, err
}

func (h *Handler) professorForUser(ctx context.Context, uid primitive.ObjectID) (models.Professor, error) {
	p, err := professorstore.New(h.DB).GetByUserID(ctx, uid)
	if errors.Is(err, professorstore.ErrNotFound) {
		return models.Professor{}, requestflow.ErrProfessorProfile
	}
	return p, err
}
