// internal/app/features/professors/professors.go
package professors

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	groupstore "github.com/dalemusser/researchhub/internal/app/store/groups"
	mentorshipstore "github.com/dalemusser/researchhub/internal/app/store/mentorship"
	professorstore "github.com/dalemusser/researchhub/internal/app/store/professors"
	userstore "github.com/dalemusser/researchhub/internal/app/store/users"
	"github.com/dalemusser/researchhub/internal/app/system/authz"
	"github.com/dalemusser/researchhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/normalize"
	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/dalemusser/researchhub/internal/app/system/txn"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /professors?faculty=&research_area=&available_only=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := professorstore.Filter{
		Faculty:      normalize.QueryParam(q.Get("faculty")),
		ResearchArea: htmlsanitize.Text(q.Get("research_area")),
	}
	f.AvailableOnly, _ = jsonutil.QueryBool(r, "available_only")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list professors")
	defer cancel()

	out, err := professorstore.New(h.DB).List(ctx, f, paging.Parse(r, paging.DefaultLimit))
	if err != nil {
		h.ErrLog.Fail(w, r, "list professors", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}

// ServeProfessor handles GET /professors/{id}.
func (h *Handler) ServeProfessor(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "get professor", professorstore.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get professor")
	defer cancel()

	out, err := professorstore.New(h.DB).GetWithUser(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get professor", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}

type createRequest struct {
	UserID            primitive.ObjectID `json:"user_id"`
	ProfessorID       string             `json:"professor_id"`
	Faculty           string             `json:"faculty"`
	Field             string             `json:"field"`
	Department        string             `json:"department"`
	ResearchAreas     []string           `json:"research_areas"`
	ResearchInterests []string           `json:"research_interests"`
	Achievements      string             `json:"achievements"`
	Publications      int                `json:"publications"`
	Bio               string             `json:"bio"`
	TotalSlots        int                `json:"total_slots"`
}

// HandleCreate attaches a professor profile to an existing user (admin).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode professor", err, "Invalid JSON body")
		return
	}
	in.ProfessorID = strings.TrimSpace(in.ProfessorID)
	if in.ProfessorID == "" || in.UserID.IsZero() {
		h.ErrLog.LogBadRequest(w, r, "create professor", nil, "user_id and professor_id are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create professor")
	defer cancel()

	if _, err := userstore.New(h.DB).GetByID(ctx, in.UserID); err != nil {
		h.ErrLog.Fail(w, r, "create professor", err)
		return
	}
	p, err := professorstore.New(h.DB).Create(ctx, models.Professor{
		UserID:            in.UserID,
		ProfessorID:       in.ProfessorID,
		Faculty:           htmlsanitize.Text(in.Faculty),
		Field:             htmlsanitize.Text(in.Field),
		Department:        htmlsanitize.Text(in.Department),
		ResearchAreas:     normalize.List(htmlsanitize.TextSlice(in.ResearchAreas)),
		ResearchInterests: normalize.List(htmlsanitize.TextSlice(in.ResearchInterests)),
		Achievements:      htmlsanitize.Text(in.Achievements),
		Publications:      in.Publications,
		Bio:               htmlsanitize.Text(in.Bio),
		TotalSlots:        in.TotalSlots,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "create professor", err)
		return
	}
	jsonutil.Write(w, http.StatusCreated, p)
}

type updateRequest struct {
	Faculty           *string  `json:"faculty"`
	Field             *string  `json:"field"`
	Department        *string  `json:"department"`
	ResearchAreas     []string `json:"research_areas"`
	ResearchInterests []string `json:"research_interests"`
	Achievements      *string  `json:"achievements"`
	Publications      *int     `json:"publications"`
	Bio               *string  `json:"bio"`
	AvailableSlots    *int     `json:"available_slots"`
	TotalSlots        *int     `json:"total_slots"`
}

func (u updateRequest) toStore() professorstore.Update {
	out := professorstore.Update{
		Faculty:        text(u.Faculty),
		Field:          text(u.Field),
		Department:     text(u.Department),
		Achievements:   text(u.Achievements),
		Publications:   u.Publications,
		Bio:            text(u.Bio),
		AvailableSlots: u.AvailableSlots,
		TotalSlots:     u.TotalSlots,
	}
	if u.ResearchAreas != nil {
		out.ResearchAreas = normalize.List(htmlsanitize.TextSlice(u.ResearchAreas))
	}
	if u.ResearchInterests != nil {
		out.ResearchInterests = normalize.List(htmlsanitize.TextSlice(u.ResearchInterests))
	}
	return out
}

func text(p *string) *string {
	if p == nil {
		return nil
	}
	s := htmlsanitize.Text(*p)
	return &s
}

// HandleUpdate edits a professor profile. The professor themself or an admin.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "update professor", professorstore.ErrNotFound)
		return
	}
	var in updateRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode professor update", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update professor")
	defer cancel()

	store := professorstore.New(h.DB)
	p, err := store.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "update professor", err)
		return
	}
	if !authz.IsSelfOrAdmin(r, p.UserID) {
		h.ErrLog.Fail(w, r, "update professor", requestflow.ErrNotAuthorized)
		return
	}

	out, err := store.Update(ctx, id, in.toStore())
	if err != nil {
		h.ErrLog.Fail(w, r, "update professor", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}

// HandleDelete removes a professor (admin). The professor is dropped from
// every group they mentor and their unanswered requests are removed.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "delete professor", professorstore.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete professor")
	defer cancel()

	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		return h.deleteProfessor(ctx, id)
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "delete professor", err)
		return
	}
	h.Log.Info("professor deleted", zap.String("professor_id", id.Hex()))
	jsonutil.NoContent(w)
}

func (h *Handler) deleteProfessor(ctx context.Context, id primitive.ObjectID) error {
	profs := professorstore.New(h.DB)
	groups := groupstore.New(h.DB)

	if _, err := profs.GetByID(ctx, id); err != nil {
		return err
	}
	mentored, err := groups.MentoredBy(ctx, id)
	if err != nil {
		return err
	}
	for _, g := range mentored {
		if err := groups.RemoveMentor(ctx, g.ID, id); err != nil {
			return err
		}
	}
	if _, err := mentorshipstore.New(h.DB).DeletePendingForProfessor(ctx, id); err != nil {
		return err
	}
	n, err := profs.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return professorstore.ErrNotFound
	}
	return nil
}

type bulkRequest struct {
	Accounts []models.ProfessorAccount `json:"accounts"`
}

// HandleBulk creates a login and profile per row (admin).
func (h *Handler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	var in bulkRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode bulk professors", err, "Invalid JSON body")
		return
	}
	if len(in.Accounts) == 0 {
		h.ErrLog.LogBadRequest(w, r, "bulk professors", nil, "No accounts to create")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "bulk professors")
	defer cancel()

	res := h.Accounts.Professors(ctx, in.Accounts)
	h.Log.Info("bulk professor import", zap.Int("success", res.Success), zap.Int("failed", res.Failed))
	jsonutil.Write(w, http.StatusOK, res)
}
