// internal/app/features/research/research.go
package research

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	researchstore "github.com/dalemusser/researchhub/internal/app/store/research"
	"github.com/dalemusser/researchhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/normalize"
	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /research?faculty=&year=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f := researchstore.Filter{
		Faculty: normalize.QueryParam(r.URL.Query().Get("faculty")),
		Year:    jsonutil.QueryInt(r, "year", 0),
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list research")
	defer cancel()

	out, err := researchstore.New(h.DB).List(ctx, f, paging.Parse(r, paging.DefaultLimit))
	if err != nil {
		h.ErrLog.Fail(w, r, "list research", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}

// ServePaper handles GET /research/{id}.
func (h *Handler) ServePaper(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "get research", researchstore.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get research")
	defer cancel()

	p, err := researchstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get research", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, p)
}

type paperInput struct {
	PaperID      string               `json:"paper_id"`
	GroupName    string               `json:"group_name"`
	Topic        string               `json:"topic"`
	Description  string               `json:"description"`
	Abstract     string               `json:"abstract"`
	Faculty      string               `json:"faculty"`
	Year         int                  `json:"year"`
	Rank         int                  `json:"rank"`
	Members      int                  `json:"members"`
	Leader       string               `json:"leader"`
	PaperPath    string               `json:"paper_path"`
	ProfessorIDs []primitive.ObjectID `json:"professor_ids"`
}

func (in paperInput) model() models.ResearchPaper {
	ids := in.ProfessorIDs
	if ids == nil {
		ids = []primitive.ObjectID{}
	}
	return models.ResearchPaper{
		PaperID:      strings.TrimSpace(in.PaperID),
		GroupName:    htmlsanitize.Text(in.GroupName),
		Topic:        htmlsanitize.Text(in.Topic),
		Description:  htmlsanitize.Text(in.Description),
		Abstract:     htmlsanitize.Text(in.Abstract),
		Faculty:      htmlsanitize.Text(in.Faculty),
		Year:         in.Year,
		Rank:         in.Rank,
		Members:      in.Members,
		Leader:       htmlsanitize.Text(in.Leader),
		PaperPath:    strings.TrimSpace(in.PaperPath),
		ProfessorIDs: ids,
	}
}

func (h *Handler) create(ctx context.Context, in paperInput) (models.ResearchPaper, error) {
	p := in.model()
	if p.PaperID == "" {
		return models.ResearchPaper{}, errPaperIDRequired
	}
	return researchstore.New(h.DB).Create(ctx, p)
}

// HandleCreate handles POST /research (admin).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in paperInput
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode research", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create research")
	defer cancel()

	p, err := h.create(ctx, in)
	if err != nil {
		h.ErrLog.Fail(w, r, "create research", err)
		return
	}
	jsonutil.Write(w, http.StatusCreated, p)
}

type updateRequest struct {
	GroupName    *string              `json:"group_name"`
	Topic        *string              `json:"topic"`
	Description  *string              `json:"description"`
	Abstract     *string              `json:"abstract"`
	Faculty      *string              `json:"faculty"`
	Year         *int                 `json:"year"`
	Rank         *int                 `json:"rank"`
	Members      *int                 `json:"members"`
	Leader       *string              `json:"leader"`
	PaperPath    *string              `json:"paper_path"`
	ProfessorIDs []primitive.ObjectID `json:"professor_ids"`
}

func text(p *string) *string {
	if p == nil {
		return nil
	}
	s := htmlsanitize.Text(*p)
	return &s
}

// HandleUpdate handles PUT /research/{id} (admin).
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "update research", researchstore.ErrNotFound)
		return
	}
	var in updateRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode research update", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update research")
	defer cancel()

	p, err := researchstore.New(h.DB).Update(ctx, id, researchstore.Update{
		GroupName:    text(in.GroupName),
		Topic:        text(in.Topic),
		Description:  text(in.Description),
		Abstract:     text(in.Abstract),
		Faculty:      text(in.Faculty),
		Year:         in.Year,
		Rank:         in.Rank,
		Members:      in.Members,
		Leader:       text(in.Leader),
		PaperPath:    in.PaperPath,
		ProfessorIDs: in.ProfessorIDs,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "update research", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, p)
}

// HandleDelete handles DELETE /research/{id} (admin).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "delete research", researchstore.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete research")
	defer cancel()

	n, err := researchstore.New(h.DB).Delete(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "delete research", err)
		return
	}
	if n == 0 {
		h.ErrLog.Fail(w, r, "delete research", researchstore.ErrNotFound)
		return
	}
	jsonutil.NoContent(w)
}

// BulkResult is the research bulk-import response.
type BulkResult struct {
	Success int                    `json:"success"`
	Failed  int                    `json:"failed"`
	Papers  []models.ResearchPaper `json:"papers"`
	Errors  []string               `json:"errors"`
}

// HandleBulk handles POST /research/bulk (admin). Rows fail independently.
func (h *Handler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Papers []paperInput `json:"papers"`
	}
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode bulk research", err, "Invalid JSON body")
		return
	}
	if len(in.Papers) == 0 {
		h.ErrLog.LogBadRequest(w, r, "bulk research", nil, "No papers to create")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "bulk research")
	defer cancel()

	res := BulkResult{Papers: []models.ResearchPaper{}, Errors: []string{}}
	for i, row := range in.Papers {
		p, err := h.create(ctx, row)
		if err != nil {
			if _, known := classify(err); !known {
				h.Log.Error("bulk research row failed", zap.Int("row", i+1), zap.Error(err))
			}
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d (%s): %v", i+1, strings.TrimSpace(row.PaperID), err))
			continue
		}
		res.Success++
		res.Papers = append(res.Papers, p)
	}
	h.Log.Info("bulk research import", zap.Int("success", res.Success), zap.Int("failed", res.Failed))
	jsonutil.Write(w, http.StatusOK, res)
}
