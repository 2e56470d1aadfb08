// internal/app/features/students/list.go
package students

import (
	"net/http"

	studentstore "github.com/dalemusser/researchhub/internal/app/store/students"
	"github.com/dalemusser/researchhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/normalize"
	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /students with faculty, year, skill, and
// looking_for_group filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := studentstore.Filter{
		Faculty: normalize.QueryParam(q.Get("faculty")),
		Year:    normalize.QueryParam(q.Get("year")),
		Skill:   htmlsanitize.Text(q.Get("skill")),
	}
	if v, ok := jsonutil.QueryBool(r, "looking_for_group"); ok {
		f.LookingForGroup = &v
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list students")
	defer cancel()

	out, err := studentstore.New(h.DB).List(ctx, f, paging.Parse(r, paging.DefaultLimit))
	if err != nil {
		h.ErrLog.Fail(w, r, "list students", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}

// ServeStudent handles GET /students/{id}.
func (h *Handler) ServeStudent(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "get student", studentstore.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get student")
	defer cancel()

	out, err := studentstore.New(h.DB).GetWithUser(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "get student", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}
