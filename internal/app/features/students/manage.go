// internal/app/features/students/manage.go
package students

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	groupstore "github.com/dalemusser/researchhub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/researchhub/internal/app/store/memberships"
	studentstore "github.com/dalemusser/researchhub/internal/app/store/students"
	userstore "github.com/dalemusser/researchhub/internal/app/store/users"
	"github.com/dalemusser/researchhub/internal/app/system/authz"
	"github.com/dalemusser/researchhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/normalize"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/dalemusser/researchhub/internal/app/system/txn"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createRequest struct {
	UserID          primitive.ObjectID `json:"user_id"`
	StudentID       string             `json:"student_id"`
	GPA             float64            `json:"gpa"`
	Major           string             `json:"major"`
	Faculty         string             `json:"faculty"`
	Year            string             `json:"year"`
	Skills          []string           `json:"skills"`
	Bio             string             `json:"bio"`
	LookingForGroup *bool              `json:"looking_for_group"`
}

// HandleCreate attaches a student profile to an existing user (admin).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode student", err, "Invalid JSON body")
		return
	}
	in.StudentID = strings.TrimSpace(in.StudentID)
	if in.StudentID == "" || in.UserID.IsZero() {
		h.ErrLog.LogBadRequest(w, r, "create student", nil, "user_id and student_id are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create student")
	defer cancel()

	if _, err := userstore.New(h.DB).GetByID(ctx, in.UserID); err != nil {
		h.ErrLog.Fail(w, r, "create student", err)
		return
	}

	looking := true
	if in.LookingForGroup != nil {
		looking = *in.LookingForGroup
	}
	st, err := studentstore.New(h.DB).Create(ctx, models.Student{
		UserID:          in.UserID,
		StudentID:       in.StudentID,
		GPA:             in.GPA,
		Major:           htmlsanitize.Text(in.Major),
		Faculty:         htmlsanitize.Text(in.Faculty),
		Year:            htmlsanitize.Text(in.Year),
		Skills:          normalize.List(htmlsanitize.TextSlice(in.Skills)),
		Bio:             htmlsanitize.Text(in.Bio),
		LookingForGroup: looking,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "create student", err)
		return
	}
	jsonutil.Write(w, http.StatusCreated, st)
}

type updateRequest struct {
	GPA             *float64 `json:"gpa"`
	Major           *string  `json:"major"`
	Faculty         *string  `json:"faculty"`
	Year            *string  `json:"year"`
	Skills          []string `json:"skills"`
	Bio             *string  `json:"bio"`
	LookingForGroup *bool    `json:"looking_for_group"`
}

func (u updateRequest) toStore() studentstore.Update {
	out := studentstore.Update{
		GPA:             u.GPA,
		Major:           text(u.Major),
		Faculty:         text(u.Faculty),
		Year:            text(u.Year),
		Bio:             text(u.Bio),
		LookingForGroup: u.LookingForGroup,
	}
	if u.Skills != nil {
		out.Skills = normalize.List(htmlsanitize.TextSlice(u.Skills))
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

// HandleUpdate edits a student profile. The student themself or an admin.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "update student", studentstore.ErrNotFound)
		return
	}
	var in updateRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode student update", err, "Invalid JSON body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update student")
	defer cancel()

	store := studentstore.New(h.DB)
	st, err := store.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "update student", err)
		return
	}
	if !authz.IsSelfOrAdmin(r, st.UserID) {
		h.ErrLog.Fail(w, r, "update student", requestflow.ErrNotAuthorized)
		return
	}

	out, err := store.Update(ctx, id, in.toStore())
	if err != nil {
		h.ErrLog.Fail(w, r, "update student", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, out)
}

// HandleDelete removes a student profile and its memberships (admin).
// A student who leads a group cannot be removed until the group is.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "delete student", studentstore.ErrNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete student")
	defer cancel()

	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		return h.deleteStudent(ctx, id)
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "delete student", err)
		return
	}
	h.Log.Info("student deleted", zap.String("student_id", id.Hex()))
	jsonutil.NoContent(w)
}

func (h *Handler) deleteStudent(ctx context.Context, id primitive.ObjectID) error {
	students := studentstore.New(h.DB)
	groups := groupstore.New(h.DB)
	members := membershipstore.New(h.DB)

	if _, err := students.GetByID(ctx, id); err != nil {
		return err
	}
	if _, err := groups.GetByLeader(ctx, id); err == nil {
		return errLeadsGroup
	} else if !errors.Is(err, groupstore.ErrNotFound) {
		return err
	}

	groupIDs, err := members.GroupIDsForStudent(ctx, id)
	if err != nil {
		return err
	}
	for _, gid := range groupIDs {
		if err := groups.DecMembers(ctx, gid); err != nil {
			return err
		}
	}
	if _, err := members.DeleteByStudent(ctx, id); err != nil {
		return err
	}
	n, err := students.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return studentstore.ErrNotFound
	}
	return nil
}

type bulkRequest struct {
	Accounts []models.StudentAccount `json:"accounts"`
}

// HandleBulk creates a login and profile per row (admin). Rows fail
// independently; the response lists generated credentials and errors.
func (h *Handler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	var in bulkRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode bulk students", err, "Invalid JSON body")
		return
	}
	if len(in.Accounts) == 0 {
		h.ErrLog.LogBadRequest(w, r, "bulk students", nil, "No accounts to create")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "bulk students")
	defer cancel()

	res := h.Accounts.Students(ctx, in.Accounts)
	h.Log.Info("bulk student import", zap.Int("success", res.Success), zap.Int("failed", res.Failed))
	jsonutil.Write(w, http.StatusOK, res)
}
