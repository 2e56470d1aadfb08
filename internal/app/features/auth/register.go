// internal/app/features/auth/register.go
package auth

import (
	"context"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/researchhub/internal/app/features/errors"
	professorstore "github.com/dalemusser/researchhub/internal/app/store/professors"
	studentstore "github.com/dalemusser/researchhub/internal/app/store/students"
	userstore "github.com/dalemusser/researchhub/internal/app/store/users"
	"github.com/dalemusser/researchhub/internal/app/system/authutil"
	"github.com/dalemusser/researchhub/internal/app/system/authz"
	"github.com/dalemusser/researchhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/normalize"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/dalemusser/researchhub/internal/app/system/txn"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.uber.org/zap"
)

// registerRequest is the self-registration body. The optional profile
// block creates the matching student or professor record in the same
// transaction.
type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`

	StudentID   string   `json:"student_id,omitempty"`
	GPA         *float64 `json:"gpa,omitempty"`
	Major       string   `json:"major,omitempty"`
	Year        string   `json:"year,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	ProfessorID string   `json:"professor_id,omitempty"`
	Field       string   `json:"field,omitempty"`
	Department  string   `json:"department,omitempty"`
	Faculty     string   `json:"faculty,omitempty"`
}

// HandleRegister creates an account. Only an admin may create another admin.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode register body", err, "Invalid JSON body")
		return
	}

	in.Email = normalize.Email(in.Email)
	in.Name = htmlsanitize.Text(in.Name)
	in.Role = normalize.Role(in.Role)
	if in.Role == "" {
		in.Role = models.RoleStudent
	}

	switch {
	case authutil.ValidateEmail(in.Email) != nil:
		errorsfeature.BadRequest(w, "A valid email is required")
		return
	case in.Name == "":
		errorsfeature.BadRequest(w, "Name is required")
		return
	case authutil.ValidatePassword(in.Password) != nil:
		errorsfeature.BadRequest(w, authutil.PasswordRules())
		return
	}
	switch in.Role {
	case models.RoleStudent, models.RoleProfessor:
	case models.RoleAdmin:
		if !authz.IsAdmin(r) {
			errorsfeature.Forbidden(w, "Only an admin can create admin accounts")
			return
		}
	default:
		errorsfeature.BadRequest(w, "Role must be student, professor, or admin")
		return
	}
	if in.GPA != nil && !studentstore.ValidGPA(*in.GPA) {
		errorsfeature.BadRequest(w, studentstore.ErrInvalidGPA.Error())
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register")
	defer cancel()

	var created models.User
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		u, err := userstore.New(h.DB).Create(ctx, models.User{
			Email:          in.Email,
			Name:           in.Name,
			Role:           in.Role,
			HashedPassword: hash,
		})
		if err != nil {
			return err
		}
		created = u
		return h.createProfile(ctx, u, in)
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "register", err)
		return
	}

	h.Log.Info("user registered", zap.String("user_id", created.ID.Hex()), zap.String("role", created.Role))
	jsonutil.Write(w, http.StatusOK, created)
}

func (h *Handler) createProfile(ctx context.Context, u models.User, in registerRequest) error {
	switch {
	case u.Role == models.RoleStudent && strings.TrimSpace(in.StudentID) != "":
		st := models.Student{
			UserID:          u.ID,
			StudentID:       strings.TrimSpace(in.StudentID),
			Major:           htmlsanitize.Text(in.Major),
			Faculty:         htmlsanitize.Text(in.Faculty),
			Year:            htmlsanitize.Text(in.Year),
			Skills:          normalize.List(htmlsanitize.TextSlice(in.Skills)),
			LookingForGroup: true,
		}
		if in.GPA != nil {
			st.GPA = *in.GPA
		}
		_, err := studentstore.New(h.DB).Create(ctx, st)
		return err

	case u.Role == models.RoleProfessor && strings.TrimSpace(in.ProfessorID) != "":
		_, err := professorstore.New(h.DB).Create(ctx, models.Professor{
			UserID:      u.ID,
			ProfessorID: strings.TrimSpace(in.ProfessorID),
			Faculty:     htmlsanitize.Text(in.Faculty),
			Field:       htmlsanitize.Text(in.Field),
			Department:  htmlsanitize.Text(in.Department),
		})
		return err
	}
	return nil
}
