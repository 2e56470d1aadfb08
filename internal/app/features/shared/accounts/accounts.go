// internal/app/features/shared/accounts/accounts.go
//
// Package accounts creates a login together with its student or professor
// profile. Bulk imports, registration seeding, and the startup seed file
// all go through here.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	professorstore "github.com/dalemusser/researchhub/internal/app/store/professors"
	studentstore "github.com/dalemusser/researchhub/internal/app/store/students"
	userstore "github.com/dalemusser/researchhub/internal/app/store/users"
	"github.com/dalemusser/researchhub/internal/app/system/authutil"
	"github.com/dalemusser/researchhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/researchhub/internal/app/system/normalize"
	"github.com/dalemusser/researchhub/internal/app/system/txn"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrNameRequired = errors.New("Name is required")
	ErrIDRequired   = errors.New("ID is required")
)

// Provisioner creates accounts.
type Provisioner struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{DB: db, Log: logger}
}

// Username is the institutional login derived from a profile id.
func Username(id string) string {
	return strings.ToLower(strings.TrimSpace(id)) + "@" + models.InstitutionDomain
}

// CreateStudent creates the user and student profile in one transaction.
// Empty Email and Password are generated.
func (p *Provisioner) CreateStudent(ctx context.Context, in models.StudentAccount) (models.Credential, error) {
	in.Name = htmlsanitize.Text(in.Name)
	in.StudentID = strings.TrimSpace(in.StudentID)
	if in.Name == "" {
		return models.Credential{}, ErrNameRequired
	}
	if in.StudentID == "" {
		return models.Credential{}, ErrIDRequired
	}
	if !studentstore.ValidGPA(in.GPA) {
		return models.Credential{}, studentstore.ErrInvalidGPA
	}
	cred := p.credential(in.Name, in.Faculty, in.StudentID, in.Email, in.Password)
	cred.StudentID = in.StudentID

	looking := true
	if in.LookingForGroup != nil {
		looking = *in.LookingForGroup
	}

	err := p.withUser(ctx, cred, models.RoleStudent, func(ctx context.Context, u models.User) error {
		_, err := studentstore.New(p.DB).Create(ctx, models.Student{
			UserID:          u.ID,
			StudentID:       in.StudentID,
			GPA:             in.GPA,
			Major:           htmlsanitize.Text(in.Major),
			Faculty:         htmlsanitize.Text(in.Faculty),
			Year:            htmlsanitize.Text(in.Year),
			Skills:          normalize.List(htmlsanitize.TextSlice(in.Skills)),
			Bio:             htmlsanitize.Text(in.Bio),
			LookingForGroup: looking,
		})
		return err
	})
	if err != nil {
		return models.Credential{}, err
	}
	return cred, nil
}

// CreateProfessor creates the user and professor profile in one transaction.
func (p *Provisioner) CreateProfessor(ctx context.Context, in models.ProfessorAccount) (models.Credential, error) {
	in.Name = htmlsanitize.Text(in.Name)
	in.ProfessorID = strings.TrimSpace(in.ProfessorID)
	if in.Name == "" {
		return models.Credential{}, ErrNameRequired
	}
	if in.ProfessorID == "" {
		return models.Credential{}, ErrIDRequired
	}
	if in.TotalSlots < 0 {
		return models.Credential{}, professorstore.ErrInvalidSlots
	}
	cred := p.credential(in.Name, in.Faculty, in.ProfessorID, in.Email, in.Password)
	cred.ProfessorID = in.ProfessorID

	err := p.withUser(ctx, cred, models.RoleProfessor, func(ctx context.Context, u models.User) error {
		_, err := professorstore.New(p.DB).Create(ctx, models.Professor{
			UserID:            u.ID,
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
		return err
	})
	if err != nil {
		return models.Credential{}, err
	}
	return cred, nil
}

// Students imports a batch. Each row succeeds or fails on its own.
func (p *Provisioner) Students(ctx context.Context, rows []models.StudentAccount) models.BulkResult {
	res := newResult()
	for _, row := range rows {
		cred, err := p.CreateStudent(ctx, row)
		res.add(row.StudentID, cred, err)
		if err != nil {
			p.Log.Info("bulk student row failed", zap.String("student_id", row.StudentID), zap.Error(err))
		}
	}
	return res.BulkResult
}

// Professors imports a batch. Each row succeeds or fails on its own.
func (p *Provisioner) Professors(ctx context.Context, rows []models.ProfessorAccount) models.BulkResult {
	res := newResult()
	for _, row := range rows {
		cred, err := p.CreateProfessor(ctx, row)
		res.add(row.ProfessorID, cred, err)
		if err != nil {
			p.Log.Info("bulk professor row failed", zap.String("professor_id", row.ProfessorID), zap.Error(err))
		}
	}
	return res.BulkResult
}

func (p *Provisioner) credential(name, faculty, id, email, password string) models.Credential {
	if email = normalize.Email(email); email == "" {
		email = Username(id)
	}
	if password == "" {
		password = authutil.TempPassword()
	}
	return models.Credential{Name: name, Faculty: faculty, Username: email, Password: password}
}

func (p *Provisioner) withUser(ctx context.Context, cred models.Credential, role string, profile func(context.Context, models.User) error) error {
	hash, err := authutil.HashPassword(cred.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	users := userstore.New(p.DB)
	return txn.Run(ctx, p.DB, p.Log, func(ctx context.Context) error {
		u, err := users.Create(ctx, models.User{
			Email:          cred.Username,
			Name:           cred.Name,
			Role:           role,
			HashedPassword: hash,
		})
		if err != nil {
			return err
		}
		if err := profile(ctx, u); err != nil {
			// Without a transaction the user row would be left behind.
			if _, derr := users.Delete(ctx, u.ID); derr != nil {
				p.Log.Debug("remove user after profile failure", zap.String("user_id", u.ID.Hex()), zap.Error(derr))
			}
			return err
		}
		return nil
	})
}

type result struct{ models.BulkResult }

func newResult() *result {
	return &result{models.BulkResult{Accounts: []models.Credential{}, Errors: []string{}}}
}

func (r *result) add(id string, cred models.Credential, err error) {
	if err != nil {
		r.Failed++
		label := strings.TrimSpace(id)
		if label == "" {
			label = "(missing id)"
		}
		r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", label, err))
		return
	}
	r.Success++
	r.Accounts = append(r.Accounts, cred)
}
