package requestflow

import (
	"context"
	"errors"

	professorstore "github.com/dalemusser/researchhub/internal/app/store/professors"
	studentstore "github.com/dalemusser/researchhub/internal/app/store/students"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StudentFor returns the caller's student profile.
func (s *Service) StudentFor(ctx context.Context, a Actor) (models.Student, error) {
	st, err := s.students.GetByUserID(ctx, a.UserID)
	if errors.Is(err, studentstore.ErrNotFound) {
		return models.Student{}, ErrStudentProfile
	}
	return st, err
}

// ProfessorFor returns the caller's professor profile.
func (s *Service) ProfessorFor(ctx context.Context, a Actor) (models.Professor, error) {
	p, err := s.professors.GetByUserID(ctx, a.UserID)
	if errors.Is(err, professorstore.ErrNotFound) {
		return models.Professor{}, ErrProfessorProfile
	}
	return p, err
}

// requireStudent fails with denied unless the caller's student profile is
// studentID.
func (s *Service) requireStudent(ctx context.Context, a Actor, studentID primitive.ObjectID, denied error) error {
	st, err := s.StudentFor(ctx, a)
	if errors.Is(err, ErrStudentProfile) {
		return denied
	}
	if err != nil {
		return err
	}
	if st.ID != studentID {
		return denied
	}
	return nil
}

func (s *Service) requireLeader(ctx context.Context, a Actor, g models.Group, denied error) error {
	return s.requireStudent(ctx, a, g.LeaderID, denied)
}

// notice loads one of the caller's notifications and checks its type.
func (s *Service) notice(ctx context.Context, a Actor, id primitive.ObjectID, typ string, wrong error) (models.Notification, error) {
	n, err := s.notifications.Get(ctx, a.UserID, id)
	if err != nil {
		return models.Notification{}, err
	}
	if n.Type != typ {
		return models.Notification{}, wrong
	}
	return n, nil
}

func (s *Service) notify(ctx context.Context, n models.Notification) error {
	_, err := s.notifications.Create(ctx, n)
	return err
}

// undo logs a failed compensating write. Inside a transaction the abort
// discards everything anyway; on standalone servers this is best effort.
func (s *Service) undo(step string, err error) {
	if err != nil && s.Log != nil {
		s.Log.Error("compensating write failed", zap.String("step", step), zap.Error(err))
	}
}

func ref(id primitive.ObjectID) *primitive.ObjectID { return &id }
