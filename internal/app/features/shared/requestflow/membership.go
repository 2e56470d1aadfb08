package requestflow

import (
	"context"
	"errors"

	groupstore "github.com/dalemusser/researchhub/internal/app/store/groups"
	"github.com/dalemusser/researchhub/internal/app/system/txn"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Group lifecycle                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// GroupInput is a new group as submitted by its leader. LeaderID may be
// zero, in which case the caller's profile is used.
type GroupInput struct {
	Name         string
	Description  string
	NeededSkills []string
	MaxMembers   int
	LeaderID     primitive.ObjectID
}

// CreateGroup creates a group led by the caller and seats the caller as its
// first member.
func (s *Service) CreateGroup(ctx context.Context, a Actor, in GroupInput) (models.Group, error) {
	st, err := s.StudentFor(ctx, a)
	if errors.Is(err, ErrStudentProfile) {
		return models.Group{}, ErrStudentsOnlyCreate
	}
	if err != nil {
		return models.Group{}, err
	}
	if !in.LeaderID.IsZero() && in.LeaderID != st.ID {
		return models.Group{}, ErrLeaderMismatch
	}
	if _, err := s.groups.GetByLeader(ctx, st.ID); err == nil {
		return models.Group{}, groupstore.ErrAlreadyLeads
	} else if !errors.Is(err, groupstore.ErrNotFound) {
		return models.Group{}, err
	}

	var g models.Group
	err = txn.Run(ctx, s.DB, s.Log, func(ctx context.Context) error {
		var err error
		g, err = s.groups.Create(ctx, models.Group{
			Name:         in.Name,
			LeaderID:     st.ID,
			Description:  in.Description,
			NeededSkills: in.NeededSkills,
			MaxMembers:   in.MaxMembers,
		})
		if err != nil {
			return err
		}
		if _, err := s.members.Add(ctx, g.ID, st.ID, models.MemberRoleLeader); err != nil {
			_, derr := s.groups.Delete(ctx, g.ID)
			s.undo("delete group", derr)
			return err
		}
		return nil
	})
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// CanManage reports whether the caller leads g or is an admin.
func (s *Service) CanManage(ctx context.Context, a Actor, g models.Group, denied error) error {
	if a.IsAdmin() {
		return nil
	}
	return s.requireLeader(ctx, a, g, denied)
}

// DeleteGroup removes a group with its memberships, requests, and chat
// history. Mentors get their slots back.
func (s *Service) DeleteGroup(ctx context.Context, a Actor, groupID primitive.ObjectID) error {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.CanManage(ctx, a, g, ErrDeleteLeaderOnly); err != nil {
		return err
	}
	return txn.Run(ctx, s.DB, s.Log, func(ctx context.Context) error {
		return s.dissolve(ctx, g)
	})
}

func (s *Service) dissolve(ctx context.Context, g models.Group) error {
	for _, pid := range g.MentorIDs {
		if err := s.professors.ReleaseSlot(ctx, pid); err != nil {
			return err
		}
	}
	steps := []func(context.Context, primitive.ObjectID) (int64, error){
		s.members.DeleteByGroup,
		s.invitations.DeleteByGroup,
		s.joinRequests.DeleteByGroup,
		s.mentorship.DeleteByGroup,
		s.chat.DeleteByGroup,
	}
	for _, del := range steps {
		if _, err := del(ctx, g.ID); err != nil {
			return err
		}
	}
	n, err := s.groups.Delete(ctx, g.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return groupstore.ErrNotFound
	}
	return nil
}

// AddMember seats studentID directly. Leader or admin only.
func (s *Service) AddMember(ctx context.Context, a Actor, groupID, studentID primitive.ObjectID) error {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.CanManage(ctx, a, g, ErrAddLeaderOnly); err != nil {
		return err
	}
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		return err
	}
	return txn.Run(ctx, s.DB, s.Log, func(ctx context.Context) error {
		return s.join(ctx, g.ID, studentID)
	})
}

// RemoveMember takes studentID out of the group. Students may remove
// themselves; the leader may remove anyone else. A leader leaving a group
// they are alone in dissolves it.
func (s *Service) RemoveMember(ctx context.Context, a Actor, groupID, studentID primitive.ObjectID) error {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if !a.IsAdmin() {
		st, err := s.StudentFor(ctx, a)
		if errors.Is(err, ErrStudentProfile) {
			return ErrNotAuthorized
		}
		if err != nil {
			return err
		}
		if st.ID != studentID && st.ID != g.LeaderID {
			return ErrRemoveNotAllowed
		}
	}

	if studentID == g.LeaderID {
		if g.CurrentMembers > 1 {
			return ErrLeaderLeave
		}
		return txn.Run(ctx, s.DB, s.Log, func(ctx context.Context) error {
			return s.dissolve(ctx, g)
		})
	}

	return txn.Run(ctx, s.DB, s.Log, func(ctx context.Context) error {
		if err := s.members.Remove(ctx, g.ID, studentID); err != nil {
			return err
		}
		return s.groups.DecMembers(ctx, g.ID)
	})
}

// JoinRequestsFor lists the pending join requests of a group for its leader.
func (s *Service) JoinRequestsFor(ctx context.Context, a Actor, groupID primitive.ObjectID) ([]models.GroupJoinRequest, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.CanManage(ctx, a, g, ErrViewJoinLeaderOnly); err != nil {
		return nil, err
	}
	return s.joinRequests.ListForGroup(ctx, g.ID, models.StatusPending)
}
