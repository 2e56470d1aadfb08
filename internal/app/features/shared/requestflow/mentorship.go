package requestflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	groupstore "github.com/dalemusser/researchhub/internal/app/store/groups"
	mentorshipstore "github.com/dalemusser/researchhub/internal/app/store/mentorship"
	professorstore "github.com/dalemusser/researchhub/internal/app/store/professors"
	"github.com/dalemusser/researchhub/internal/app/system/txn"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MentorshipInput is a new mentorship request as submitted by a leader.
type MentorshipInput struct {
	GroupID     primitive.ObjectID
	ProfessorID primitive.ObjectID
	RequestedBy primitive.ObjectID
	Message     string
}

// RequestMentorship creates a pending request from a group's leader to a
// professor and notifies the professor.
func (s *Service) RequestMentorship(ctx context.Context, a Actor, in MentorshipInput) (models.MentorshipRequest, error) {
	st, err := s.StudentFor(ctx, a)
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	if in.RequestedBy != st.ID {
		return models.MentorshipRequest{}, ErrSelfOnly
	}
	g, err := s.groups.GetByID(ctx, in.GroupID)
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	if g.LeaderID != st.ID {
		return models.MentorshipRequest{}, ErrMentorLeaderOnly
	}
	if g.MentorCount >= models.MaxMentorsPerGroup {
		return models.MentorshipRequest{}, groupstore.ErrMaxMentors
	}
	pending, err := s.mentorship.CountPendingForGroup(ctx, g.ID)
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	if pending >= mentorshipstore.MaxPendingPerGroup {
		return models.MentorshipRequest{}, ErrTooManyPending
	}
	dup, err := s.mentorship.HasPending(ctx, g.ID, in.ProfessorID)
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	if dup {
		return models.MentorshipRequest{}, mentorshipstore.ErrDuplicatePending
	}
	prof, err := s.professors.GetByID(ctx, in.ProfessorID)
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	if prof.AvailableSlots <= 0 {
		return models.MentorshipRequest{}, professorstore.ErrNoSlots
	}

	var req models.MentorshipRequest
	err = txn.Run(ctx, s.DB, s.Log, func(ctx context.Context) error {
		var err error
		req, err = s.mentorship.Create(ctx, models.MentorshipRequest{
			GroupID:     g.ID,
			ProfessorID: prof.ID,
			RequestedBy: st.ID,
			Message:     in.Message,
		})
		if err != nil {
			return err
		}
		return s.notify(ctx, models.Notification{
			UserID:           prof.UserID,
			Type:             models.NotifyMentorshipRequest,
			Title:            "New Mentorship Request",
			Message:          fmt.Sprintf("%s has requested you to mentor their group '%s'", a.Name, g.Name),
			Link:             "/professor/mentorship-requests",
			RelatedGroupID:   ref(g.ID),
			RelatedStudentID: ref(st.ID),
			RelatedRequestID: ref(req.ID),
		})
	})
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	return req, nil
}

// RespondMentorship accepts or rejects a request addressed to the caller.
//
// Accepting takes one of the professor's slots and adds them to the
// group's mentors. When that fills the group's last mentor seat, every
// other pending request for the group is rejected with
// mentorshipstore.AutoRejectReason and its requester is notified.
func (s *Service) RespondMentorship(ctx context.Context, a Actor, id primitive.ObjectID, status, reason string) (models.MentorshipRequest, error) {
	req, err := s.mentorship.GetByID(ctx, id)
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	prof, err := s.ProfessorFor(ctx, a)
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	if req.ProfessorID != prof.ID {
		return models.MentorshipRequest{}, ErrNotAddressed
	}
	if req.Status != models.StatusPending {
		return models.MentorshipRequest{}, alreadyResolved("request", req.Status)
	}
	if !ValidStatus(status) {
		return models.MentorshipRequest{}, ErrInvalidStatus
	}
	reason = strings.TrimSpace(reason)
	if status == models.StatusRejected && reason == "" {
		return models.MentorshipRequest{}, mentorshipstore.ErrReasonRequired
	}
	g, err := s.groups.GetByID(ctx, req.GroupID)
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	requester, err := s.students.GetByID(ctx, req.RequestedBy)
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	accepted := status == models.StatusAccepted
	if accepted {
		if prof.AvailableSlots <= 0 {
			return models.MentorshipRequest{}, ErrOwnNoSlots
		}
		if g.MentorCount >= models.MaxMentorsPerGroup {
			return models.MentorshipRequest{}, groupstore.ErrMaxMentors
		}
	}

	var out models.MentorshipRequest
	err = txn.Run(ctx, s.DB, s.Log, func(ctx context.Context) error {
		var closed []models.MentorshipRequest
		if accepted {
			res, rest, err := s.acceptMentorship(ctx, req, prof.ID)
			if err != nil {
				return err
			}
			out, closed = res, rest
		} else {
			res, err := s.mentorship.Reject(ctx, req.ID, reason)
			if errors.Is(err, mentorshipstore.ErrNotPending) {
				return alreadyResolved("request", res.Status)
			}
			if err != nil {
				return err
			}
			out = res
		}

		n := models.Notification{
			UserID:           requester.UserID,
			Type:             models.NotifyMentorshipRejected,
			Title:            "Mentorship Request Rejected",
			Message:          fmt.Sprintf("Professor %s has declined your mentorship request for '%s'", a.Name, g.Name),
			RelatedGroupID:   ref(g.ID),
			RelatedRequestID: ref(req.ID),
		}
		if accepted {
			n.Type = models.NotifyMentorshipAccepted
			n.Title = "Mentorship Request Accepted"
			n.Message = fmt.Sprintf("Professor %s has accepted your mentorship request for '%s'", a.Name, g.Name)
			n.Link = "/student/groups/" + g.ID.Hex()
		}
		if err := s.notify(ctx, n); err != nil {
			return err
		}

		for _, c := range closed {
			other, err := s.students.GetByID(ctx, c.RequestedBy)
			if err != nil {
				return err
			}
			if err := s.notify(ctx, models.Notification{
				UserID:           other.UserID,
				Type:             models.NotifyMentorshipRejected,
				Title:            "Mentorship Request Rejected",
				Message:          fmt.Sprintf("Your mentorship request for '%s' was closed: %s", g.Name, c.RejectionReason),
				RelatedGroupID:   ref(g.ID),
				RelatedRequestID: ref(c.ID),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	return out, nil
}

// acceptMentorship claims a slot, adds the mentor, then flips the request.
// Each step is conditional; earlier steps are undone when a later one loses.
func (s *Service) acceptMentorship(ctx context.Context, req models.MentorshipRequest, profID primitive.ObjectID) (models.MentorshipRequest, []models.MentorshipRequest, error) {
	if err := s.professors.TakeSlot(ctx, profID); err != nil {
		if errors.Is(err, professorstore.ErrNoSlots) {
			return models.MentorshipRequest{}, nil, ErrOwnNoSlots
		}
		return models.MentorshipRequest{}, nil, err
	}
	g, err := s.groups.AddMentor(ctx, req.GroupID, profID)
	if err != nil {
		s.undo("release slot", s.professors.ReleaseSlot(ctx, profID))
		return models.MentorshipRequest{}, nil, err
	}
	res, err := s.mentorship.Accept(ctx, req.ID)
	if err != nil {
		s.undo("remove mentor", s.groups.RemoveMentor(ctx, req.GroupID, profID))
		s.undo("release slot", s.professors.ReleaseSlot(ctx, profID))
		if errors.Is(err, mentorshipstore.ErrNotPending) {
			return models.MentorshipRequest{}, nil, alreadyResolved("request", res.Status)
		}
		return models.MentorshipRequest{}, nil, err
	}

	var closed []models.MentorshipRequest
	if g.MentorCount >= models.MaxMentorsPerGroup {
		closed, err = s.mentorship.RejectOtherPending(ctx, req.GroupID, req.ID)
		if err != nil {
			return models.MentorshipRequest{}, nil, err
		}
	}
	return res, closed, nil
}

// WithdrawMentorship deletes a pending request on behalf of its requester.
func (s *Service) WithdrawMentorship(ctx context.Context, a Actor, id primitive.ObjectID) error {
	req, err := s.mentorship.GetByID(ctx, id)
	if err != nil {
		return err
	}
	st, err := s.StudentFor(ctx, a)
	if err != nil {
		return err
	}
	if req.RequestedBy != st.ID {
		return ErrWithdrawOwn
	}
	if req.Status != models.StatusPending {
		return cannotWithdraw(req.Status)
	}
	err = s.mentorship.DeletePending(ctx, id)
	if errors.Is(err, mentorshipstore.ErrNotPending) {
		cur, gerr := s.mentorship.GetByID(ctx, id)
		if gerr != nil {
			return gerr
		}
		return cannotWithdraw(cur.Status)
	}
	return err
}
