package requestflow

import (
	"context"
	"errors"
	"fmt"

	invitationstore "github.com/dalemusser/researchhub/internal/app/store/invitations"
	joinrequeststore "github.com/dalemusser/researchhub/internal/app/store/joinrequests"
	membershipstore "github.com/dalemusser/researchhub/internal/app/store/memberships"
	"github.com/dalemusser/researchhub/internal/app/system/txn"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Invitations                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// Invite creates a pending invitation from the group's leader to studentID
// and notifies the invited student.
func (s *Service) Invite(ctx context.Context, a Actor, groupID, studentID primitive.ObjectID, message string) (models.GroupInvitation, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return models.GroupInvitation{}, err
	}
	if !a.IsAdmin() {
		if err := s.requireLeader(ctx, a, g, ErrInviteLeaderOnly); err != nil {
			return models.GroupInvitation{}, err
		}
	}
	invitee, err := s.students.GetWithUser(ctx, studentID)
	if err != nil {
		return models.GroupInvitation{}, err
	}
	member, err := s.members.Exists(ctx, groupID, studentID)
	if err != nil {
		return models.GroupInvitation{}, err
	}
	if member {
		return models.GroupInvitation{}, membershipstore.ErrDuplicateMembership
	}

	var inv models.GroupInvitation
	err = txn.Run(ctx, s.DB, s.Log, func(ctx context.Context) error {
		var err error
		inv, err = s.invitations.Create(ctx, groupID, studentID, message)
		if err != nil {
			return err
		}
		return s.notify(ctx, models.Notification{
			UserID:           invitee.UserID,
			Type:             models.NotifyGroupInvitation,
			Title:            "Group Invitation",
			Message:          fmt.Sprintf("You've been invited to join %s", g.Name),
			Link:             "/student/groups/" + g.ID.Hex(),
			RelatedGroupID:   ref(g.ID),
			RelatedStudentID: ref(studentID),
			RelatedRequestID: ref(inv.ID),
		})
	})
	if err != nil {
		return models.GroupInvitation{}, err
	}
	return inv, nil
}

// RespondInvitation accepts or rejects an invitation on behalf of the
// invited student (or an admin).
func (s *Service) RespondInvitation(ctx context.Context, a Actor, id primitive.ObjectID, status string) (models.GroupInvitation, error) {
	if !ValidStatus(status) {
		return models.GroupInvitation{}, ErrInvalidStatus
	}
	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		return models.GroupInvitation{}, err
	}
	if !a.IsAdmin() {
		if err := s.requireStudent(ctx, a, inv.StudentID, ErrNotInvitee); err != nil {
			return models.GroupInvitation{}, err
		}
	}
	return s.resolveInvitation(ctx, a, inv, status, nil)
}

// ActOnInvitationNotice resolves the invitation referenced by one of the
// caller's group_invitation notifications and marks that notification read.
func (s *Service) ActOnInvitationNotice(ctx context.Context, a Actor, notificationID primitive.ObjectID, action string) (string, error) {
	n, err := s.notice(ctx, a, notificationID, models.NotifyGroupInvitation, ErrNotInvitationNotice)
	if err != nil {
		return "", err
	}
	if n.RelatedRequestID == nil {
		return "", invitationstore.ErrNotFound
	}
	inv, err := s.invitations.GetByID(ctx, *n.RelatedRequestID)
	if err != nil {
		return "", err
	}
	if err := s.requireStudent(ctx, a, inv.StudentID, ErrNotInvitee); err != nil {
		return "", err
	}
	status, err := ParseAction(action)
	if err != nil {
		return "", err
	}
	if _, err := s.resolveInvitation(ctx, a, inv, status, &n.ID); err != nil {
		return "", err
	}
	return status, nil
}

func (s *Service) resolveInvitation(ctx context.Context, a Actor, inv models.GroupInvitation, status string, noticeID *primitive.ObjectID) (models.GroupInvitation, error) {
	if inv.Status != models.StatusPending {
		return models.GroupInvitation{}, alreadyResolved("invitation", inv.Status)
	}
	g, err := s.groups.GetByID(ctx, inv.GroupID)
	if err != nil {
		return models.GroupInvitation{}, err
	}
	invitee, err := s.students.GetWithUser(ctx, inv.StudentID)
	if err != nil {
		return models.GroupInvitation{}, err
	}
	leader, err := s.students.GetByID(ctx, g.LeaderID)
	if err != nil {
		return models.GroupInvitation{}, err
	}

	var out models.GroupInvitation
	err = txn.Run(ctx, s.DB, s.Log, func(ctx context.Context) error {
		accepted := status == models.StatusAccepted
		if accepted {
			if err := s.join(ctx, g.ID, inv.StudentID); err != nil {
				return err
			}
		}
		res, err := s.invitations.Resolve(ctx, inv.ID, status)
		if err != nil {
			if accepted {
				s.leave(ctx, g.ID, inv.StudentID)
			}
			if errors.Is(err, invitationstore.ErrNotPending) {
				return alreadyResolved("invitation", res.Status)
			}
			return err
		}
		out = res

		if noticeID != nil {
			if err := s.notifications.MarkOneRead(ctx, a.UserID, *noticeID); err != nil {
				return err
			}
		}
		typ, title := models.NotifyInvitationRejected, "Invitation Rejected"
		if accepted {
			typ, title = models.NotifyInvitationAccepted, "Invitation Accepted"
		}
		return s.notify(ctx, models.Notification{
			UserID:           leader.UserID,
			Type:             typ,
			Title:            title,
			Message:          fmt.Sprintf("%s has %s your invitation to join %s", invitee.Name, status, g.Name),
			Link:             "/student/mygroups",
			RelatedGroupID:   ref(g.ID),
			RelatedStudentID: ref(inv.StudentID),
			RelatedRequestID: ref(inv.ID),
		})
	})
	if err != nil {
		return models.GroupInvitation{}, err
	}
	return out, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Join requests                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// RequestJoin creates a pending join request for studentID and notifies
// the group's leader.
func (s *Service) RequestJoin(ctx context.Context, a Actor, groupID, studentID primitive.ObjectID, message string) (models.GroupJoinRequest, error) {
	if !a.IsAdmin() {
		if err := s.requireStudent(ctx, a, studentID, ErrSelfOnly); err != nil {
			return models.GroupJoinRequest{}, err
		}
	}
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return models.GroupJoinRequest{}, err
	}
	if g.LeaderID == studentID {
		return models.GroupJoinRequest{}, ErrAlreadyLeader
	}
	member, err := s.members.Exists(ctx, groupID, studentID)
	if err != nil {
		return models.GroupJoinRequest{}, err
	}
	if member {
		return models.GroupJoinRequest{}, ErrAlreadyMember
	}
	requester, err := s.students.GetWithUser(ctx, studentID)
	if err != nil {
		return models.GroupJoinRequest{}, err
	}
	leader, err := s.students.GetByID(ctx, g.LeaderID)
	if err != nil {
		return models.GroupJoinRequest{}, err
	}

	var jr models.GroupJoinRequest
	err = txn.Run(ctx, s.DB, s.Log, func(ctx context.Context) error {
		var err error
		jr, err = s.joinRequests.Create(ctx, groupID, studentID, message)
		if err != nil {
			return err
		}
		return s.notify(ctx, models.Notification{
			UserID:           leader.UserID,
			Type:             models.NotifyJoinRequest,
			Title:            "New Join Request",
			Message:          fmt.Sprintf("%s wants to join %s", requester.Name, g.Name),
			Link:             "/student/mygroups",
			RelatedGroupID:   ref(g.ID),
			RelatedStudentID: ref(studentID),
			RelatedRequestID: ref(jr.ID),
		})
	})
	if err != nil {
		return models.GroupJoinRequest{}, err
	}
	return jr, nil
}

// RespondJoinRequest accepts or rejects a join request on behalf of the
// group's leader (or an admin).
func (s *Service) RespondJoinRequest(ctx context.Context, a Actor, id primitive.ObjectID, status string) (models.GroupJoinRequest, error) {
	if !ValidStatus(status) {
		return models.GroupJoinRequest{}, ErrInvalidStatus
	}
	jr, err := s.joinRequests.GetByID(ctx, id)
	if err != nil {
		return models.GroupJoinRequest{}, err
	}
	g, err := s.groups.GetByID(ctx, jr.GroupID)
	if err != nil {
		return models.GroupJoinRequest{}, err
	}
	if !a.IsAdmin() {
		if err := s.requireLeader(ctx, a, g, ErrJoinLeaderOnly); err != nil {
			return models.GroupJoinRequest{}, err
		}
	}
	return s.resolveJoinRequest(ctx, a, jr, g, status, nil)
}

// ActOnJoinNotice resolves the join request referenced by one of the
// caller's join_request notifications and marks that notification read.
func (s *Service) ActOnJoinNotice(ctx context.Context, a Actor, notificationID primitive.ObjectID, action string) (string, error) {
	n, err := s.notice(ctx, a, notificationID, models.NotifyJoinRequest, ErrNotJoinNotice)
	if err != nil {
		return "", err
	}
	if n.RelatedRequestID == nil {
		return "", joinrequeststore.ErrNotFound
	}
	jr, err := s.joinRequests.GetByID(ctx, *n.RelatedRequestID)
	if err != nil {
		return "", err
	}
	g, err := s.groups.GetByID(ctx, jr.GroupID)
	if err != nil {
		return "", err
	}
	if !a.IsAdmin() {
		if err := s.requireLeader(ctx, a, g, ErrJoinLeaderOnly); err != nil {
			return "", err
		}
	}
	status, err := ParseAction(action)
	if err != nil {
		return "", err
	}
	if _, err := s.resolveJoinRequest(ctx, a, jr, g, status, &n.ID); err != nil {
		return "", err
	}
	return status, nil
}

func (s *Service) resolveJoinRequest(ctx context.Context, a Actor, jr models.GroupJoinRequest, g models.Group, status string, noticeID *primitive.ObjectID) (models.GroupJoinRequest, error) {
	if jr.Status != models.StatusPending {
		return models.GroupJoinRequest{}, alreadyResolved("join request", jr.Status)
	}
	requester, err := s.students.GetByID(ctx, jr.StudentID)
	if err != nil {
		return models.GroupJoinRequest{}, err
	}

	var out models.GroupJoinRequest
	err = txn.Run(ctx, s.DB, s.Log, func(ctx context.Context) error {
		accepted := status == models.StatusAccepted
		if accepted {
			if err := s.join(ctx, g.ID, jr.StudentID); err != nil {
				return err
			}
		}
		res, err := s.joinRequests.Resolve(ctx, jr.ID, status)
		if err != nil {
			if accepted {
				s.leave(ctx, g.ID, jr.StudentID)
			}
			if errors.Is(err, joinrequeststore.ErrNotPending) {
				return alreadyResolved("join request", res.Status)
			}
			return err
		}
		out = res

		if noticeID != nil {
			if err := s.notifications.MarkOneRead(ctx, a.UserID, *noticeID); err != nil {
				return err
			}
		}
		n := models.Notification{
			UserID:           requester.UserID,
			Type:             models.NotifyJoinRequestRejected,
			Title:            "Join Request Rejected",
			Message:          fmt.Sprintf("Your request to join %s has been %s", g.Name, status),
			RelatedGroupID:   ref(g.ID),
			RelatedRequestID: ref(jr.ID),
		}
		if accepted {
			n.Type = models.NotifyJoinRequestAccepted
			n.Title = "Join Request Accepted"
			n.Link = "/student/groups/" + g.ID.Hex()
		}
		return s.notify(ctx, n)
	})
	if err != nil {
		return models.GroupJoinRequest{}, err
	}
	return out, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Membership writes                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// join claims a seat and then records the membership row. The seat is
// given back when the row cannot be written.
func (s *Service) join(ctx context.Context, groupID, studentID primitive.ObjectID) error {
	if err := s.groups.IncMembers(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.members.Add(ctx, groupID, studentID, models.MemberRoleMember); err != nil {
		s.undo("release seat", s.groups.DecMembers(ctx, groupID))
		return err
	}
	return nil
}

func (s *Service) leave(ctx context.Context, groupID, studentID primitive.ObjectID) {
	s.undo("remove membership", s.members.Remove(ctx, groupID, studentID))
	s.undo("release seat", s.groups.DecMembers(ctx, groupID))
}
