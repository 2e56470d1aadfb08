// internal/app/features/shared/requestflow/requestflow.go
//
// Package requestflow owns the lifecycle of group invitations, join
// requests, and mentorship requests. Every transition is a conditional
// update on status == pending, wrapped in txn.Run together with the
// membership, slot, and notification writes it implies.
package requestflow

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	chatstore "github.com/dalemusser/researchhub/internal/app/store/chat"
	groupstore "github.com/dalemusser/researchhub/internal/app/store/groups"
	invitationstore "github.com/dalemusser/researchhub/internal/app/store/invitations"
	joinrequeststore "github.com/dalemusser/researchhub/internal/app/store/joinrequests"
	membershipstore "github.com/dalemusser/researchhub/internal/app/store/memberships"
	mentorshipstore "github.com/dalemusser/researchhub/internal/app/store/mentorship"
	notificationstore "github.com/dalemusser/researchhub/internal/app/store/notifications"
	professorstore "github.com/dalemusser/researchhub/internal/app/store/professors"
	studentstore "github.com/dalemusser/researchhub/internal/app/store/students"
	userstore "github.com/dalemusser/researchhub/internal/app/store/users"
	"github.com/dalemusser/researchhub/internal/app/system/authz"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrNotAuthorized       = errors.New("Not authorized")
	ErrStudentProfile      = errors.New("Student profile not found")
	ErrProfessorProfile    = errors.New("Professor profile not found")
	ErrInviteLeaderOnly    = errors.New("Only the group leader can send invitations")
	ErrNotInvitee          = errors.New("This invitation is not for you")
	ErrJoinLeaderOnly      = errors.New("Only the group leader can accept/reject join requests")
	ErrSelfOnly            = errors.New("You can only create requests for yourself")
	ErrAlreadyLeader       = errors.New("You are already the leader of this group")
	ErrAlreadyMember       = errors.New("You are already a member of this group")
	ErrMentorLeaderOnly    = errors.New("Only the group leader can send mentorship requests")
	ErrTooManyPending      = errors.New("You already have 2 active mentorship requests. Wait for a response or withdraw a request.")
	ErrNotAddressed        = errors.New("You can only respond to requests directed to you")
	ErrInvalidStatus       = errors.New("Status must be 'accepted' or 'rejected'")
	ErrInvalidAction       = errors.New("Invalid action. Use 'accept' or 'reject'")
	ErrOwnNoSlots          = errors.New("You have no available mentorship slots")
	ErrWithdrawOwn         = errors.New("You can only withdraw your own requests")
	ErrNotInvitationNotice = errors.New("Notification is not a group invitation")
	ErrNotJoinNotice       = errors.New("Notification is not a group join request")
	ErrStudentsOnlyCreate  = errors.New("Only students can create groups")
	ErrLeaderMismatch      = errors.New("You can only create groups where you are the leader")
	ErrUpdateLeaderOnly    = errors.New("Only the group leader can update the group")
	ErrDeleteLeaderOnly    = errors.New("Only the group leader can delete the group")
	ErrAddLeaderOnly       = errors.New("Only the group leader can add members")
	ErrRemoveNotAllowed    = errors.New("You can only remove yourself or you must be the group leader")
	ErrViewJoinLeaderOnly  = errors.New("Only the group leader can view join requests")
	ErrLeaderLeave         = errors.New("The group leader cannot leave while other members remain")
)

// StateError reports an operation on a request that is no longer pending.
type StateError struct {
	Status string
	detail string
}

func (e *StateError) Error() string { return e.detail }

func alreadyResolved(noun, status string) error {
	return &StateError{Status: status, detail: fmt.Sprintf("This %s has already been %s", noun, status)}
}

func cannotWithdraw(status string) error {
	return &StateError{Status: status, detail: fmt.Sprintf("Cannot withdraw a request that has been %s", status)}
}

// Actor is the authenticated caller driving a transition.
type Actor struct {
	UserID primitive.ObjectID
	Role   string
	Name   string
}

// ActorFrom builds the Actor for r. ok is false for anonymous requests.
func ActorFrom(r *http.Request) (Actor, bool) {
	role, name, id, ok := authz.UserCtx(r)
	if !ok {
		return Actor{}, false
	}
	return Actor{UserID: id, Role: role, Name: name}, true
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// Service wires the stores a transition touches.
type Service struct {
	DB  *mongo.Database
	Log *zap.Logger

	groups        *groupstore.Store
	members       *membershipstore.Store
	students      *studentstore.Store
	professors    *professorstore.Store
	invitations   *invitationstore.Store
	joinRequests  *joinrequeststore.Store
	mentorship    *mentorshipstore.Store
	notifications *notificationstore.Store
	chat          *chatstore.Store
}

func New(db *mongo.Database, logger *zap.Logger) *Service {
	return &Service{
		DB:            db,
		Log:           logger,
		groups:        groupstore.New(db),
		members:       membershipstore.New(db),
		students:      studentstore.New(db),
		professors:    professorstore.New(db),
		invitations:   invitationstore.New(db),
		joinRequests:  joinrequeststore.New(db),
		mentorship:    mentorshipstore.New(db),
		notifications: notificationstore.New(db),
		chat:          chatstore.New(db),
	}
}

// ParseAction maps a notification action ("accept"/"reject", any case)
// to the request status it produces.
func ParseAction(action string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "accept":
		return models.StatusAccepted, nil
	case "reject":
		return models.StatusRejected, nil
	}
	return "", ErrInvalidAction
}

// ValidStatus reports whether status is a legal resolution.
func ValidStatus(status string) bool {
	return status == models.StatusAccepted || status == models.StatusRejected
}

// HTTPStatus maps domain errors raised by the stores and this package to
// a response code. ok is false for unexpected errors.
func HTTPStatus(err error) (code int, ok bool) {
	var se *StateError
	if errors.As(err, &se) {
		return http.StatusBadRequest, true
	}
	switch {
	case errors.Is(err, groupstore.ErrNotFound),
		errors.Is(err, studentstore.ErrNotFound),
		errors.Is(err, professorstore.ErrNotFound),
		errors.Is(err, invitationstore.ErrNotFound),
		errors.Is(err, joinrequeststore.ErrNotFound),
		errors.Is(err, mentorshipstore.ErrNotFound),
		errors.Is(err, notificationstore.ErrNotFound),
		errors.Is(err, membershipstore.ErrNotFound),
		errors.Is(err, chatstore.ErrNotFound),
		errors.Is(err, userstore.ErrNotFound),
		errors.Is(err, ErrStudentProfile),
		errors.Is(err, ErrProfessorProfile):
		return http.StatusNotFound, true

	case errors.Is(err, ErrNotAuthorized),
		errors.Is(err, ErrInviteLeaderOnly),
		errors.Is(err, ErrNotInvitee),
		errors.Is(err, ErrJoinLeaderOnly),
		errors.Is(err, ErrSelfOnly),
		errors.Is(err, ErrMentorLeaderOnly),
		errors.Is(err, ErrNotAddressed),
		errors.Is(err, ErrWithdrawOwn),
		errors.Is(err, ErrStudentsOnlyCreate),
		errors.Is(err, ErrLeaderMismatch),
		errors.Is(err, ErrUpdateLeaderOnly),
		errors.Is(err, ErrDeleteLeaderOnly),
		errors.Is(err, ErrAddLeaderOnly),
		errors.Is(err, ErrRemoveNotAllowed),
		errors.Is(err, ErrViewJoinLeaderOnly):
		return http.StatusForbidden, true

	case errors.Is(err, groupstore.ErrGroupFull),
		errors.Is(err, groupstore.ErrMaxMentors),
		errors.Is(err, groupstore.ErrAlreadyMentor),
		errors.Is(err, groupstore.ErrAlreadyLeads),
		errors.Is(err, groupstore.ErrInvalidMaxMembers),
		errors.Is(err, membershipstore.ErrDuplicateMembership),
		errors.Is(err, invitationstore.ErrDuplicatePending),
		errors.Is(err, joinrequeststore.ErrDuplicatePending),
		errors.Is(err, mentorshipstore.ErrDuplicatePending),
		errors.Is(err, mentorshipstore.ErrReasonRequired),
		errors.Is(err, professorstore.ErrNoSlots),
		errors.Is(err, professorstore.ErrInvalidSlots),
		errors.Is(err, professorstore.ErrDuplicateProfessorID),
		errors.Is(err, studentstore.ErrInvalidGPA),
		errors.Is(err, studentstore.ErrDuplicateStudentID),
		errors.Is(err, userstore.ErrDuplicateEmail),
		errors.Is(err, chatstore.ErrWrongGroup),
		errors.Is(err, chatstore.ErrEmptyMessage),
		errors.Is(err, ErrAlreadyLeader),
		errors.Is(err, ErrAlreadyMember),
		errors.Is(err, ErrTooManyPending),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidAction),
		errors.Is(err, ErrOwnNoSlots),
		errors.Is(err, ErrNotInvitationNotice),
		errors.Is(err, ErrNotJoinNotice),
		errors.Is(err, ErrLeaderLeave):
		return http.StatusBadRequest, true
	}
	return 0, false
}
