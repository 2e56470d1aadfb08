// internal/client/groups.go
package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GroupsService struct{ c *Client }

// NewGroup is the body of POST /groups.
type NewGroup struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	NeededSkills []string `json:"needed_skills"`
	MaxMembers   int      `json:"max_members"`
}

// GroupChanges is the body of PUT /groups/{id}. Nil fields are kept.
type GroupChanges struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	NeededSkills []string `json:"needed_skills,omitempty"`
	MaxMembers   *int     `json:"max_members,omitempty"`
}

func (s *GroupsService) List(ctx context.Context, p Page) ([]models.GroupWithMentors, error) {
	var out []models.GroupWithMentors
	err := s.c.do(ctx, http.MethodGet, "/groups", p.values(), nil, &out)
	return out, err
}

// Mine returns the caller's groups: memberships for a student, mentored
// groups for a professor.
func (s *GroupsService) Mine(ctx context.Context) ([]models.GroupWithMentors, error) {
	var out []models.GroupWithMentors
	err := s.c.do(ctx, http.MethodGet, "/groups/my-groups", nil, nil, &out)
	return out, err
}

func (s *GroupsService) Get(ctx context.Context, id primitive.ObjectID) (models.GroupWithMentors, error) {
	var out models.GroupWithMentors
	err := s.c.do(ctx, http.MethodGet, "/groups/"+id.Hex(), nil, nil, &out)
	return out, err
}

func (s *GroupsService) Create(ctx context.Context, in NewGroup) (models.GroupWithMentors, error) {
	var out models.GroupWithMentors
	err := s.c.do(ctx, http.MethodPost, "/groups", nil, in, &out)
	return out, err
}

func (s *GroupsService) Update(ctx context.Context, id primitive.ObjectID, in GroupChanges) (models.GroupWithMentors, error) {
	var out models.GroupWithMentors
	err := s.c.do(ctx, http.MethodPut, "/groups/"+id.Hex(), nil, in, &out)
	return out, err
}

func (s *GroupsService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.c.do(ctx, http.MethodDelete, "/groups/"+id.Hex(), nil, nil, nil)
}

func (s *GroupsService) Members(ctx context.Context, id primitive.ObjectID) ([]models.GroupMember, error) {
	var out []models.GroupMember
	err := s.c.do(ctx, http.MethodGet, "/groups/"+id.Hex()+"/members", nil, nil, &out)
	return out, err
}

func (s *GroupsService) RemoveMember(ctx context.Context, groupID, studentID primitive.ObjectID) error {
	return s.c.do(ctx, http.MethodDelete, "/groups/"+groupID.Hex()+"/members/"+studentID.Hex(), nil, nil, nil)
}

func (s *GroupsService) Mentors(ctx context.Context, id primitive.ObjectID) ([]models.MentorSummary, error) {
	var out []models.MentorSummary
	err := s.c.do(ctx, http.MethodGet, "/groups/"+id.Hex()+"/mentors", nil, nil, &out)
	return out, err
}

type requestBody struct {
	GroupID   primitive.ObjectID `json:"group_id"`
	StudentID primitive.ObjectID `json:"student_id"`
	Message   string             `json:"message"`
}

// Invite asks studentID to join groupID. Leader only.
func (s *GroupsService) Invite(ctx context.Context, groupID, studentID primitive.ObjectID, message string) (models.GroupInvitation, error) {
	var out models.GroupInvitation
	err := s.c.do(ctx, http.MethodPost, "/groups/invitations", nil, requestBody{groupID, studentID, message}, &out)
	return out, err
}

func (s *GroupsService) Invitations(ctx context.Context, studentID primitive.ObjectID) ([]models.GroupInvitation, error) {
	var out []models.GroupInvitation
	err := s.c.do(ctx, http.MethodGet, "/groups/invitations/student/"+studentID.Hex(), nil, nil, &out)
	return out, err
}

// RespondInvitation accepts or rejects an invitation addressed to the caller.
func (s *GroupsService) RespondInvitation(ctx context.Context, id primitive.ObjectID, status RequestStatus) (string, error) {
	return s.respond(ctx, "/groups/invitations/"+id.Hex()+"/status", status)
}

// RequestJoin asks to join groupID as studentID (the caller).
func (s *GroupsService) RequestJoin(ctx context.Context, groupID, studentID primitive.ObjectID, message string) (models.GroupJoinRequest, error) {
	var out models.GroupJoinRequest
	err := s.c.do(ctx, http.MethodPost, "/groups/join-requests", nil, requestBody{groupID, studentID, message}, &out)
	return out, err
}

func (s *GroupsService) JoinRequests(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupJoinRequest, error) {
	var out []models.GroupJoinRequest
	err := s.c.do(ctx, http.MethodGet, "/groups/join-requests/group/"+groupID.Hex(), nil, nil, &out)
	return out, err
}

func (s *GroupsService) RespondJoinRequest(ctx context.Context, id primitive.ObjectID, status RequestStatus) (string, error) {
	return s.respond(ctx, "/groups/join-requests/"+id.Hex()+"/status", status)
}

// respond sends an accept or reject. Group requests carry no reason, so
// any Rejected is sent as a bare rejection.
func (s *GroupsService) respond(ctx context.Context, path string, status RequestStatus) (string, error) {
	switch status.(type) {
	case Accepted, Rejected:
	default:
		return "", validateResponse(status)
	}
	q := url.Values{"status": {status.Name()}}
	var out Message
	err := s.c.do(ctx, http.MethodPut, path, q, nil, &out)
	return out.Message, err
}
