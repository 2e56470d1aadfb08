// internal/client/mentorship.go
package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MentorshipService struct{ c *Client }

// NewMentorshipRequest is the body of POST /mentorship-requests.
type NewMentorshipRequest struct {
	GroupID     primitive.ObjectID `json:"group_id"`
	ProfessorID primitive.ObjectID `json:"professor_id"`
	RequestedBy primitive.ObjectID `json:"requested_by"`
	Message     string             `json:"message"`
}

func (s *MentorshipService) Create(ctx context.Context, in NewMentorshipRequest) (models.MentorshipRequest, error) {
	var out models.MentorshipRequest
	err := s.c.do(ctx, http.MethodPost, "/mentorship-requests", nil, in, &out)
	return out, err
}

// Get fetches one request, including its rejection reason.
func (s *MentorshipService) Get(ctx context.Context, id primitive.ObjectID) (models.MentorshipRequest, error) {
	var out models.MentorshipRequest
	err := s.c.do(ctx, http.MethodGet, "/mentorship-requests/"+id.Hex(), nil, nil, &out)
	return out, err
}

// ForProfessor lists requests addressed to professorID. status may be empty.
func (s *MentorshipService) ForProfessor(ctx context.Context, professorID primitive.ObjectID, status string) ([]models.MentorshipRequestWithDetails, error) {
	q := url.Values{}
	setIf(q, "status", status)
	var out []models.MentorshipRequestWithDetails
	err := s.c.do(ctx, http.MethodGet, "/mentorship-requests/professor/"+professorID.Hex(), q, nil, &out)
	return out, err
}

func (s *MentorshipService) ForGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.MentorshipRequest, error) {
	var out []models.MentorshipRequest
	err := s.c.do(ctx, http.MethodGet, "/mentorship-requests/group/"+groupID.Hex(), nil, nil, &out)
	return out, err
}

// UpdateStatus accepts or rejects a request. A Rejected with a blank
// reason returns ErrReasonRequired without contacting the server.
func (s *MentorshipService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status RequestStatus) (models.MentorshipRequest, error) {
	if err := validateResponse(status); err != nil {
		return models.MentorshipRequest{}, err
	}
	body := map[string]string{"status": status.Name()}
	if r, ok := status.(Rejected); ok {
		body["rejection_reason"] = r.Reason
	}
	var out models.MentorshipRequest
	err := s.c.do(ctx, http.MethodPut, "/mentorship-requests/"+id.Hex()+"/status", nil, body, &out)
	return out, err
}

// Withdraw deletes a pending request made by the caller.
func (s *MentorshipService) Withdraw(ctx context.Context, id primitive.ObjectID) error {
	return s.c.do(ctx, http.MethodDelete, "/mentorship-requests/"+id.Hex(), nil, nil, nil)
}
