// internal/client/notifications.go
package client

import (
	"context"
	"net/http"

	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actions on an actionable notification.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

type NotificationsService struct{ c *Client }

// ActionResult is the response of an invitation or join-request action.
type ActionResult struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (s *NotificationsService) List(ctx context.Context, unreadOnly bool, p Page) ([]models.Notification, error) {
	q := p.values()
	if unreadOnly {
		q.Set("unread_only", "true")
	}
	var out []models.Notification
	err := s.c.do(ctx, http.MethodGet, "/notifications", q, nil, &out)
	return out, err
}

func (s *NotificationsService) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := s.c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, nil, &out)
	return out.Count, err
}

// MarkRead marks the given notifications read and returns how many changed.
func (s *NotificationsService) MarkRead(ctx context.Context, ids []primitive.ObjectID) (int, error) {
	var out struct {
		Marked int `json:"marked"`
	}
	body := map[string]any{"notification_ids": ids}
	err := s.c.do(ctx, http.MethodPut, "/notifications/mark-read", nil, body, &out)
	return out.Marked, err
}

func (s *NotificationsService) MarkOneRead(ctx context.Context, id primitive.ObjectID) error {
	return s.c.do(ctx, http.MethodPut, "/notifications/"+id.Hex()+"/mark-read", nil, nil, nil)
}

func (s *NotificationsService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.c.do(ctx, http.MethodDelete, "/notifications/"+id.Hex(), nil, nil, nil)
}

// ActInvitation accepts or rejects the invitation behind a
// group_invitation notification.
func (s *NotificationsService) ActInvitation(ctx context.Context, notificationID primitive.ObjectID, action string) (ActionResult, error) {
	return s.act(ctx, "/notifications/group-invitation/action", notificationID, action)
}

// ActJoinRequest accepts or rejects the request behind a join_request
// notification.
func (s *NotificationsService) ActJoinRequest(ctx context.Context, notificationID primitive.ObjectID, action string) (ActionResult, error) {
	return s.act(ctx, "/notifications/group-join-request/action", notificationID, action)
}

func (s *NotificationsService) act(ctx context.Context, path string, id primitive.ObjectID, action string) (ActionResult, error) {
	body := map[string]any{"notification_id": id, "action": action}
	var out ActionResult
	err := s.c.do(ctx, http.MethodPost, path, nil, body, &out)
	return out, err
}
