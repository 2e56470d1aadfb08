// internal/client/chat.go
package client

import (
	"context"
	"net/http"

	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatPageSize is the history window a chat panel loads.
const ChatPageSize = 100

type ChatService struct{ c *Client }

func chatPath(groupID primitive.ObjectID) string {
	return "/chat/groups/" + groupID.Hex()
}

func (s *ChatService) Messages(ctx context.Context, groupID primitive.ObjectID, p Page) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	err := s.c.do(ctx, http.MethodGet, chatPath(groupID)+"/messages", p.values(), nil, &out)
	return out, err
}

func (s *ChatService) Send(ctx context.Context, groupID primitive.ObjectID, text string) (models.ChatMessage, error) {
	var out models.ChatMessage
	err := s.c.do(ctx, http.MethodPost, chatPath(groupID)+"/messages", nil, map[string]string{"message": text}, &out)
	return out, err
}

func (s *ChatService) Edit(ctx context.Context, groupID, id primitive.ObjectID, text string) (models.ChatMessage, error) {
	var out models.ChatMessage
	err := s.c.do(ctx, http.MethodPut, chatPath(groupID)+"/messages/"+id.Hex(), nil, map[string]string{"message": text}, &out)
	return out, err
}

func (s *ChatService) Delete(ctx context.Context, groupID, id primitive.ObjectID) error {
	return s.c.do(ctx, http.MethodDelete, chatPath(groupID)+"/messages/"+id.Hex(), nil, nil, nil)
}

func (s *ChatService) MarkRead(ctx context.Context, groupID, id primitive.ObjectID) error {
	return s.c.do(ctx, http.MethodPost, chatPath(groupID)+"/messages/"+id.Hex()+"/read", nil, nil, nil)
}

func (s *ChatService) MarkAllRead(ctx context.Context, groupID primitive.ObjectID) error {
	return s.c.do(ctx, http.MethodPost, chatPath(groupID)+"/messages/read-all", nil, nil, nil)
}

func (s *ChatService) UnreadCount(ctx context.Context, groupID primitive.ObjectID) (int, error) {
	var out struct {
		UnreadCount int `json:"unread_count"`
	}
	err := s.c.do(ctx, http.MethodGet, chatPath(groupID)+"/unread-count", nil, nil, &out)
	return out.UnreadCount, err
}
