// internal/client/chat/panel.go
//
// Package chat is the group chat panel: history, sending, and read state
// for one group.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dalemusser/researchhub/internal/client"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrSendInFlight is returned by Send while an earlier send has not
	// been acknowledged.
	ErrSendInFlight = errors.New("a message is already being sent")
	ErrEmptyMessage = errors.New("message is empty")
	ErrClosed       = errors.New("chat panel closed")
)

// API is the part of the client the panel uses.
type API interface {
	Messages(ctx context.Context, groupID primitive.ObjectID, p client.Page) ([]models.ChatMessage, error)
	Send(ctx context.Context, groupID primitive.ObjectID, text string) (models.ChatMessage, error)
	MarkAllRead(ctx context.Context, groupID primitive.ObjectID) error
}

// Panel is safe for concurrent use.
type Panel struct {
	api     API
	groupID primitive.ObjectID
	log     *zap.Logger

	mu       sync.Mutex
	messages []models.ChatMessage
	sending  bool
	closed   bool
}

func New(api API, groupID primitive.ObjectID, logger *zap.Logger) *Panel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Panel{api: api, groupID: groupID, log: logger}
}

// Open loads the history and marks it read.
func (p *Panel) Open(ctx context.Context) error {
	if err := p.Refresh(ctx); err != nil {
		return err
	}
	if err := p.api.MarkAllRead(ctx, p.groupID); err != nil {
		p.log.Warn("mark chat read failed", zap.String("group_id", p.groupID.Hex()), zap.Error(err))
	}
	return nil
}

// Refresh replaces the local history with the server's.
func (p *Panel) Refresh(ctx context.Context) error {
	msgs, err := p.api.Messages(ctx, p.groupID, client.Page{Limit: client.ChatPageSize})
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.messages = msgs
	return nil
}

// Send posts text. Only one send runs at a time; the message is appended
// once the server has stored it.
func (p *Panel) Send(ctx context.Context, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return models.ChatMessage{}, ErrClosed
	}
	if p.sending {
		p.mu.Unlock()
		return models.ChatMessage{}, ErrSendInFlight
	}
	p.sending = true
	p.mu.Unlock()

	m, err := p.api.Send(ctx, p.groupID, text)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sending = false
	if err != nil {
		return models.ChatMessage{}, err
	}
	if !p.closed {
		p.messages = append(p.messages, m)
	}
	return m, nil
}

// Messages returns a copy of the history, oldest first.
func (p *Panel) Messages() []models.ChatMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ChatMessage(nil), p.messages...)
}

// Close detaches the panel.
func (p *Panel) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
