// internal/client/bell/bell.go
//
// Package bell holds the notification list behind the header bell and
// dispatches the inline accept/reject actions.
package bell

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/researchhub/internal/client"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrInFlight is returned by Act while an earlier action on the same
	// notification has not finished.
	ErrInFlight = errors.New("an action on this notification is already in progress")
	// ErrNotActionable is returned by Act for notification types that take
	// no action.
	ErrNotActionable = errors.New("notification has no actions")
	ErrUnknown       = errors.New("notification not loaded")
	// ErrClosed is returned once the bell has been closed.
	ErrClosed = errors.New("bell closed")
)

// API is the part of the client the bell uses.
type API interface {
	List(ctx context.Context, unreadOnly bool, p client.Page) ([]models.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkOneRead(ctx context.Context, id primitive.ObjectID) error
	ActInvitation(ctx context.Context, notificationID primitive.ObjectID, action string) (client.ActionResult, error)
	ActJoinRequest(ctx context.Context, notificationID primitive.ObjectID, action string) (client.ActionResult, error)
}

// RequestFetcher loads a mentorship request for the rejection follow-up.
type RequestFetcher interface {
	Get(ctx context.Context, id primitive.ObjectID) (models.MentorshipRequest, error)
}

// Opened is what Open shows for a notification. Detail is the rejection
// reason for mentorship_rejected, or the notification message.
type Opened struct {
	Notification models.Notification
	Detail       string
}

// Bell is safe for concurrent use.
type Bell struct {
	api      API
	requests RequestFetcher
	log      *zap.Logger

	mu       sync.Mutex
	items    []models.Notification
	unread   int
	marking  map[primitive.ObjectID]bool
	inflight map[primitive.ObjectID]bool
	closed   bool
}

// New returns a bell. requests may be nil, in which case rejection details
// fall back to the notification message.
func New(api API, requests RequestFetcher, logger *zap.Logger) *Bell {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bell{
		api:      api,
		requests: requests,
		log:      logger,
		marking:  make(map[primitive.ObjectID]bool),
		inflight: make(map[primitive.ObjectID]bool),
	}
}

// Load fetches the newest notifications and the unread count.
func (b *Bell) Load(ctx context.Context) error {
	items, err := b.api.List(ctx, false, client.Page{Limit: 50})
	if err != nil {
		return err
	}
	n, err := b.api.UnreadCount(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.items = items
	b.unread = n
	return nil
}

// Notifications returns a copy of the loaded list, newest first.
func (b *Bell) Notifications() []models.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Notification(nil), b.items...)
}

func (b *Bell) UnreadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unread
}

// Close detaches the bell. Results arriving afterwards are dropped.
func (b *Bell) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

func (b *Bell) find(id primitive.ObjectID) (int, bool) {
	for i := range b.items {
		if b.items[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Open shows a notification. An unread one is marked read at most once,
// so the unread count drops by at most one however often Open is called.
func (b *Bell) Open(ctx context.Context, id primitive.ObjectID) (Opened, error) {
	b.mu.Lock()
	i, ok := b.find(id)
	if !ok {
		b.mu.Unlock()
		return Opened{}, ErrUnknown
	}
	n := b.items[i]
	mark := !n.Read && !b.marking[id]
	if mark {
		b.marking[id] = true
	}
	b.mu.Unlock()

	if mark {
		b.markRead(ctx, id)
	}

	out := Opened{Notification: n, Detail: n.Message}
	if n.Type == models.NotifyMentorshipRejected {
		out.Detail = b.rejectionDetail(ctx, n)
	}
	b.mu.Lock()
	if i, ok := b.find(id); ok {
		out.Notification = b.items[i]
	}
	b.mu.Unlock()
	return out, nil
}

func (b *Bell) markRead(ctx context.Context, id primitive.ObjectID) {
	err := b.api.MarkOneRead(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.marking, id)
	if err != nil {
		b.log.Warn("mark notification read failed", zap.String("id", id.Hex()), zap.Error(err))
		return
	}
	if b.closed {
		return
	}
	if i, ok := b.find(id); ok && !b.items[i].Read {
		b.items[i].Read = true
		if b.unread > 0 {
			b.unread--
		}
	}
}

// rejectionDetail fetches the reason behind a mentorship rejection. On
// failure it logs and returns the notification's own message.
func (b *Bell) rejectionDetail(ctx context.Context, n models.Notification) string {
	if b.requests == nil || n.RelatedRequestID == nil {
		return n.Message
	}
	req, err := b.requests.Get(ctx, *n.RelatedRequestID)
	if err != nil {
		b.log.Warn("load mentorship request failed",
			zap.String("request_id", n.RelatedRequestID.Hex()), zap.Error(err))
		return n.Message
	}
	if req.RejectionReason == "" {
		return n.Message
	}
	return req.RejectionReason
}

// Act accepts or rejects the request behind an actionable notification.
// A second call for the same notification while the first is running
// returns ErrInFlight and sends nothing.
func (b *Bell) Act(ctx context.Context, id primitive.ObjectID, action string) (client.ActionResult, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return client.ActionResult{}, ErrClosed
	}
	i, ok := b.find(id)
	if !ok {
		b.mu.Unlock()
		return client.ActionResult{}, ErrUnknown
	}
	var send func(context.Context, primitive.ObjectID, string) (client.ActionResult, error)
	switch b.items[i].Type {
	case models.NotifyGroupInvitation:
		send = b.api.ActInvitation
	case models.NotifyJoinRequest:
		send = b.api.ActJoinRequest
	default:
		b.mu.Unlock()
		return client.ActionResult{}, ErrNotActionable
	}
	if b.inflight[id] {
		b.mu.Unlock()
		return client.ActionResult{}, ErrInFlight
	}
	b.inflight[id] = true
	b.mu.Unlock()

	res, err := send(ctx, id, action)

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inflight, id)
	if err != nil {
		return client.ActionResult{}, err
	}
	// The server marks the notification read as part of the action.
	if !b.closed {
		if i, ok := b.find(id); ok && !b.items[i].Read {
			b.items[i].Read = true
			if b.unread > 0 {
				b.unread--
			}
		}
	}
	return res, nil
}
