package bell_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/researchhub/internal/client"
	"github.com/dalemusser/researchhub/internal/client/bell"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeAPI struct {
	mu      sync.Mutex
	items   []models.Notification
	marks   int
	acts    int
	block   chan struct{} // when set, actions wait on it
	started chan struct{}
	actErr  error
}

func (f *fakeAPI) List(ctx context.Context, unreadOnly bool, p client.Page) ([]models.Notification, error) {
	return append([]models.Notification(nil), f.items...), nil
}

func (f *fakeAPI) UnreadCount(ctx context.Context) (int, error) {
	n := 0
	for _, it := range f.items {
		if !it.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeAPI) MarkOneRead(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marks++
	return nil
}

func (f *fakeAPI) act(ctx context.Context, id primitive.ObjectID, action string) (client.ActionResult, error) {
	f.mu.Lock()
	f.acts++
	block := f.block
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if f.actErr != nil {
		return client.ActionResult{}, f.actErr
	}
	return client.ActionResult{Message: "Invitation " + action + "ed", Status: action + "ed"}, nil
}

func (f *fakeAPI) ActInvitation(ctx context.Context, id primitive.ObjectID, action string) (client.ActionResult, error) {
	return f.act(ctx, id, action)
}

func (f *fakeAPI) ActJoinRequest(ctx context.Context, id primitive.ObjectID, action string) (client.ActionResult, error) {
	return f.act(ctx, id, action)
}

type fakeRequests struct {
	req models.MentorshipRequest
	err error
}

func (f fakeRequests) Get(ctx context.Context, id primitive.ObjectID) (models.MentorshipRequest, error) {
	return f.req, f.err
}

func notification(typ string, read bool) models.Notification {
	return models.Notification{ID: primitive.NewObjectID(), Type: typ, Message: "summary", Read: read}
}

func loaded(t *testing.T, api *fakeAPI, req bell.RequestFetcher) *bell.Bell {
	t.Helper()
	b := bell.New(api, req, zap.NewNop())
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return b
}

func TestOpen_MarksReadOnce(t *testing.T) {
	n := notification(models.NotifyInvitationAccepted, false)
	api := &fakeAPI{items: []models.Notification{n, notification(models.NotifyJoinRequest, false)}}
	b := loaded(t, api, nil)

	if b.UnreadCount() != 2 {
		t.Fatalf("unread: got %d", b.UnreadCount())
	}
	for i := 0; i < 3; i++ {
		if _, err := b.Open(context.Background(), n.ID); err != nil {
			t.Fatalf("Open: %v", err)
		}
	}
	if api.marks != 1 {
		t.Errorf("mark-read requests: got %d, want 1", api.marks)
	}
	if b.UnreadCount() != 1 {
		t.Errorf("unread after opens: got %d, want 1", b.UnreadCount())
	}
}

func TestOpen_AlreadyReadSendsNothing(t *testing.T) {
	n := notification(models.NotifyInvitationRejected, true)
	api := &fakeAPI{items: []models.Notification{n}}
	b := loaded(t, api, nil)

	if _, err := b.Open(context.Background(), n.ID); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if api.marks != 0 {
		t.Errorf("mark-read requests: got %d, want 0", api.marks)
	}
}

func TestOpen_MentorshipRejectedDetail(t *testing.T) {
	reqID := primitive.NewObjectID()
	n := notification(models.NotifyMentorshipRejected, false)
	n.RelatedRequestID = &reqID
	api := &fakeAPI{items: []models.Notification{n}}

	b := loaded(t, api, fakeRequests{req: models.MentorshipRequest{ID: reqID, RejectionReason: "at capacity"}})
	got, err := b.Open(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got.Detail != "at capacity" {
		t.Errorf("detail: got %q", got.Detail)
	}
	if !got.Notification.Read {
		t.Error("opened notification should be read")
	}

	b = loaded(t, api, fakeRequests{err: errors.New("boom")})
	got, _ = b.Open(context.Background(), n.ID)
	if got.Detail != "summary" {
		t.Errorf("fallback detail: got %q", got.Detail)
	}
}

func TestAct_InFlightGuard(t *testing.T) {
	n := notification(models.NotifyGroupInvitation, false)
	api := &fakeAPI{items: []models.Notification{n}, block: make(chan struct{}), started: make(chan struct{}, 1)}
	b := loaded(t, api, nil)

	done := make(chan error, 1)
	go func() {
		_, err := b.Act(context.Background(), n.ID, client.ActionAccept)
		done <- err
	}()

	<-api.started

	if _, err := b.Act(context.Background(), n.ID, client.ActionAccept); !errors.Is(err, bell.ErrInFlight) {
		t.Errorf("second Act: got %v, want ErrInFlight", err)
	}
	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("first Act: %v", err)
	}
	if api.acts != 1 {
		t.Errorf("actions sent: got %d, want 1", api.acts)
	}
	if b.UnreadCount() != 0 {
		t.Errorf("unread after act: got %d", b.UnreadCount())
	}
}

func TestAct_NotActionable(t *testing.T) {
	n := notification(models.NotifyMentorshipAccepted, false)
	b := loaded(t, &fakeAPI{items: []models.Notification{n}}, nil)
	if _, err := b.Act(context.Background(), n.ID, client.ActionAccept); !errors.Is(err, bell.ErrNotActionable) {
		t.Errorf("got %v", err)
	}
}

func TestClose_DropsLateResults(t *testing.T) {
	n := notification(models.NotifyGroupInvitation, false)
	api := &fakeAPI{items: []models.Notification{n}}
	b := loaded(t, api, nil)
	b.Close()

	if _, err := b.Act(context.Background(), n.ID, client.ActionReject); !errors.Is(err, bell.ErrClosed) {
		t.Errorf("Act after Close: got %v", err)
	}
	if _, err := b.Open(context.Background(), n.ID); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if b.UnreadCount() != 1 {
		t.Errorf("closed bell must not apply results, unread=%d", b.UnreadCount())
	}
}
