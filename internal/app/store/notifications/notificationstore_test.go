package notificationstore_test

import (
	"errors"
	"testing"

	notificationstore "github.com/dalemusser/researchhub/internal/app/store/notifications"
	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/researchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seed(t *testing.T, store *notificationstore.Store, userID primitive.ObjectID, n int) []models.Notification {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	out := make([]models.Notification, 0, n)
	for i := 0; i < n; i++ {
		created, err := store.Create(ctx, models.Notification{
			UserID:  userID,
			Type:    models.NotifyJoinRequest,
			Title:   "New Join Request",
			Message: "someone wants in",
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		out = append(out, created)
	}
	return out
}

func TestStore_ListAndUnread(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	ns := seed(t, store, user, 3)
	seed(t, store, primitive.NewObjectID(), 2)

	got, err := store.List(ctx, user, false, paging.Window{Limit: paging.NotificationLimit})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d notifications, want 3", len(got))
	}
	if got[0].ID != ns[2].ID {
		t.Errorf("expected newest first")
	}

	n, err := store.UnreadCount(ctx, user)
	if err != nil || n != 3 {
		t.Errorf("UnreadCount: n=%d err=%v", n, err)
	}
}

func TestStore_MarkOneRead_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	ns := seed(t, store, user, 2)

	for i := 0; i < 2; i++ {
		if err := store.MarkOneRead(ctx, user, ns[0].ID); err != nil {
			t.Fatalf("MarkOneRead #%d failed: %v", i+1, err)
		}
	}
	n, _ := store.UnreadCount(ctx, user)
	if n != 1 {
		t.Errorf("UnreadCount: got %d, want 1", n)
	}

	if err := store.MarkOneRead(ctx, primitive.NewObjectID(), ns[1].ID); !errors.Is(err, notificationstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other user, got %v", err)
	}

	unread, _ := store.List(ctx, user, true, paging.Window{Limit: 50})
	if len(unread) != 1 || unread[0].ID != ns[1].ID {
		t.Errorf("unread_only: got %d rows", len(unread))
	}
}

func TestStore_MarkRead_OnlyOwn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me, other := primitive.NewObjectID(), primitive.NewObjectID()
	mine := seed(t, store, me, 2)
	theirs := seed(t, store, other, 1)

	marked, err := store.MarkRead(ctx, me, []primitive.ObjectID{mine[0].ID, mine[1].ID, theirs[0].ID})
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if marked != 2 {
		t.Errorf("marked: got %d, want 2", marked)
	}
	if n, _ := store.UnreadCount(ctx, other); n != 1 {
		t.Errorf("other user's unread: got %d, want 1", n)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	ns := seed(t, store, user, 1)

	if err := store.Delete(ctx, user, ns[0].ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, user, ns[0].ID); !errors.Is(err, notificationstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
