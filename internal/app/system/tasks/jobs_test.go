package tasks_test

import (
	"testing"
	"time"

	loginstore "github.com/dalemusser/researchhub/internal/app/store/logins"
	notificationstore "github.com/dalemusser/researchhub/internal/app/store/notifications"
	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/app/system/tasks"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/researchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestNotificationPruneJob_KeepsUnreadAndRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	now := time.Now().UTC()
	old := now.Add(-100 * 24 * time.Hour)
	// Inserted directly: Create always stamps now and unread.
	for _, n := range []models.Notification{
		{UserID: user, Type: models.NotifyJoinRequest, Title: "old read", Read: true, CreatedAt: old},
		{UserID: user, Type: models.NotifyJoinRequest, Title: "old unread", CreatedAt: old},
		{UserID: user, Type: models.NotifyJoinRequest, Title: "new read", Read: true, CreatedAt: now},
	} {
		n.ID = primitive.NewObjectID()
		if _, err := db.Collection("notifications").InsertOne(ctx, n); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	job := tasks.NotificationPruneJob(store, zap.NewNop(), time.Hour, 90*24*time.Hour)
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	left, err := store.List(ctx, user, false, paging.Window{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(left) != 2 {
		t.Fatalf("got %d notifications, want 2", len(left))
	}
	for _, n := range left {
		if n.Title == "old read" {
			t.Error("old read notification survived")
		}
	}
}

func TestLoginRecordPruneJob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	if err := store.Create(ctx, models.LoginRecord{UserID: user, CreatedAt: time.Now().UTC().Add(-400 * 24 * time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, models.LoginRecord{UserID: user}); err != nil {
		t.Fatal(err)
	}

	job := tasks.LoginRecordPruneJob(store, zap.NewNop(), time.Hour, 365*24*time.Hour)
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	recs, err := store.Recent(ctx, user, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Errorf("got %d records, want 1", len(recs))
	}
}
