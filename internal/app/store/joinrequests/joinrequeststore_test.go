package joinrequeststore_test

import (
	"errors"
	"testing"

	joinrequeststore "github.com/dalemusser/researchhub/internal/app/store/joinrequests"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/researchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := joinrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID, studentID := primitive.NewObjectID(), primitive.NewObjectID()
	if _, err := store.Create(ctx, groupID, studentID, "let me in"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, groupID, studentID, "please"); !errors.Is(err, joinrequeststore.ErrDuplicatePending) {
		t.Errorf("expected ErrDuplicatePending, got %v", err)
	}
}

func TestStore_ListForGroup_PendingOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := joinrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID := primitive.NewObjectID()
	first, err := store.Create(ctx, groupID, primitive.NewObjectID(), "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, groupID, primitive.NewObjectID(), ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Resolve(ctx, first.ID, models.StatusAccepted); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	pending, err := store.ListForGroup(ctx, groupID, models.StatusPending)
	if err != nil {
		t.Fatalf("ListForGroup failed: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("got %d pending, want 1", len(pending))
	}

	all, err := store.ListForGroup(ctx, groupID, "")
	if err != nil {
		t.Fatalf("ListForGroup failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d total, want 2", len(all))
	}
}

func TestStore_Resolve_Conflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := joinrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	jr, err := store.Create(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Resolve(ctx, jr.ID, models.StatusRejected); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	cur, err := store.Resolve(ctx, jr.ID, models.StatusAccepted)
	if !errors.Is(err, joinrequeststore.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if cur.Status != models.StatusRejected {
		t.Errorf("status: got %q, want rejected", cur.Status)
	}
}
