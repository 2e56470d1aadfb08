package invitationstore_test

import (
	"errors"
	"testing"

	invitationstore "github.com/dalemusser/researchhub/internal/app/store/invitations"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/researchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_OnePendingPerPair(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID, studentID := primitive.NewObjectID(), primitive.NewObjectID()

	inv, err := store.Create(ctx, groupID, studentID, "join us")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if inv.Status != models.StatusPending {
		t.Errorf("Status: got %q, want pending", inv.Status)
	}

	if _, err := store.Create(ctx, groupID, studentID, "again"); !errors.Is(err, invitationstore.ErrDuplicatePending) {
		t.Errorf("expected ErrDuplicatePending, got %v", err)
	}

	// Once resolved, a fresh invitation is allowed.
	if _, err := store.Resolve(ctx, inv.ID, models.StatusRejected); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, err := store.Create(ctx, groupID, studentID, "third time"); err != nil {
		t.Errorf("expected new invitation after resolve, got %v", err)
	}
}

func TestStore_Resolve_OnlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inv, err := store.Create(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Resolve(ctx, inv.ID, models.StatusAccepted)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Status != models.StatusAccepted || got.RespondedAt == nil {
		t.Errorf("after resolve: status=%q responded_at=%v", got.Status, got.RespondedAt)
	}

	cur, err := store.Resolve(ctx, inv.ID, models.StatusRejected)
	if !errors.Is(err, invitationstore.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if cur.Status != models.StatusAccepted {
		t.Errorf("status changed by second resolve: %q", cur.Status)
	}

	if _, err := store.Resolve(ctx, primitive.NewObjectID(), models.StatusAccepted); !errors.Is(err, invitationstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListForStudent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	studentID := primitive.NewObjectID()
	for i := 0; i < 3; i++ {
		if _, err := store.Create(ctx, primitive.NewObjectID(), studentID, ""); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if _, err := store.Create(ctx, primitive.NewObjectID(), primitive.NewObjectID(), ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.ListForStudent(ctx, studentID)
	if err != nil {
		t.Fatalf("ListForStudent failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d invitations, want 3", len(got))
	}
}
