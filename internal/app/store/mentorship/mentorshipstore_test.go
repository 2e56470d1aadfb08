package mentorshipstore_test

import (
	"errors"
	"testing"

	mentorshipstore "github.com/dalemusser/researchhub/internal/app/store/mentorship"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/researchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRequest(groupID, professorID primitive.ObjectID) models.MentorshipRequest {
	return models.MentorshipRequest{
		GroupID:     groupID,
		ProfessorID: professorID,
		RequestedBy: primitive.NewObjectID(),
		Message:     "please mentor us",
	}
}

func TestStore_Create_DuplicatePending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := mentorshipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID, profID := primitive.NewObjectID(), primitive.NewObjectID()
	r, err := store.Create(ctx, newRequest(groupID, profID))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if r.Status != models.StatusPending {
		t.Errorf("Status: got %q, want pending", r.Status)
	}
	if _, err := store.Create(ctx, newRequest(groupID, profID)); !errors.Is(err, mentorshipstore.ErrDuplicatePending) {
		t.Errorf("expected ErrDuplicatePending, got %v", err)
	}

	n, err := store.CountPendingForGroup(ctx, groupID)
	if err != nil || n != 1 {
		t.Errorf("CountPendingForGroup: n=%d err=%v", n, err)
	}
}

func TestStore_Accept_Twice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := mentorshipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r, err := store.Create(ctx, newRequest(primitive.NewObjectID(), primitive.NewObjectID()))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Accept(ctx, r.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	cur, err := store.Accept(ctx, r.ID)
	if !errors.Is(err, mentorshipstore.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if cur.Status != models.StatusAccepted {
		t.Errorf("status: got %q", cur.Status)
	}
}

func TestStore_Reject_RequiresReason(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := mentorshipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r, err := store.Create(ctx, newRequest(primitive.NewObjectID(), primitive.NewObjectID()))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Reject(ctx, r.ID, ""); !errors.Is(err, mentorshipstore.ErrReasonRequired) {
		t.Errorf("expected ErrReasonRequired, got %v", err)
	}

	got, err := store.Reject(ctx, r.ID, "at capacity")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if got.RejectionReason != "at capacity" || got.RespondedAt == nil {
		t.Errorf("after reject: %+v", got)
	}
}

func TestStore_RejectOtherPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := mentorshipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID := primitive.NewObjectID()
	keep, _ := store.Create(ctx, newRequest(groupID, primitive.NewObjectID()))
	other, _ := store.Create(ctx, newRequest(groupID, primitive.NewObjectID()))
	unrelated, _ := store.Create(ctx, newRequest(primitive.NewObjectID(), primitive.NewObjectID()))

	closed, err := store.RejectOtherPending(ctx, groupID, keep.ID)
	if err != nil {
		t.Fatalf("RejectOtherPending failed: %v", err)
	}
	if len(closed) != 1 || closed[0].ID != other.ID {
		t.Fatalf("closed: got %d requests", len(closed))
	}
	if closed[0].RejectionReason != mentorshipstore.AutoRejectReason {
		t.Errorf("reason: got %q", closed[0].RejectionReason)
	}

	for _, id := range []primitive.ObjectID{keep.ID, unrelated.ID} {
		r, _ := store.GetByID(ctx, id)
		if r.Status != models.StatusPending {
			t.Errorf("request %s: got status %q, want pending", id.Hex(), r.Status)
		}
	}
}

func TestStore_DeletePending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := mentorshipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pending, _ := store.Create(ctx, newRequest(primitive.NewObjectID(), primitive.NewObjectID()))
	done, _ := store.Create(ctx, newRequest(primitive.NewObjectID(), primitive.NewObjectID()))
	if _, err := store.Accept(ctx, done.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	if err := store.DeletePending(ctx, pending.ID); err != nil {
		t.Errorf("DeletePending failed: %v", err)
	}
	if err := store.DeletePending(ctx, done.ID); !errors.Is(err, mentorshipstore.ErrNotPending) {
		t.Errorf("expected ErrNotPending, got %v", err)
	}
	if err := store.DeletePending(ctx, pending.ID); !errors.Is(err, mentorshipstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_DeletePendingForProfessor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := mentorshipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	profID := primitive.NewObjectID()
	done, err := store.Create(ctx, newRequest(primitive.NewObjectID(), profID))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Accept(ctx, done.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if _, err := store.Create(ctx, newRequest(primitive.NewObjectID(), profID)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	n, err := store.DeletePendingForProfessor(ctx, profID)
	if err != nil {
		t.Fatalf("DeletePendingForProfessor failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if _, err := store.GetByID(ctx, done.ID); err != nil {
		t.Errorf("accepted request should remain: %v", err)
	}
}
