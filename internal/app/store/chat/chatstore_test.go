package chatstore_test

import (
	"errors"
	"testing"

	chatstore "github.com/dalemusser/researchhub/internal/app/store/chat"
	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/researchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func post(t *testing.T, store *chatstore.Store, groupID, sender primitive.ObjectID, text string) models.ChatMessage {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.ChatMessage{
		GroupID:    groupID,
		SenderID:   sender,
		SenderType: models.RoleStudent,
		SenderName: "Sender",
		Message:    text,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return m
}

func TestStore_Create_SenderHasRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := chatstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID, alice, bob := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	m := post(t, store, groupID, alice, "hello")
	if !m.IsRead {
		t.Error("expected sender's copy to be read")
	}

	n, _ := store.UnreadCount(ctx, groupID, alice)
	if n != 0 {
		t.Errorf("sender unread: got %d, want 0", n)
	}
	n, _ = store.UnreadCount(ctx, groupID, bob)
	if n != 1 {
		t.Errorf("other unread: got %d, want 1", n)
	}

	if _, err := store.Create(ctx, models.ChatMessage{GroupID: groupID, SenderID: alice}); !errors.Is(err, chatstore.ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestStore_List_OrderAndDeleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := chatstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID, alice, bob := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	first := post(t, store, groupID, alice, "one")
	second := post(t, store, groupID, bob, "two")
	third := post(t, store, groupID, alice, "three")

	if err := store.SoftDelete(ctx, second.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	got, err := store.List(ctx, groupID, bob, paging.Window{Limit: paging.DefaultLimit})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != third.ID {
		t.Error("expected ascending order without deleted message")
	}
	if got[0].IsRead {
		t.Error("bob has not read alice's message")
	}

	deleted, err := store.Get(ctx, groupID, second.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !deleted.IsDeleted || deleted.Message != models.DeletedMessageText {
		t.Errorf("soft delete: %+v", deleted)
	}
}

func TestStore_Edit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := chatstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID := primitive.NewObjectID()
	m := post(t, store, groupID, primitive.NewObjectID(), "typo")

	got, err := store.Edit(ctx, m.ID, "fixed")
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if got.Message != "fixed" || got.EditedAt == nil {
		t.Errorf("after edit: %+v", got)
	}

	if err := store.SoftDelete(ctx, m.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if _, err := store.Edit(ctx, m.ID, "again"); !errors.Is(err, chatstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound editing deleted message, got %v", err)
	}
}

func TestStore_Get_WrongGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := chatstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := post(t, store, primitive.NewObjectID(), primitive.NewObjectID(), "hi")
	if _, err := store.Get(ctx, primitive.NewObjectID(), m.ID); !errors.Is(err, chatstore.ErrWrongGroup) {
		t.Errorf("expected ErrWrongGroup, got %v", err)
	}
}

func TestStore_MarkAllRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := chatstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID, alice, bob := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	m1 := post(t, store, groupID, alice, "a")
	post(t, store, groupID, alice, "b")

	if err := store.MarkRead(ctx, groupID, m1.ID, bob); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	changed, err := store.MarkAllRead(ctx, groupID, bob)
	if err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	if changed != 1 {
		t.Errorf("changed: got %d, want 1", changed)
	}
	if n, _ := store.UnreadCount(ctx, groupID, bob); n != 0 {
		t.Errorf("unread after read-all: got %d", n)
	}
}
