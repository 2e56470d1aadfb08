package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/researchhub/internal/app/store/users"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/researchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Name:           "  Ada Lovelace ",
		Email:          " Ada@Example.COM ",
		Role:           "Student",
		HashedPassword: "hash",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "ada@example.com" {
		t.Errorf("Email: got %q, want %q", created.Email, "ada@example.com")
	}
	if created.Name != "Ada Lovelace" {
		t.Errorf("Name: got %q, want %q", created.Name, "Ada Lovelace")
	}
	if created.Role != models.RoleStudent {
		t.Errorf("Role: got %q, want %q", created.Role, models.RoleStudent)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{Name: "X", Email: "x@example.com", Role: "leader"})
	if err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Name: "A", Email: "dup@example.com", Role: "student"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{Name: "B", Email: "DUP@example.com", Role: "professor"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Grace Hopper", models.RoleProfessor)

	found, err := store.GetByEmail(ctx, "  "+u.Email+"  ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if found.ID != u.ID {
		t.Errorf("ID: got %v, want %v", found.ID, u.ID)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateUser(ctx, "Alpha", models.RoleStudent)
	b := fixtures.CreateUser(ctx, "Beta", models.RoleStudent)

	got, err := store.ByIDs(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("ByIDs failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d users, want 2", len(got))
	}
	if got[b.ID].Name != "Beta" {
		t.Errorf("Name: got %q, want %q", got[b.ID].Name, "Beta")
	}
	if got[a.ID].HashedPassword != "" {
		t.Error("expected password hash to be projected out")
	}
}

func TestStore_EnsureAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.EnsureAdmin(ctx, "root@example.com", "Root", "hash")
	if err != nil || !created {
		t.Fatalf("EnsureAdmin: got (%v, %v), want (true, nil)", created, err)
	}
	created, err = store.EnsureAdmin(ctx, "ROOT@example.com", "Root", "hash")
	if err != nil || created {
		t.Errorf("second EnsureAdmin: got (%v, %v), want (false, nil)", created, err)
	}

	// Existing non-admin users are promoted.
	u := fixtures.CreateUser(ctx, "Promote Me", models.RoleStudent)
	if _, err := store.EnsureAdmin(ctx, u.Email, "ignored", "hash"); err != nil {
		t.Fatalf("EnsureAdmin promote failed: %v", err)
	}
	got, _ := store.GetByID(ctx, u.ID)
	if got.Role != models.RoleAdmin {
		t.Errorf("Role: got %q, want %q", got.Role, models.RoleAdmin)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Fetch Me", models.RoleProfessor)
	f := userstore.NewFetcher(db)

	su, err := f.FetchUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("FetchUser failed: %v", err)
	}
	if su == nil || su.ID != u.ID.Hex() || su.Role != models.RoleProfessor {
		t.Errorf("unexpected session user: %+v", su)
	}

	missing, err := f.FetchUser(ctx, primitive.NewObjectID())
	if err != nil || missing != nil {
		t.Errorf("missing user: got (%v, %v), want (nil, nil)", missing, err)
	}
}
