package professorstore_test

import (
	"errors"
	"testing"

	professorstore "github.com/dalemusser/researchhub/internal/app/store/professors"
	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/researchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func intp(v int) *int { return &v }

func TestStore_Create_DefaultSlots(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := professorstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, err := store.Create(ctx, models.Professor{UserID: primitive.NewObjectID(), ProfessorID: "P1"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.TotalSlots != models.DefaultMentorSlots || p.AvailableSlots != models.DefaultMentorSlots {
		t.Errorf("slots: got %d/%d, want %d/%d", p.AvailableSlots, p.TotalSlots, models.DefaultMentorSlots, models.DefaultMentorSlots)
	}
	if p.ResearchAreas == nil {
		t.Error("expected ResearchAreas to be non-nil")
	}
}

func TestStore_Create_DuplicateProfessorID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := professorstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Professor{UserID: primitive.NewObjectID(), ProfessorID: "P9"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.Professor{UserID: primitive.NewObjectID(), ProfessorID: "P9"})
	if !errors.Is(err, professorstore.ErrDuplicateProfessorID) {
		t.Errorf("expected ErrDuplicateProfessorID, got %v", err)
	}
}

func TestStore_Update_TotalSlotsClampsAvailable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := professorstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, p := fixtures.CreateProfessor(ctx, "Grace Hopper", 5)

	got, err := store.Update(ctx, p.ID, professorstore.Update{TotalSlots: intp(2)})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.TotalSlots != 2 || got.AvailableSlots != 2 {
		t.Errorf("slots: got %d/%d, want 2/2", got.AvailableSlots, got.TotalSlots)
	}

	// Growing the total leaves available alone.
	got, err = store.Update(ctx, p.ID, professorstore.Update{TotalSlots: intp(8)})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.TotalSlots != 8 || got.AvailableSlots != 2 {
		t.Errorf("slots: got %d/%d, want 2/8", got.AvailableSlots, got.TotalSlots)
	}
}

func TestStore_Update_InvalidTotal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := professorstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, p := fixtures.CreateProfessor(ctx, "Alan Turing", 3)
	if _, err := store.Update(ctx, p.ID, professorstore.Update{TotalSlots: intp(0)}); !errors.Is(err, professorstore.ErrInvalidSlots) {
		t.Errorf("expected ErrInvalidSlots, got %v", err)
	}
}

func TestStore_Update_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := professorstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bio := "x"
	if _, err := store.Update(ctx, primitive.NewObjectID(), professorstore.Update{Bio: &bio}); !errors.Is(err, professorstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_TakeSlot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := professorstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, p := fixtures.CreateProfessor(ctx, "Barbara Liskov", 1)

	if err := store.TakeSlot(ctx, p.ID); err != nil {
		t.Fatalf("first TakeSlot failed: %v", err)
	}
	if err := store.TakeSlot(ctx, p.ID); !errors.Is(err, professorstore.ErrNoSlots) {
		t.Errorf("expected ErrNoSlots, got %v", err)
	}
	if err := store.TakeSlot(ctx, primitive.NewObjectID()); !errors.Is(err, professorstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing professor, got %v", err)
	}

	if err := store.ReleaseSlot(ctx, p.ID); err != nil {
		t.Fatalf("ReleaseSlot failed: %v", err)
	}
	if err := store.ReleaseSlot(ctx, p.ID); err != nil {
		t.Fatalf("ReleaseSlot failed: %v", err)
	}
	got, _ := store.GetByID(ctx, p.ID)
	if got.AvailableSlots != 1 {
		t.Errorf("AvailableSlots: got %d, want 1 (capped at total)", got.AvailableSlots)
	}
}

func TestStore_List_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := professorstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, full := fixtures.CreateProfessor(ctx, "Full Prof", 0)
	_, open := fixtures.CreateProfessor(ctx, "Open Prof", 2)

	got, err := store.List(ctx, professorstore.Filter{AvailableOnly: true}, paging.Window{Limit: 100})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != open.ID {
		t.Errorf("AvailableOnly: got %d rows, want only %s", len(got), open.ID.Hex())
	}
	if got[0].Name != "Open Prof" {
		t.Errorf("Name: got %q, want joined user name", got[0].Name)
	}

	got, err = store.List(ctx, professorstore.Filter{ResearchArea: "Machine"}, paging.Window{Limit: 100})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ResearchArea: got %d rows, want 2", len(got))
	}

	byID, err := store.ByIDs(ctx, []primitive.ObjectID{full.ID})
	if err != nil {
		t.Fatalf("ByIDs failed: %v", err)
	}
	if _, ok := byID[full.ID]; !ok || len(byID) != 1 {
		t.Errorf("ByIDs: got %v", byID)
	}
}
