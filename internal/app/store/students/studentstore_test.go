package studentstore_test

import (
	"errors"
	"testing"

	studentstore "github.com/dalemusser/researchhub/internal/app/store/students"
	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/researchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_DuplicateStudentID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first := models.Student{UserID: primitive.NewObjectID(), StudentID: "S100", GPA: 3.2}
	if _, err := store.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	second := models.Student{UserID: primitive.NewObjectID(), StudentID: "S100", GPA: 3.0}
	if _, err := store.Create(ctx, second); !errors.Is(err, studentstore.ErrDuplicateStudentID) {
		t.Errorf("expected ErrDuplicateStudentID, got %v", err)
	}
}

func TestStore_Create_GPABounds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		gpa     float64
		wantErr bool
	}{
		{0, false},
		{4.0, false},
		{4.01, true},
		{-0.01, true},
	}
	for i, tc := range tests {
		_, err := store.Create(ctx, models.Student{
			UserID:    primitive.NewObjectID(),
			StudentID: primitive.NewObjectID().Hex(),
			GPA:       tc.gpa,
		})
		if gotErr := errors.Is(err, studentstore.ErrInvalidGPA); gotErr != tc.wantErr {
			t.Errorf("case %d gpa=%v: got err %v, wantErr %v", i, tc.gpa, err, tc.wantErr)
		}
	}
}

func TestStore_GetWithUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, s := fixtures.CreateStudent(ctx, "Ada Lovelace")

	got, err := store.GetWithUser(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetWithUser failed: %v", err)
	}
	if got.Name != u.Name {
		t.Errorf("Name: got %q, want %q", got.Name, u.Name)
	}
	if got.Email != u.Email {
		t.Errorf("Email: got %q, want %q", got.Email, u.Email)
	}
	if got.StudentID != s.StudentID {
		t.Errorf("StudentID: got %q, want %q", got.StudentID, s.StudentID)
	}
}

func TestStore_List_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, a := fixtures.CreateStudent(ctx, "Alpha")
	_, b := fixtures.CreateStudent(ctx, "Beta")

	no := false
	if _, err := store.Update(ctx, b.ID, studentstore.Update{Skills: []string{"Java"}, LookingForGroup: &no}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.List(ctx, studentstore.Filter{Skill: "PYTH"}, paging.Window{Limit: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("skill filter: got %d rows, want only Alpha", len(got))
	}

	yes := true
	got, err = store.List(ctx, studentstore.Filter{LookingForGroup: &yes}, paging.Window{Limit: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("looking_for_group filter: got %d rows, want only Alpha", len(got))
	}

	got, err = store.List(ctx, studentstore.Filter{}, paging.Window{Skip: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("skip: got %d rows, want 1", len(got))
	}
}

func TestStore_Update_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	major := "Physics"
	_, err := store.Update(ctx, primitive.NewObjectID(), studentstore.Update{Major: &major})
	if !errors.Is(err, studentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := studentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, a := fixtures.CreateStudent(ctx, "Alpha")
	_, b := fixtures.CreateStudent(ctx, "Beta")

	got, err := store.ByIDs(ctx, []primitive.ObjectID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("ByIDs failed: %v", err)
	}
	if got[a.ID].Name != "Alpha" || got[b.ID].Name != "Beta" {
		t.Errorf("unexpected names: %q, %q", got[a.ID].Name, got[b.ID].Name)
	}
}
