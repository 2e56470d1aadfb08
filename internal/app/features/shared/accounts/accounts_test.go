package accounts_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/researchhub/internal/app/features/shared/accounts"
	userstore "github.com/dalemusser/researchhub/internal/app/store/users"
	"github.com/dalemusser/researchhub/internal/app/system/authutil"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/researchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestUsername(t *testing.T) {
	if got := accounts.Username(" S001 "); got != "s001@research.edu" {
		t.Errorf("Username: got %q", got)
	}
}

func TestStudents_PartialBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := accounts.New(db, zap.NewNop())

	res := p.Students(ctx, []models.StudentAccount{
		{Name: "Alice", StudentID: "S001", GPA: 4.0, Major: "CS", Faculty: "Engineering", Year: "2", Skills: []string{"go"}},
		{Name: "Bob", StudentID: "S002", GPA: 4.01, Major: "CS", Faculty: "Engineering", Year: "2"},
		{Name: "Alice Again", StudentID: "S001", GPA: 3, Major: "CS", Faculty: "Engineering", Year: "2"},
	})

	if res.Success != 1 || res.Failed != 2 {
		t.Fatalf("got success=%d failed=%d, want 1/2 (errors: %v)", res.Success, res.Failed, res.Errors)
	}
	cred := res.Accounts[0]
	if cred.Username != "s001@research.edu" || cred.StudentID != "S001" || cred.Faculty != "Engineering" {
		t.Errorf("unexpected credential: %+v", cred)
	}
	if len(cred.Password) != 12 {
		t.Errorf("temp password length: got %d", len(cred.Password))
	}
	if !strings.HasPrefix(res.Errors[0], "S002: ") {
		t.Errorf("first error: got %q", res.Errors[0])
	}

	u, err := userstore.New(db).GetByEmail(ctx, cred.Username)
	if err != nil {
		t.Fatalf("created user not found: %v", err)
	}
	if !authutil.CheckPassword(cred.Password, u.HashedPassword) {
		t.Error("temp password does not match stored hash")
	}

	// The duplicate row must not leave an orphaned login behind.
	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n != 1 {
		t.Errorf("users: got %d, want 1", n)
	}
}

func TestCreateStudent_LookingForGroupDefault(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := accounts.New(db, zap.NewNop())

	no := false
	if _, err := p.CreateStudent(ctx, models.StudentAccount{Name: "Default", StudentID: "S10", GPA: 0}); err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if _, err := p.CreateStudent(ctx, models.StudentAccount{Name: "Busy", StudentID: "S11", GPA: 0, LookingForGroup: &no}); err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}

	var st models.Student
	_ = db.Collection("students").FindOne(ctx, bson.M{"student_id": "S10"}).Decode(&st)
	if !st.LookingForGroup {
		t.Error("S10 should default to looking_for_group=true")
	}
	_ = db.Collection("students").FindOne(ctx, bson.M{"student_id": "S11"}).Decode(&st)
	if st.LookingForGroup {
		t.Error("S11 should keep looking_for_group=false")
	}
}

func TestProfessors_DefaultSlotsAndExplicitLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := accounts.New(db, zap.NewNop())

	res := p.Professors(ctx, []models.ProfessorAccount{
		{Name: "Dr. Chen", ProfessorID: "P001", Faculty: "CS", Field: "ML", Department: "AI", Email: "Chen@Uni.edu", Password: "chosen-pass"},
		{Name: "", ProfessorID: "P002"},
	})
	if res.Success != 1 || res.Failed != 1 {
		t.Fatalf("got success=%d failed=%d (errors: %v)", res.Success, res.Failed, res.Errors)
	}
	if res.Accounts[0].Username != "chen@uni.edu" || res.Accounts[0].Password != "chosen-pass" {
		t.Errorf("unexpected credential: %+v", res.Accounts[0])
	}

	var prof models.Professor
	if err := db.Collection("professors").FindOne(ctx, bson.M{"professor_id": "P001"}).Decode(&prof); err != nil {
		t.Fatalf("professor not created: %v", err)
	}
	if prof.TotalSlots != models.DefaultMentorSlots || prof.AvailableSlots != models.DefaultMentorSlots {
		t.Errorf("slots: got %d/%d", prof.AvailableSlots, prof.TotalSlots)
	}
}
