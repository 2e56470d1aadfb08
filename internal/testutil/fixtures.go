package testutil

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plaintext password of every fixture user.
const FixturePassword = "password123"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with FixturePassword. The email is made
// unique by suffixing the new id.
func (f *Fixtures) CreateUser(ctx context.Context, name, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	id := primitive.NewObjectID()
	email := fmt.Sprintf("%s.%s@test.edu", strings.ReplaceAll(text.Fold(name), " ", "."), id.Hex()[18:])
	u := models.User{
		ID:             id,
		Email:          email,
		EmailCI:        text.Fold(email),
		HashedPassword: string(hash),
		Name:           name,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateStudent inserts a student user and profile.
func (f *Fixtures) CreateStudent(ctx context.Context, name string) (models.User, models.Student) {
	f.t.Helper()

	u := f.CreateUser(ctx, name, models.RoleStudent)
	s := models.Student{
		ID:              primitive.NewObjectID(),
		UserID:          u.ID,
		StudentID:       "S" + u.ID.Hex()[16:],
		GPA:             3.5,
		Major:           "Computer Science",
		Faculty:         "Engineering",
		Year:            "3",
		Skills:          []string{"python", "react"},
		LookingForGroup: true,
	}
	if _, err := f.db.Collection("students").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return u, s
}

// CreateProfessor inserts a professor user and profile with the given slots.
func (f *Fixtures) CreateProfessor(ctx context.Context, name string, slots int) (models.User, models.Professor) {
	f.t.Helper()

	u := f.CreateUser(ctx, name, models.RoleProfessor)
	p := models.Professor{
		ID:                primitive.NewObjectID(),
		UserID:            u.ID,
		ProfessorID:       "P" + u.ID.Hex()[16:],
		Faculty:           "Engineering",
		Field:             "Computer Science",
		Department:        "CS",
		ResearchAreas:     []string{"machine learning"},
		ResearchInterests: []string{"data"},
		AvailableSlots:    slots,
		TotalSlots:        slots,
	}
	if _, err := f.db.Collection("professors").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test professor: %v", err)
	}
	return u, p
}

// CreateGroup inserts a group led by leader together with the leader's
// membership row.
func (f *Fixtures) CreateGroup(ctx context.Context, leader models.Student, name string, maxMembers int) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:             primitive.NewObjectID(),
		Name:           name,
		LeaderID:       leader.ID,
		Description:    "Fixture group",
		NeededSkills:   []string{"go"},
		CurrentMembers: 1,
		MaxMembers:     maxMembers,
		MentorIDs:      []primitive.ObjectID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	f.insertMember(ctx, g.ID, leader.ID, models.MemberRoleLeader)
	return g
}

// AddMember adds student to g and bumps current_members.
func (f *Fixtures) AddMember(ctx context.Context, groupID, studentID primitive.ObjectID) {
	f.t.Helper()

	f.insertMember(ctx, groupID, studentID, models.MemberRoleMember)
	if _, err := f.db.Collection("groups").UpdateByID(ctx, groupID, bson.M{"$inc": bson.M{"current_members": 1}}); err != nil {
		f.t.Fatalf("failed to bump member count: %v", err)
	}
}

func (f *Fixtures) insertMember(ctx context.Context, groupID, studentID primitive.ObjectID, role string) {
	f.t.Helper()

	m := models.GroupMember{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		StudentID: studentID,
		Role:      role,
		JoinedAt:  time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
}
