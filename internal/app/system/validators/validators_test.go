package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/researchhub/internal/app/system/validators"
	"github.com/dalemusser/researchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) *mongo.Database {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{
		"users", "students", "professors", "research_papers", "groups", "group_members",
		"group_invitations", "group_join_requests", "mentorship_requests", "notifications", "chat_messages",
	} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestValidators(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	oid := primitive.NewObjectID

	tests := []struct {
		name    string
		coll    string
		doc     bson.M
		wantErr bool
	}{
		{"user ok", "users", bson.M{"email": "a@b.edu", "email_ci": "a@b.edu", "hashed_password": "x", "name": "A", "role": "student"}, false},
		{"user bad role", "users", bson.M{"email": "a@b.edu", "email_ci": "a@b.edu", "hashed_password": "x", "name": "A", "role": "leader"}, true},
		{"user missing name", "users", bson.M{"email": "a@b.edu", "email_ci": "a@b.edu", "hashed_password": "x", "role": "admin"}, true},

		{"student ok", "students", bson.M{"user_id": oid(), "student_id": "S1", "gpa": 4.0}, false},
		{"student gpa too high", "students", bson.M{"user_id": oid(), "student_id": "S2", "gpa": 4.01}, true},
		{"student gpa negative", "students", bson.M{"user_id": oid(), "student_id": "S3", "gpa": -0.01}, true},

		{"professor ok", "professors", bson.M{"user_id": oid(), "professor_id": "P1", "available_slots": 2, "total_slots": 5}, false},
		{"professor available over total", "professors", bson.M{"user_id": oid(), "professor_id": "P2", "available_slots": 6, "total_slots": 5}, true},
		{"professor zero total", "professors", bson.M{"user_id": oid(), "professor_id": "P3", "available_slots": 0, "total_slots": 0}, true},

		{"group ok", "groups", bson.M{"name": "G", "leader_id": oid(), "current_members": 1, "max_members": 3, "has_mentor": false, "mentor_count": 0}, false},
		{"group over capacity", "groups", bson.M{"name": "G", "leader_id": oid(), "current_members": 4, "max_members": 3, "has_mentor": false, "mentor_count": 0}, true},
		{"group mentor flag without id", "groups", bson.M{"name": "G", "leader_id": oid(), "current_members": 1, "max_members": 3, "has_mentor": true, "mentor_count": 1}, true},
		{"group three mentors", "groups", bson.M{"name": "G", "leader_id": oid(), "current_members": 1, "max_members": 3, "has_mentor": true, "mentor_id": oid(), "mentor_count": 3}, true},

		{"member bad role", "group_members", bson.M{"group_id": oid(), "student_id": oid(), "role": "owner"}, true},

		{"invitation bad status", "group_invitations", bson.M{"group_id": oid(), "student_id": oid(), "status": "withdrawn", "created_at": now}, true},
		{"mentorship rejected with reason", "mentorship_requests", bson.M{"group_id": oid(), "professor_id": oid(), "status": "rejected", "rejection_reason": "full", "created_at": now}, false},
		{"mentorship rejected without reason", "mentorship_requests", bson.M{"group_id": oid(), "professor_id": oid(), "status": "rejected", "created_at": now}, true},

		{"notification bad type", "notifications", bson.M{"user_id": oid(), "type": "poke", "title": "t", "read": false, "created_at": now}, true},
		{"chat bad sender type", "chat_messages", bson.M{"group_id": oid(), "sender_id": oid(), "sender_type": "admin", "message": "hi", "created_at": now, "is_deleted": false}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := db.Collection(tc.coll).InsertOne(ctx, tc.doc)
			if (err != nil) != tc.wantErr {
				t.Errorf("insert into %s: err=%v, wantErr=%v", tc.coll, err, tc.wantErr)
			}
		})
	}
}
