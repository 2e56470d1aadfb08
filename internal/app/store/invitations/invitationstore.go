// internal/app/store/invitations/invitationstore.go
package invitationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/researchhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound         = errors.New("Invitation not found")
	ErrDuplicatePending = errors.New("This student already has a pending invitation to this group")
	// ErrNotPending is returned with the current document when a resolve
	// finds the invitation already accepted or rejected.
	ErrNotPending = errors.New("invitation is no longer pending")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_invitations")}
}

// Create inserts a pending invitation. A partial unique index allows only
// one pending invitation per (group, student).
func (s *Store) Create(ctx context.Context, groupID, studentID primitive.ObjectID, message string) (models.GroupInvitation, error) {
	inv := models.GroupInvitation{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		StudentID: studentID,
		Message:   message,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupInvitation{}, ErrDuplicatePending
		}
		return models.GroupInvitation{}, err
	}
	return inv, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupInvitation, error) {
	var inv models.GroupInvitation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.GroupInvitation{}, ErrNotFound
		}
		return models.GroupInvitation{}, err
	}
	return inv, nil
}

// HasPending reports whether a pending invitation exists for the pair.
func (s *Store) HasPending(ctx context.Context, groupID, studentID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"group_id": groupID, "student_id": studentID, "status": models.StatusPending})
	return n > 0, err
}

// ListForStudent returns every invitation sent to a student, newest first.
func (s *Store) ListForStudent(ctx context.Context, studentID primitive.ObjectID) ([]models.GroupInvitation, error) {
	return s.find(ctx, bson.M{"student_id": studentID})
}

// ListForGroup returns a group's invitations, optionally filtered by status.
func (s *Store) ListForGroup(ctx context.Context, groupID primitive.ObjectID, status string) ([]models.GroupInvitation, error) {
	q := bson.M{"group_id": groupID}
	if status != "" {
		q["status"] = status
	}
	return s.find(ctx, q)
}

func (s *Store) find(ctx context.Context, q bson.M) ([]models.GroupInvitation, error) {
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.GroupInvitation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve moves a pending invitation to status. Only one caller can win:
// the update is conditional on status still being pending.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, status string) (models.GroupInvitation, error) {
	now := time.Now().UTC()
	var inv models.GroupInvitation
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.StatusPending},
		bson.M{"$set": bson.M{"status": status, "responded_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cur, gerr := s.GetByID(ctx, id)
		if gerr != nil {
			return models.GroupInvitation{}, gerr
		}
		return cur, ErrNotPending
	}
	if err != nil {
		return models.GroupInvitation{}, err
	}
	return inv, nil
}

// DeleteByGroup removes all invitations for a group.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
