// internal/app/store/joinrequests/joinrequeststore.go
package joinrequeststore

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
	ErrNotFound         = errors.New("Join request not found")
	ErrDuplicatePending = errors.New("You already have a pending join request for this group")
	// ErrNotPending is returned with the current document when a resolve
	// finds the join request already accepted or rejected.
	ErrNotPending = errors.New("join request is no longer pending")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_join_requests")}
}

// Create inserts a pending join request. A partial unique index allows only
// one pending join request per (group, student).
func (s *Store) Create(ctx context.Context, groupID, studentID primitive.ObjectID, message string) (models.GroupJoinRequest, error) {
	jr := models.GroupJoinRequest{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		StudentID: studentID,
		Message:   message,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, jr); err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupJoinRequest{}, ErrDuplicatePending
		}
		return models.GroupJoinRequest{}, err
	}
	return jr, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupJoinRequest, error) {
	var jr models.GroupJoinRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&jr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.GroupJoinRequest{}, ErrNotFound
		}
		return models.GroupJoinRequest{}, err
	}
	return jr, nil
}

// HasPending reports whether a pending join request exists for the pair.
func (s *Store) HasPending(ctx context.Context, groupID, studentID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"group_id": groupID, "student_id": studentID, "status": models.StatusPending})
	return n > 0, err
}

// ListForStudent returns a student's join requests, newest first.
func (s *Store) ListForStudent(ctx context.Context, studentID primitive.ObjectID) ([]models.GroupJoinRequest, error) {
	return s.find(ctx, bson.M{"student_id": studentID})
}

// ListForGroup returns a group's join requests, optionally filtered by status.
func (s *Store) ListForGroup(ctx context.Context, groupID primitive.ObjectID, status string) ([]models.GroupJoinRequest, error) {
	q := bson.M{"group_id": groupID}
	if status != "" {
		q["status"] = status
	}
	return s.find(ctx, q)
}

func (s *Store) find(ctx context.Context, q bson.M) ([]models.GroupJoinRequest, error) {
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.GroupJoinRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve moves a pending join request to status. Only one caller can win:
// the update is conditional on status still being pending.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, status string) (models.GroupJoinRequest, error) {
	now := time.Now().UTC()
	var jr models.GroupJoinRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.StatusPending},
		bson.M{"$set": bson.M{"status": status, "responded_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&jr)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cur, gerr := s.GetByID(ctx, id)
		if gerr != nil {
			return models.GroupJoinRequest{}, gerr
		}
		return cur, ErrNotPending
	}
	if err != nil {
		return models.GroupJoinRequest{}, err
	}
	return jr, nil
}

// DeleteByGroup removes all join requests for a group.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
