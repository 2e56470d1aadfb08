// internal/app/store/mentorship/mentorshipstore.go
package mentorshipstore

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

// MaxPendingPerGroup caps how many requests a group may have outstanding.
const MaxPendingPerGroup = 2

// AutoRejectReason is recorded on pending requests closed because the
// group filled its mentor seats.
const AutoRejectReason = "Another professor was selected as mentor for this group."

var (
	ErrNotFound         = errors.New("Mentorship request not found")
	ErrDuplicatePending = errors.New("You already have a pending request to this professor")
	ErrReasonRequired   = errors.New("Rejection reason is required when rejecting a request")
	// ErrNotPending is returned with the current document when a transition
	// finds the request already accepted or rejected.
	ErrNotPending = errors.New("mentorship request is no longer pending")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("mentorship_requests")}
}

// Create inserts a pending request. A partial unique index allows one
// pending request per (group, professor).
func (s *Store) Create(ctx context.Context, r models.MentorshipRequest) (models.MentorshipRequest, error) {
	r.ID = primitive.NewObjectID()
	r.Status = models.StatusPending
	r.RejectionReason = ""
	r.RespondedAt = nil
	r.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.MentorshipRequest{}, ErrDuplicatePending
		}
		return models.MentorshipRequest{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.MentorshipRequest, error) {
	var r models.MentorshipRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.MentorshipRequest{}, ErrNotFound
		}
		return models.MentorshipRequest{}, err
	}
	return r, nil
}

// CountPendingForGroup returns the number of outstanding requests a group has.
func (s *Store) CountPendingForGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID, "status": models.StatusPending})
}

// HasPending reports whether the group already has a pending request to the professor.
func (s *Store) HasPending(ctx context.Context, groupID, professorID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"group_id":     groupID,
		"professor_id": professorID,
		"status":       models.StatusPending,
	})
	return n > 0, err
}

// ListForProfessor returns requests addressed to a professor, newest first,
// optionally filtered by status.
func (s *Store) ListForProfessor(ctx context.Context, professorID primitive.ObjectID, status string) ([]models.MentorshipRequest, error) {
	q := bson.M{"professor_id": professorID}
	if status != "" {
		q["status"] = status
	}
	return s.find(ctx, q)
}

// ListForGroup returns a group's requests, newest first.
func (s *Store) ListForGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.MentorshipRequest, error) {
	return s.find(ctx, bson.M{"group_id": groupID})
}

func (s *Store) find(ctx context.Context, q bson.M) ([]models.MentorshipRequest, error) {
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.MentorshipRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Accept moves a pending request to accepted.
func (s *Store) Accept(ctx context.Context, id primitive.ObjectID) (models.MentorshipRequest, error) {
	return s.transition(ctx, id, bson.M{"status": models.StatusAccepted})
}

// Reject moves a pending request to rejected. reason must be non-empty.
func (s *Store) Reject(ctx context.Context, id primitive.ObjectID, reason string) (models.MentorshipRequest, error) {
	if reason == "" {
		return models.MentorshipRequest{}, ErrReasonRequired
	}
	return s.transition(ctx, id, bson.M{"status": models.StatusRejected, "rejection_reason": reason})
}

func (s *Store) transition(ctx context.Context, id primitive.ObjectID, set bson.M) (models.MentorshipRequest, error) {
	set["responded_at"] = time.Now().UTC()
	var r models.MentorshipRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.StatusPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cur, gerr := s.GetByID(ctx, id)
		if gerr != nil {
			return models.MentorshipRequest{}, gerr
		}
		return cur, ErrNotPending
	}
	if err != nil {
		return models.MentorshipRequest{}, err
	}
	return r, nil
}

// RejectOtherPending closes every other pending request of the group with
// AutoRejectReason and returns the requests it closed.
func (s *Store) RejectOtherPending(ctx context.Context, groupID, keepID primitive.ObjectID) ([]models.MentorshipRequest, error) {
	filter := bson.M{
		"group_id": groupID,
		"status":   models.StatusPending,
		"_id":      bson.M{"$ne": keepID},
	}
	pending, err := s.find(ctx, filter)
	if err != nil {
		return nil, err
	}
	closed := make([]models.MentorshipRequest, 0, len(pending))
	for _, p := range pending {
		r, err := s.Reject(ctx, p.ID, AutoRejectReason)
		if errors.Is(err, ErrNotPending) {
			continue
		}
		if err != nil {
			return closed, err
		}
		closed = append(closed, r)
	}
	return closed, nil
}

// DeletePending withdraws a request while it is still pending.
func (s *Store) DeletePending(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "status": models.StatusPending})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrNotPending
	}
	return nil
}

// DeleteByGroup removes all requests for a group.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeletePendingForProfessor drops the unanswered requests addressed to a
// professor. Resolved requests are kept as history.
func (s *Store) DeletePendingForProfessor(ctx context.Context, professorID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"professor_id": professorID, "status": models.StatusPending})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
