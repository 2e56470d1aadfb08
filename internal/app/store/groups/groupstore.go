// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound          = errors.New("Group not found")
	ErrAlreadyLeads      = errors.New("You already lead a group. Students can only create one group.")
	ErrGroupFull         = errors.New("Group is full")
	ErrMaxMentors        = errors.New("This group already has the maximum number of mentors (2)")
	ErrAlreadyMentor     = errors.New("This professor already mentors this group")
	ErrInvalidMaxMembers = errors.New("Max members must be at least the current member count")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByLeader returns the group led by the given student profile.
func (s *Store) GetByLeader(ctx context.Context, studentID primitive.ObjectID) (models.Group, error) {
	return s.findOne(ctx, bson.M{"leader_id": studentID})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, filter).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Group{}, ErrNotFound
		}
		return models.Group{}, err
	}
	return g, nil
}

// Create inserts a group with its leader counted as the first member.
// The unique leader_id index enforces one group per leader.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	if g.MaxMembers < 1 {
		return models.Group{}, ErrInvalidMaxMembers
	}
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.CurrentMembers = 1
	g.HasMentor = false
	g.MentorID = nil
	g.MentorIDs = []primitive.ObjectID{}
	g.MentorCount = 0
	if g.NeededSkills == nil {
		g.NeededSkills = []string{}
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrAlreadyLeads
		}
		return models.Group{}, err
	}
	return g, nil
}

// List returns groups in creation order.
func (s *Store) List(ctx context.Context, w paging.Window) ([]models.Group, error) {
	return s.find(ctx, bson.M{}, w.FindOptions(bson.D{{Key: "_id", Value: 1}}))
}

// ByIDs returns the groups with the given ids in creation order.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Group, error) {
	if len(ids) == 0 {
		return []models.Group{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// MentoredBy returns the groups a professor mentors.
func (s *Store) MentoredBy(ctx context.Context, professorID primitive.ObjectID) ([]models.Group, error) {
	return s.find(ctx, bson.M{"mentor_ids": professorID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// All returns every group. The matcher scores the whole pool.
func (s *Store) All(ctx context.Context) ([]models.Group, error) {
	return s.find(ctx, bson.M{}, options.Find().SetLimit(paging.MaxLimit))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Group, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Group{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds optional group changes. Nil fields are left alone.
type Update struct {
	Name         *string
	Description  *string
	NeededSkills []string
	MaxMembers   *int
}

// Update applies u. Shrinking MaxMembers below the current member count
// fails with ErrInvalidMaxMembers.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, u Update) (models.Group, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	filter := bson.M{"_id": id}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.NeededSkills != nil {
		set["needed_skills"] = u.NeededSkills
	}
	if u.MaxMembers != nil {
		if *u.MaxMembers < 1 {
			return models.Group{}, ErrInvalidMaxMembers
		}
		set["max_members"] = *u.MaxMembers
		filter["current_members"] = bson.M{"$lte": *u.MaxMembers}
	}

	var g models.Group
	err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return models.Group{}, gerr
		}
		return models.Group{}, ErrInvalidMaxMembers
	}
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Delete removes a group by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// IncMembers adds one to current_members while the group has room.
func (s *Store) IncMembers(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "$expr": bson.M{"$lt": bson.A{"$current_members", "$max_members"}}},
		bson.M{"$inc": bson.M{"current_members": 1}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrGroupFull
	}
	return nil
}

// DecMembers removes one from current_members, never going below one.
func (s *Store) DecMembers(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "current_members": bson.M{"$gt": 1}},
		bson.M{"$inc": bson.M{"current_members": -1}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	return err
}

// AddMentor records professorID as a mentor while the group has fewer than
// MaxMentorsPerGroup. The first mentor also becomes mentor_id.
func (s *Store) AddMentor(ctx context.Context, id, professorID primitive.ObjectID) (models.Group, error) {
	filter := bson.M{
		"_id":          id,
		"mentor_count": bson.M{"$lt": models.MaxMentorsPerGroup},
		"mentor_ids":   bson.M{"$ne": professorID},
	}
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"mentor_ids":   bson.M{"$concatArrays": bson.A{bson.M{"$ifNull": bson.A{"$mentor_ids", bson.A{}}}, bson.A{professorID}}},
		"mentor_count": bson.M{"$add": bson.A{"$mentor_count", 1}},
		"mentor_id":    bson.M{"$ifNull": bson.A{"$mentor_id", professorID}},
		"has_mentor":   true,
		"updated_at":   time.Now().UTC(),
	}}}}

	var g models.Group
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cur, gerr := s.GetByID(ctx, id)
		if gerr != nil {
			return models.Group{}, gerr
		}
		for _, m := range cur.MentorIDs {
			if m == professorID {
				return models.Group{}, ErrAlreadyMentor
			}
		}
		return models.Group{}, ErrMaxMentors
	}
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// RemoveMentor drops professorID from the group's mentors and recomputes
// mentor_count, mentor_id, and has_mentor from what remains.
func (s *Store) RemoveMentor(ctx context.Context, id, professorID primitive.ObjectID) error {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"mentor_ids": bson.M{"$filter": bson.M{
				"input": bson.M{"$ifNull": bson.A{"$mentor_ids", bson.A{}}},
				"cond":  bson.M{"$ne": bson.A{"$$this", professorID}},
			}},
			"updated_at": time.Now().UTC(),
		}}},
		{{Key: "$set", Value: bson.M{
			"mentor_count": bson.M{"$size": "$mentor_ids"},
			"has_mentor":   bson.M{"$gt": bson.A{bson.M{"$size": "$mentor_ids"}, 0}},
			"mentor_id": bson.M{"$cond": bson.A{
				bson.M{"$gt": bson.A{bson.M{"$size": "$mentor_ids"}, 0}},
				bson.M{"$arrayElemAt": bson.A{"$mentor_ids", 0}},
				"$$REMOVE",
			}},
		}}},
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "mentor_ids": professorID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
