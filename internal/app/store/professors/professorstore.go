// internal/app/store/professors/professorstore.go
package professorstore

import (
	"context"
	"errors"
	"regexp"

	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound             = errors.New("Professor not found")
	ErrDuplicateProfessorID = errors.New("Professor ID already registered")
	ErrNoSlots              = errors.New("This professor has no available mentorship slots")
	ErrInvalidSlots         = errors.New("Total slots must be at least 1")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("professors")}
}

// Create inserts a professor. Zero slot counts get DefaultMentorSlots and
// available_slots never starts above total_slots.
func (s *Store) Create(ctx context.Context, p models.Professor) (models.Professor, error) {
	p.ID = primitive.NewObjectID()
	if p.TotalSlots == 0 {
		p.TotalSlots = models.DefaultMentorSlots
	}
	if p.TotalSlots < 1 {
		return models.Professor{}, ErrInvalidSlots
	}
	if p.AvailableSlots == 0 || p.AvailableSlots > p.TotalSlots {
		p.AvailableSlots = p.TotalSlots
	}
	if p.ResearchAreas == nil {
		p.ResearchAreas = []string{}
	}
	if p.ResearchInterests == nil {
		p.ResearchInterests = []string{}
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Professor{}, ErrDuplicateProfessorID
		}
		return models.Professor{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Professor, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Professor, error) {
	return s.findOne(ctx, bson.M{"user_id": userID})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Professor, error) {
	var p models.Professor
	if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Professor{}, ErrNotFound
		}
		return models.Professor{}, err
	}
	return p, nil
}

// GetWithUser loads a professor joined with the user's name and email.
func (s *Store) GetWithUser(ctx context.Context, id primitive.ObjectID) (models.ProfessorWithUser, error) {
	rows, err := s.aggregate(ctx, bson.M{"_id": id}, paging.Window{Limit: 1})
	if err != nil {
		return models.ProfessorWithUser{}, err
	}
	if len(rows) == 0 {
		return models.ProfessorWithUser{}, ErrNotFound
	}
	return rows[0], nil
}

// Filter narrows List. Empty fields are ignored.
type Filter struct {
	Faculty       string
	ResearchArea  string
	AvailableOnly bool
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.Faculty != "" {
		q["faculty"] = f.Faculty
	}
	if f.ResearchArea != "" {
		q["research_areas"] = bson.M{"$regex": regexp.QuoteMeta(f.ResearchArea), "$options": "i"}
	}
	if f.AvailableOnly {
		q["available_slots"] = bson.M{"$gt": 0}
	}
	return q
}

// List returns professors matching f, ordered by professor_id.
func (s *Store) List(ctx context.Context, f Filter, w paging.Window) ([]models.ProfessorWithUser, error) {
	return s.aggregate(ctx, f.query(), w)
}

// All returns every professor. The matcher scores the whole pool.
func (s *Store) All(ctx context.Context) ([]models.ProfessorWithUser, error) {
	return s.aggregate(ctx, bson.M{}, paging.Window{Limit: paging.MaxLimit})
}

// ByIDs returns professors with user details keyed by professor id.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.ProfessorWithUser, error) {
	out := make(map[primitive.ObjectID]models.ProfessorWithUser, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.aggregate(ctx, bson.M{"_id": bson.M{"$in": ids}}, paging.Window{Limit: int64(len(ids))})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

func (s *Store) aggregate(ctx context.Context, match bson.M, w paging.Window) ([]models.ProfessorWithUser, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "professor_id", Value: 1}}}},
	}
	for _, st := range w.Stages() {
		pipeline = append(pipeline, st)
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "u",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$u", "preserveNullAndEmptyArrays": true}}},
		bson.D{{Key: "$addFields", Value: bson.M{"name": "$u.name", "email": "$u.email"}}},
		bson.D{{Key: "$project", Value: bson.M{"u": 0}}},
	)

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ProfessorWithUser{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds optional profile changes. Nil fields are left alone.
type Update struct {
	Faculty           *string
	Field             *string
	Department        *string
	ResearchAreas     []string
	ResearchInterests []string
	Achievements      *string
	Publications      *int
	Bio               *string
	AvailableSlots    *int
	TotalSlots        *int
}

// Update applies u. Changing TotalSlots clamps available_slots to the new
// total in the same write.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, u Update) (models.Professor, error) {
	if u.TotalSlots != nil && *u.TotalSlots < 1 {
		return models.Professor{}, ErrInvalidSlots
	}
	if u.AvailableSlots != nil && *u.AvailableSlots < 0 {
		return models.Professor{}, ErrInvalidSlots
	}

	set := bson.M{}
	if u.Faculty != nil {
		set["faculty"] = literal(*u.Faculty)
	}
	if u.Field != nil {
		set["field"] = literal(*u.Field)
	}
	if u.Department != nil {
		set["department"] = literal(*u.Department)
	}
	if u.ResearchAreas != nil {
		set["research_areas"] = literal(u.ResearchAreas)
	}
	if u.ResearchInterests != nil {
		set["research_interests"] = literal(u.ResearchInterests)
	}
	if u.Achievements != nil {
		set["achievements"] = literal(*u.Achievements)
	}
	if u.Publications != nil {
		set["publications"] = *u.Publications
	}
	if u.Bio != nil {
		set["bio"] = literal(*u.Bio)
	}

	total := "$total_slots"
	var totalVal interface{} = total
	if u.TotalSlots != nil {
		set["total_slots"] = *u.TotalSlots
		totalVal = *u.TotalSlots
	}
	var avail interface{} = "$available_slots"
	if u.AvailableSlots != nil {
		avail = *u.AvailableSlots
	}
	if u.TotalSlots != nil || u.AvailableSlots != nil {
		set["available_slots"] = bson.M{"$min": bson.A{avail, totalVal}}
	}

	if len(set) > 0 {
		// Pipeline-style update so the clamp sees the new total.
		res, err := s.c.UpdateByID(ctx, id, mongo.Pipeline{{{Key: "$set", Value: set}}})
		if err != nil {
			return models.Professor{}, err
		}
		if res.MatchedCount == 0 {
			return models.Professor{}, ErrNotFound
		}
	}
	return s.GetByID(ctx, id)
}

// TakeSlot decrements available_slots by one if any remain.
func (s *Store) TakeSlot(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "available_slots": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"available_slots": -1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrNoSlots
	}
	return nil
}

// ReleaseSlot gives a slot back, never exceeding total_slots.
func (s *Store) ReleaseSlot(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "$expr": bson.M{"$lt": bson.A{"$available_slots", "$total_slots"}}},
		bson.M{"$inc": bson.M{"available_slots": 1}},
	)
	return err
}

// Delete removes a professor profile. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// literal keeps user text that starts with "$" from being read as a field
// path inside a pipeline update.
func literal(v interface{}) bson.M { return bson.M{"$literal": v} }
