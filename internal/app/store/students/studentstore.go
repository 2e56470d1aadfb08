// internal/app/store/students/studentstore.go
package studentstore

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
	ErrNotFound           = errors.New("Student not found")
	ErrDuplicateStudentID = errors.New("Student ID already registered")
	ErrInvalidGPA         = errors.New("GPA must be between 0 and 4.0")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("students")}
}

// ValidGPA reports whether gpa is on the 0-4.0 scale.
func ValidGPA(gpa float64) bool { return gpa >= 0 && gpa <= 4.0 }

func (s *Store) Create(ctx context.Context, st models.Student) (models.Student, error) {
	if !ValidGPA(st.GPA) {
		return models.Student{}, ErrInvalidGPA
	}
	st.ID = primitive.NewObjectID()
	if st.Skills == nil {
		st.Skills = []string{}
	}
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Student{}, ErrDuplicateStudentID
		}
		return models.Student{}, err
	}
	return st, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Student, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Student, error) {
	return s.findOne(ctx, bson.M{"user_id": userID})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Student, error) {
	var st models.Student
	if err := s.c.FindOne(ctx, filter).Decode(&st); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Student{}, ErrNotFound
		}
		return models.Student{}, err
	}
	return st, nil
}

// GetWithUser loads a student joined with the user's name and email.
func (s *Store) GetWithUser(ctx context.Context, id primitive.ObjectID) (models.StudentWithUser, error) {
	rows, err := s.aggregate(ctx, bson.M{"_id": id}, paging.Window{Limit: 1})
	if err != nil {
		return models.StudentWithUser{}, err
	}
	if len(rows) == 0 {
		return models.StudentWithUser{}, ErrNotFound
	}
	return rows[0], nil
}

// Filter narrows List. Empty fields are ignored.
type Filter struct {
	Faculty         string
	Year            string
	Skill           string
	LookingForGroup *bool
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.Faculty != "" {
		q["faculty"] = f.Faculty
	}
	if f.Year != "" {
		q["year"] = f.Year
	}
	if f.Skill != "" {
		q["skills"] = bson.M{"$regex": regexp.QuoteMeta(f.Skill), "$options": "i"}
	}
	if f.LookingForGroup != nil {
		q["looking_for_group"] = *f.LookingForGroup
	}
	return q
}

// List returns students matching f, ordered by student_id.
func (s *Store) List(ctx context.Context, f Filter, w paging.Window) ([]models.StudentWithUser, error) {
	return s.aggregate(ctx, f.query(), w)
}

// ByIDs returns students with user details keyed by student id.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.StudentWithUser, error) {
	out := make(map[primitive.ObjectID]models.StudentWithUser, len(ids))
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

func (s *Store) aggregate(ctx context.Context, match bson.M, w paging.Window) ([]models.StudentWithUser, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "student_id", Value: 1}}}},
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

	out := []models.StudentWithUser{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds optional profile changes. Nil fields are left alone.
type Update struct {
	GPA             *float64
	Major           *string
	Faculty         *string
	Year            *string
	Skills          []string
	Bio             *string
	LookingForGroup *bool
}

func (u Update) set() bson.M {
	set := bson.M{}
	if u.GPA != nil {
		set["gpa"] = *u.GPA
	}
	if u.Major != nil {
		set["major"] = *u.Major
	}
	if u.Faculty != nil {
		set["faculty"] = *u.Faculty
	}
	if u.Year != nil {
		set["year"] = *u.Year
	}
	if u.Skills != nil {
		set["skills"] = u.Skills
	}
	if u.Bio != nil {
		set["bio"] = *u.Bio
	}
	if u.LookingForGroup != nil {
		set["looking_for_group"] = *u.LookingForGroup
	}
	return set
}

// Update applies u and returns the updated student.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, u Update) (models.Student, error) {
	if u.GPA != nil && !ValidGPA(*u.GPA) {
		return models.Student{}, ErrInvalidGPA
	}
	if set := u.set(); len(set) > 0 {
		res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
		if err != nil {
			return models.Student{}, err
		}
		if res.MatchedCount == 0 {
			return models.Student{}, ErrNotFound
		}
	}
	return s.GetByID(ctx, id)
}

// Delete removes a student profile. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// All returns every student profile. The matcher scores the whole pool.
func (s *Store) All(ctx context.Context) ([]models.StudentWithUser, error) {
	return s.aggregate(ctx, bson.M{}, paging.Window{Limit: paging.MaxLimit})
}
