// internal/app/store/research/researchstore.go
package researchstore

import (
	"context"
	"errors"

	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound         = errors.New("Research paper not found")
	ErrDuplicatePaperID = errors.New("Paper ID already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("research_papers")}
}

func (s *Store) Create(ctx context.Context, p models.ResearchPaper) (models.ResearchPaper, error) {
	p.ID = primitive.NewObjectID()
	if p.ProfessorIDs == nil {
		p.ProfessorIDs = []primitive.ObjectID{}
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ResearchPaper{}, ErrDuplicatePaperID
		}
		return models.ResearchPaper{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.ResearchPaper, error) {
	var p models.ResearchPaper
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ResearchPaper{}, ErrNotFound
		}
		return models.ResearchPaper{}, err
	}
	return p, nil
}

// Filter narrows List. Zero values are ignored.
type Filter struct {
	Faculty string
	Year    int
}

func (s *Store) List(ctx context.Context, f Filter, w paging.Window) ([]models.ResearchPaper, error) {
	q := bson.M{}
	if f.Faculty != "" {
		q["faculty"] = f.Faculty
	}
	if f.Year != 0 {
		q["year"] = f.Year
	}
	cur, err := s.c.Find(ctx, q, w.FindOptions(bson.D{{Key: "year", Value: -1}, {Key: "rank", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ResearchPaper{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds optional field changes. Nil fields are left alone; a non-nil
// ProfessorIDs replaces the whole list.
type Update struct {
	GroupName    *string
	Topic        *string
	Description  *string
	Abstract     *string
	Faculty      *string
	Year         *int
	Rank         *int
	Members      *int
	Leader       *string
	PaperPath    *string
	ProfessorIDs []primitive.ObjectID
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, u Update) (models.ResearchPaper, error) {
	set := bson.M{}
	str := map[string]*string{
		"group_name":  u.GroupName,
		"topic":       u.Topic,
		"description": u.Description,
		"abstract":    u.Abstract,
		"faculty":     u.Faculty,
		"leader":      u.Leader,
		"paper_path":  u.PaperPath,
	}
	for k, v := range str {
		if v != nil {
			set[k] = *v
		}
	}
	ints := map[string]*int{"year": u.Year, "rank": u.Rank, "members": u.Members}
	for k, v := range ints {
		if v != nil {
			set[k] = *v
		}
	}
	if u.ProfessorIDs != nil {
		set["professor_ids"] = u.ProfessorIDs
	}

	if len(set) > 0 {
		res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
		if err != nil {
			return models.ResearchPaper{}, err
		}
		if res.MatchedCount == 0 {
			return models.ResearchPaper{}, ErrNotFound
		}
	}
	return s.GetByID(ctx, id)
}

// Delete removes a paper. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
