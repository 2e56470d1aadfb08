// internal/client/people.go
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StudentsService struct{ c *Client }

// StudentFilter narrows GET /students.
type StudentFilter struct {
	Page
	Faculty         string
	Year            string
	Skill           string
	LookingForGroup *bool
}

func (s *StudentsService) List(ctx context.Context, f StudentFilter) ([]models.StudentWithUser, error) {
	q := f.values()
	setIf(q, "faculty", f.Faculty)
	setIf(q, "year", f.Year)
	setIf(q, "skill", f.Skill)
	if f.LookingForGroup != nil {
		q.Set("looking_for_group", fmt.Sprint(*f.LookingForGroup))
	}
	var out []models.StudentWithUser
	err := s.c.do(ctx, http.MethodGet, "/students", q, nil, &out)
	return out, err
}

func (s *StudentsService) Get(ctx context.Context, id primitive.ObjectID) (models.StudentWithUser, error) {
	var out models.StudentWithUser
	err := s.c.do(ctx, http.MethodGet, "/students/"+id.Hex(), nil, nil, &out)
	return out, err
}

// Bulk creates accounts for rows. Rows fail independently.
func (s *StudentsService) Bulk(ctx context.Context, rows []models.StudentAccount) (models.BulkResult, error) {
	var out models.BulkResult
	err := s.c.do(ctx, http.MethodPost, "/students/bulk", nil, map[string]any{"accounts": rows}, &out)
	return out, err
}

type ProfessorsService struct{ c *Client }

// ProfessorFilter narrows GET /professors.
type ProfessorFilter struct {
	Page
	Faculty       string
	ResearchArea  string
	AvailableOnly bool
}

func (s *ProfessorsService) List(ctx context.Context, f ProfessorFilter) ([]models.ProfessorWithUser, error) {
	q := f.values()
	setIf(q, "faculty", f.Faculty)
	setIf(q, "research_area", f.ResearchArea)
	if f.AvailableOnly {
		q.Set("available_only", "true")
	}
	var out []models.ProfessorWithUser
	err := s.c.do(ctx, http.MethodGet, "/professors", q, nil, &out)
	return out, err
}

func (s *ProfessorsService) Get(ctx context.Context, id primitive.ObjectID) (models.ProfessorWithUser, error) {
	var out models.ProfessorWithUser
	err := s.c.do(ctx, http.MethodGet, "/professors/"+id.Hex(), nil, nil, &out)
	return out, err
}

func (s *ProfessorsService) Bulk(ctx context.Context, rows []models.ProfessorAccount) (models.BulkResult, error) {
	var out models.BulkResult
	err := s.c.do(ctx, http.MethodPost, "/professors/bulk", nil, map[string]any{"accounts": rows}, &out)
	return out, err
}

type ResearchService struct{ c *Client }

func (s *ResearchService) List(ctx context.Context, faculty string, year int, p Page) ([]models.ResearchPaper, error) {
	q := p.values()
	setIf(q, "faculty", faculty)
	if year > 0 {
		q.Set("year", fmt.Sprint(year))
	}
	var out []models.ResearchPaper
	err := s.c.do(ctx, http.MethodGet, "/research", q, nil, &out)
	return out, err
}

type MatchingService struct{ c *Client }

// MatchCandidate is one ranked profile.
type MatchCandidate struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Type    string         `json:"type"`
	Details map[string]any `json:"details"`
	Score   float64        `json:"score"`
}

// MatchResult is the response of POST /matching/match.
type MatchResult struct {
	Selected   MatchCandidate   `json:"selected_candidate"`
	Candidates []MatchCandidate `json:"candidates"`
	Reasoning  string           `json:"reasoning"`
	MatchType  string           `json:"match_type"`
}

// Match ranks profiles for query. matchType may be empty.
func (s *MatchingService) Match(ctx context.Context, query, matchType string) (MatchResult, error) {
	var out MatchResult
	body := map[string]string{"query": query}
	if matchType != "" {
		body["match_type"] = matchType
	}
	err := s.c.do(ctx, http.MethodPost, "/matching/match", nil, body, &out)
	return out, err
}

func setIf(q url.Values, key, val string) {
	if val != "" {
		q.Set(key, val)
	}
}
