// internal/app/system/matcher/matcher.go
//
// Package matcher ranks students, professors, or groups against a free-text
// query using keyword overlap plus a few profile bonuses.
package matcher

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TypeStudent   = "student"
	TypeProfessor = "professor"
	TypeGroup     = "group"

	MinQueryLen   = 5
	MaxCandidates = 10
)

var (
	ErrQueryTooShort    = errors.New("Query must be at least 5 characters long")
	ErrInvalidMatchType = errors.New("match_type must be student, professor, or group")
)

// NoCandidatesError is returned when the pool for a match type is empty.
type NoCandidatesError struct{ Type string }

func (e *NoCandidatesError) Error() string {
	return fmt.Sprintf("No %ss found in the database", e.Type)
}

// Candidate is one ranked profile.
type Candidate struct {
	ID      primitive.ObjectID `json:"id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Type    string             `json:"type"`
	Details map[string]any     `json:"details"`
	Score   float64            `json:"score"`

	hits []string
}

// Result is the outcome of Match.
type Result struct {
	Selected   Candidate   `json:"selected_candidate"`
	Candidates []Candidate `json:"candidates"`
	Reasoning  string      `json:"reasoning"`
	MatchType  string      `json:"match_type"`
}

// GroupEntry is a group with its leader's contact details.
type GroupEntry struct {
	Group       models.Group
	LeaderName  string
	LeaderEmail string
}

// Pool is the set of profiles Match may draw from. Only the slice for the
// resolved match type is read.
type Pool struct {
	Students   []models.StudentWithUser
	Professors []models.ProfessorWithUser
	Groups     []GroupEntry
}

var (
	professorWords = []string{"professor", "mentor", "advisor", "supervisor"}
	groupWords     = []string{"group", "team"}
)

// DetectType guesses what the query is looking for.
func DetectType(query string) string {
	q := text.Fold(query)
	for _, w := range professorWords {
		if strings.Contains(q, w) {
			return TypeProfessor
		}
	}
	for _, w := range groupWords {
		if strings.Contains(q, w) {
			return TypeGroup
		}
	}
	return TypeStudent
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "for": true, "with": true,
	"who": true, "that": true, "in": true, "on": true, "of": true, "to": true,
	"is": true, "are": true, "our": true, "my": true, "me": true, "we": true,
	"i": true, "need": true, "looking": true, "want": true, "find": true,
	"someone": true, "good": true, "strong": true, "can": true, "join": true,
	"student": true, "students": true, "professor": true, "professors": true,
	"mentor": true, "mentors": true, "advisor": true, "supervisor": true,
	"group": true, "groups": true, "team": true, "teams": true,
	"research": true, "experience": true, "knows": true, "skills": true,
}

// Keywords splits the query into folded, de-duplicated search terms.
func Keywords(query string) []string {
	fields := strings.FieldsFunc(text.Fold(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Resolve validates the query and returns the match type to use. An empty
// matchType is detected from the query.
func Resolve(query, matchType string) (string, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinQueryLen {
		return "", ErrQueryTooShort
	}
	matchType = strings.ToLower(strings.TrimSpace(matchType))
	switch matchType {
	case "":
		return DetectType(query), nil
	case TypeStudent, TypeProfessor, TypeGroup:
		return matchType, nil
	}
	return "", ErrInvalidMatchType
}

// Match ranks the pool for query. matchType may be empty, in which case it
// is detected from the query.
func Match(query, matchType string, pool Pool) (Result, error) {
	matchType, err := Resolve(query, matchType)
	if err != nil {
		return Result{}, err
	}
	query = strings.TrimSpace(query)

	kws := Keywords(query)
	var cands []Candidate
	switch matchType {
	case TypeStudent:
		for _, s := range pool.Students {
			cands = append(cands, scoreStudent(s, kws))
		}
	case TypeProfessor:
		for _, p := range pool.Professors {
			cands = append(cands, scoreProfessor(p, kws))
		}
	case TypeGroup:
		for _, g := range pool.Groups {
			cands = append(cands, scoreGroup(g, kws))
		}
	}
	if len(cands) == 0 {
		return Result{}, &NoCandidatesError{Type: matchType}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Name < cands[j].Name
	})
	if len(cands) > MaxCandidates {
		cands = cands[:MaxCandidates]
	}

	best := cands[0]
	return Result{
		Selected:   best,
		Candidates: cands,
		Reasoning:  reasoning(best),
		MatchType:  matchType,
	}, nil
}

func reasoning(c Candidate) string {
	if len(c.hits) == 0 {
		return fmt.Sprintf("No profile matched your keywords directly; %s was selected on availability and profile strength.", c.Name)
	}
	return fmt.Sprintf("%s matches your request on %s.", c.Name, strings.Join(c.hits, ", "))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Scoring                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	listHit  = 3.0 // keyword found in a skills / research-area list
	textHit  = 1.0 // keyword found in free text (major, bio, description)
	openSpot = 2.0
)

// overlap counts keywords contained in any list entry and records them.
func overlap(kws []string, list []string, hits *[]string) int {
	n := 0
	for _, k := range kws {
		for _, item := range list {
			if strings.Contains(text.Fold(item), k) {
				*hits = append(*hits, k)
				n++
				break
			}
		}
	}
	return n
}

func textOverlap(kws []string, fields ...string) int {
	joined := text.Fold(strings.Join(fields, " "))
	n := 0
	for _, k := range kws {
		if strings.Contains(joined, k) {
			n++
		}
	}
	return n
}

func scoreStudent(s models.StudentWithUser, kws []string) Candidate {
	c := Candidate{
		ID: s.ID, Name: s.Name, Email: s.Email, Type: TypeStudent,
		Details: map[string]any{
			"gpa":               s.GPA,
			"major":             s.Major,
			"year":              s.Year,
			"skills":            s.Skills,
			"bio":               s.Bio,
			"looking_for_group": s.LookingForGroup,
		},
	}
	c.Score += listHit * float64(overlap(kws, s.Skills, &c.hits))
	c.Score += textHit * float64(textOverlap(kws, s.Major, s.Faculty, s.Bio))
	c.Score += s.GPA / 4.0
	if s.LookingForGroup {
		c.Score += 1
	}
	return c
}

func scoreProfessor(p models.ProfessorWithUser, kws []string) Candidate {
	c := Candidate{
		ID: p.ID, Name: p.Name, Email: p.Email, Type: TypeProfessor,
		Details: map[string]any{
			"department":         p.Department,
			"field":              p.Field,
			"research_areas":     p.ResearchAreas,
			"research_interests": p.ResearchInterests,
			"bio":                p.Bio,
			"available_slots":    p.AvailableSlots,
			"total_slots":        p.TotalSlots,
			"publications":       p.Publications,
		},
	}
	areas := append(append([]string{}, p.ResearchAreas...), p.ResearchInterests...)
	c.Score += listHit * float64(overlap(kws, areas, &c.hits))
	c.Score += textHit * float64(textOverlap(kws, p.Field, p.Department, p.Bio))
	if p.AvailableSlots > 0 {
		c.Score += openSpot
	} else {
		c.Score -= 5
	}
	pubs := p.Publications
	if pubs > 50 {
		pubs = 50
	}
	c.Score += float64(pubs) / 50.0
	return c
}

func scoreGroup(g GroupEntry, kws []string) Candidate {
	c := Candidate{
		ID: g.Group.ID, Name: g.Group.Name, Email: g.LeaderEmail, Type: TypeGroup,
		Details: map[string]any{
			"description":     g.Group.Description,
			"needed_skills":   g.Group.NeededSkills,
			"current_members": g.Group.CurrentMembers,
			"max_members":     g.Group.MaxMembers,
			"has_mentor":      g.Group.HasMentor,
			"leader_name":     g.LeaderName,
		},
	}
	c.Score += listHit * float64(overlap(kws, g.Group.NeededSkills, &c.hits))
	c.Score += textHit * float64(textOverlap(kws, g.Group.Name, g.Group.Description))
	if !g.Group.IsFull() {
		c.Score += openSpot
	}
	return c
}
