// Package csvimport turns admin CSV uploads into bulk account rows.
package csvimport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dalemusser/researchhub/internal/app/system/csvutil"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.uber.org/zap"
)

// Kind selects the account type of an upload.
type Kind string

const (
	Students   Kind = "student"
	Professors Kind = "professor"
)

// DefaultTotalSlots applies when a professor row leaves total_slots blank.
const DefaultTotalSlots = 5

var ErrUnknownKind = errors.New("account type must be student or professor")

var required = map[Kind][]string{
	Students:   {"name", "student_id", "gpa", "major", "faculty", "year"},
	Professors: {"name", "professor_id", "faculty", "field", "department"},
}

// RowError is one validation failure, reported as "Row n: msg".
type RowError struct {
	Row int
	Msg string
}

func (e RowError) Error() string { return fmt.Sprintf("Row %d: %s", e.Row, e.Msg) }

// RowErrors collects every problem found in a file.
type RowErrors []RowError

func (es RowErrors) Error() string {
	lines := make([]string, len(es))
	for i, e := range es {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

// Batch is a parsed upload. Exactly one of Students or Professors is set.
type Batch struct {
	Kind       Kind
	Students   []models.StudentAccount
	Professors []models.ProfessorAccount
}

// Len reports the number of rows in the batch.
func (b Batch) Len() int {
	if b.Kind == Students {
		return len(b.Students)
	}
	return len(b.Professors)
}

// Parse reads an upload of the given kind. When any row fails validation the
// returned error is a RowErrors listing all of them and the batch is empty.
func Parse(r io.Reader, kind Kind) (Batch, error) {
	fields, ok := required[kind]
	if !ok {
		return Batch{}, ErrUnknownKind
	}
	tbl, err := csvutil.ReadTable(r)
	if err != nil {
		return Batch{}, err
	}

	var errs RowErrors
	b := Batch{Kind: kind}
	for _, row := range tbl.Rows {
		var rowErrs RowErrors
		for _, f := range fields {
			if row.Get(f) == "" {
				rowErrs = append(rowErrs, RowError{row.Num, "Missing " + f})
			}
		}
		switch kind {
		case Students:
			acct, more := studentRow(row)
			rowErrs = append(rowErrs, more...)
			if len(rowErrs) == 0 {
				b.Students = append(b.Students, acct)
			}
		case Professors:
			acct, more := professorRow(row)
			rowErrs = append(rowErrs, more...)
			if len(rowErrs) == 0 {
				b.Professors = append(b.Professors, acct)
			}
		}
		errs = append(errs, rowErrs...)
	}
	if len(errs) > 0 {
		return Batch{Kind: kind}, errs
	}
	return b, nil
}

// ValidGPA reports whether v lies in [0, 4.0].
func ValidGPA(v float64) bool { return v >= 0 && v <= 4.0 }

func studentRow(row csvutil.Row) (models.StudentAccount, RowErrors) {
	var errs RowErrors
	acct := models.StudentAccount{
		Name:      row.Get("name"),
		StudentID: row.Get("student_id"),
		Major:     row.Get("major"),
		Faculty:   row.Get("faculty"),
		Year:      row.Get("year"),
		Skills:    splitList(row.Get("skills")),
		Bio:       row.Get("bio"),
	}
	if raw := row.Get("gpa"); raw != "" {
		gpa, err := strconv.ParseFloat(raw, 64)
		if err != nil || !ValidGPA(gpa) {
			errs = append(errs, RowError{row.Num, "Invalid GPA (must be 0-4.0)"})
		}
		acct.GPA = gpa
	}
	lfg := true
	if raw := row.Get("looking_for_group"); raw != "" {
		lfg = raw == "true" || raw == "1" || raw == "TRUE"
	}
	acct.LookingForGroup = &lfg
	return acct, errs
}

func professorRow(row csvutil.Row) (models.ProfessorAccount, RowErrors) {
	var errs RowErrors
	acct := models.ProfessorAccount{
		Name:              row.Get("name"),
		ProfessorID:       row.Get("professor_id"),
		Faculty:           row.Get("faculty"),
		Field:             row.Get("field"),
		Department:        row.Get("department"),
		ResearchAreas:     splitList(row.Get("research_areas")),
		ResearchInterests: splitList(row.Get("research_interests")),
		Achievements:      row.Get("achievements"),
		Bio:               row.Get("bio"),
		TotalSlots:        DefaultTotalSlots,
	}
	if raw := row.Get("publications"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, RowError{row.Num, "Invalid publications count"})
		}
		acct.Publications = n
	}
	if raw := row.Get("total_slots"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs = append(errs, RowError{row.Num, "Invalid total_slots"})
		}
		acct.TotalSlots = n
	}
	return acct, errs
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var templates = map[Kind][][]string{
	Students: {
		{"name", "student_id", "gpa", "major", "faculty", "year", "skills", "bio", "looking_for_group"},
		{"Nguyen Van A", "S001", "3.8", "Computer Science", "FAST", "2021", "Python;JavaScript;React", "Passionate about AI and ML", "true"},
	},
	Professors: {
		{"name", "professor_id", "faculty", "field", "department", "research_areas", "research_interests", "achievements", "publications", "bio", "total_slots"},
		{"Dr. Nguyen Van A", "P001", "FAST", "Machine Learning", "Computer Science", "AI;Deep Learning;Computer Vision", "Neural Networks;NLP", "IEEE Fellow and multiple awards", "25", "Expert in AI research and neural networks", "5"},
	},
}

// Template returns a CSV file with the expected header and one sample row.
func Template(kind Kind) ([]byte, error) {
	t, ok := templates[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	var buf bytes.Buffer
	if err := csvutil.WriteTemplate(&buf, t[0], t[1:]); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Uploader submits validated rows. client.Students and client.Professors
// satisfy the matching half.
type Uploader struct {
	Students interface {
		Bulk(ctx context.Context, rows []models.StudentAccount) (models.BulkResult, error)
	}
	Professors interface {
		Bulk(ctx context.Context, rows []models.ProfessorAccount) (models.BulkResult, error)
	}
	Log *zap.Logger
}

var ErrEmptyBatch = errors.New("no rows to upload")

// Submit sends the whole batch as one bulk request.
func (u Uploader) Submit(ctx context.Context, b Batch) (models.BulkResult, error) {
	if b.Len() == 0 {
		return models.BulkResult{}, ErrEmptyBatch
	}
	var (
		res models.BulkResult
		err error
	)
	switch b.Kind {
	case Students:
		res, err = u.Students.Bulk(ctx, b.Students)
	case Professors:
		res, err = u.Professors.Bulk(ctx, b.Professors)
	default:
		return models.BulkResult{}, ErrUnknownKind
	}
	if err != nil {
		return res, err
	}
	if u.Log != nil {
		u.Log.Info("bulk import submitted",
			zap.String("kind", string(b.Kind)),
			zap.Int("success", res.Success),
			zap.Int("failed", res.Failed))
	}
	return res, nil
}

// Import parses r and submits it when every row is valid.
func (u Uploader) Import(ctx context.Context, r io.Reader, kind Kind) (models.BulkResult, error) {
	b, err := Parse(r, kind)
	if err != nil {
		return models.BulkResult{}, err
	}
	return u.Submit(ctx, b)
}
