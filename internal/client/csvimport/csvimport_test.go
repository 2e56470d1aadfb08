package csvimport_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dalemusser/researchhub/internal/app/system/csvutil"
	"github.com/dalemusser/researchhub/internal/client/csvimport"
	"github.com/dalemusser/researchhub/internal/domain/models"
)

const studentHeader = "name,student_id,gpa,major,faculty,year,skills,bio,looking_for_group\n"

func rowErrors(t *testing.T, err error) csvimport.RowErrors {
	t.Helper()
	var re csvimport.RowErrors
	if !errors.As(err, &re) {
		t.Fatalf("expected RowErrors, got %v", err)
	}
	return re
}

func TestParse_MissingFieldsOnePerField(t *testing.T) {
	in := studentHeader +
		"Ada,S1,3.9,CS,FAST,2021,go,,\n" +
		",S2,,CS,FAST,2021,,,\n"

	_, err := csvimport.Parse(strings.NewReader(in), csvimport.Students)
	errs := rowErrors(t, err)

	want := []string{"Row 3: Missing name", "Row 3: Missing gpa"}
	if len(errs) != len(want) {
		t.Fatalf("got %v, want %v", errs, want)
	}
	for i, w := range want {
		if errs[i].Error() != w {
			t.Errorf("errs[%d] = %q, want %q", i, errs[i].Error(), w)
		}
	}
}

func TestParse_GPABounds(t *testing.T) {
	tests := []struct {
		gpa string
		ok  bool
	}{
		{"0", true},
		{"4.0", true},
		{"4.01", false},
		{"-0.01", false},
		{"abc", false},
	}
	for _, tt := range tests {
		in := studentHeader + "Ada,S1," + tt.gpa + ",CS,FAST,2021,,,\n"
		_, err := csvimport.Parse(strings.NewReader(in), csvimport.Students)
		if tt.ok && err != nil {
			t.Errorf("gpa %s: unexpected error %v", tt.gpa, err)
		}
		if !tt.ok {
			errs := rowErrors(t, err)
			if len(errs) != 1 || errs[0].Error() != "Row 2: Invalid GPA (must be 0-4.0)" {
				t.Errorf("gpa %s: got %v", tt.gpa, errs)
			}
		}
	}
}

func TestParse_StudentDefaultsAndLists(t *testing.T) {
	in := studentHeader +
		"\"Lovelace, Ada\",S1,3.5,CS,FAST,2021,Python; React ;;,\"likes\nmath\",\n" +
		"Alan,S2,3.1,CS,FAST,2020,,,no\n"

	b, err := csvimport.Parse(strings.NewReader(in), csvimport.Students)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(b.Students) != 2 {
		t.Fatalf("got %d students", len(b.Students))
	}
	ada := b.Students[0]
	if ada.Name != "Lovelace, Ada" || ada.Bio != "likes\nmath" {
		t.Errorf("quoted fields: %+v", ada)
	}
	if len(ada.Skills) != 2 || ada.Skills[0] != "Python" || ada.Skills[1] != "React" {
		t.Errorf("skills = %v", ada.Skills)
	}
	if ada.LookingForGroup == nil || !*ada.LookingForGroup {
		t.Error("looking_for_group should default to true")
	}
	if *b.Students[1].LookingForGroup {
		t.Error("looking_for_group \"no\" should be false")
	}
}

func TestParse_ProfessorDefaultsAndInts(t *testing.T) {
	hdr := "name,professor_id,faculty,field,department,research_areas,publications,total_slots\n"
	b, err := csvimport.Parse(strings.NewReader(hdr+"Dr. A,P1,FAST,ML,CS,AI;NLP,,\n"), csvimport.Professors)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := b.Professors[0]
	if p.TotalSlots != csvimport.DefaultTotalSlots || p.Publications != 0 {
		t.Errorf("defaults: slots=%d pubs=%d", p.TotalSlots, p.Publications)
	}
	if len(p.ResearchAreas) != 2 {
		t.Errorf("research_areas = %v", p.ResearchAreas)
	}

	_, err = csvimport.Parse(strings.NewReader(hdr+"Dr. A,P1,FAST,ML,CS,,many,x\n"), csvimport.Professors)
	errs := rowErrors(t, err)
	if len(errs) != 2 || errs[0].Msg != "Invalid publications count" || errs[1].Msg != "Invalid total_slots" {
		t.Errorf("got %v", errs)
	}

	for _, slots := range []string{"0", "-1"} {
		_, err = csvimport.Parse(strings.NewReader(hdr+"Dr. A,P1,FAST,ML,CS,,3,"+slots+"\n"), csvimport.Professors)
		errs = rowErrors(t, err)
		if len(errs) != 1 || errs[0].Error() != "Row 2: Invalid total_slots" {
			t.Errorf("total_slots=%s: got %v", slots, errs)
		}
	}
	b, err = csvimport.Parse(strings.NewReader(hdr+"Dr. A,P1,FAST,ML,CS,,3,1\n"), csvimport.Professors)
	if err != nil || b.Professors[0].TotalSlots != 1 {
		t.Errorf("total_slots=1: err=%v batch=%+v", err, b)
	}
}

func TestParse_UnknownKind(t *testing.T) {
	if _, err := csvimport.Parse(strings.NewReader("name\n"), "admin"); !errors.Is(err, csvimport.ErrUnknownKind) {
		t.Errorf("got %v", err)
	}
}

func TestTemplate_RoundTrips(t *testing.T) {
	for _, kind := range []csvimport.Kind{csvimport.Students, csvimport.Professors} {
		data, err := csvimport.Template(kind)
		if err != nil {
			t.Fatalf("Template(%s): %v", kind, err)
		}
		b, err := csvimport.Parse(bytes.NewReader(data), kind)
		if err != nil {
			t.Fatalf("template for %s does not parse: %v", kind, err)
		}
		if b.Len() != 1 {
			t.Errorf("%s template rows = %d", kind, b.Len())
		}
	}
}

type fakeStudents struct{ calls int }

func (f *fakeStudents) Bulk(_ context.Context, rows []models.StudentAccount) (models.BulkResult, error) {
	f.calls++
	return models.BulkResult{Success: len(rows)}, nil
}

func TestImport_InvalidFileSubmitsNothing(t *testing.T) {
	fs := &fakeStudents{}
	u := csvimport.Uploader{Students: fs}
	in := studentHeader + "Ada,S1,3.9,CS,FAST,2021,,,\nAlan,S2,5,CS,FAST,2021,,,\n"

	if _, err := u.Import(context.Background(), strings.NewReader(in), csvimport.Students); err == nil {
		t.Fatal("expected row errors")
	}
	if fs.calls != 0 {
		t.Errorf("bulk called %d times, want 0", fs.calls)
	}
}

func TestImport_OversizeFileRejected(t *testing.T) {
	fs := &fakeStudents{}
	u := csvimport.Uploader{Students: fs}

	var b strings.Builder
	b.WriteString(studentHeader)
	for i := 0; b.Len() <= csvutil.MaxUploadSize; i++ {
		fmt.Fprintf(&b, "Student %d,S%d,3.5,CS,FAST,2021,go,%s,true\n", i, i, strings.Repeat("b", 1000))
	}

	_, err := u.Import(context.Background(), strings.NewReader(b.String()), csvimport.Students)
	if !errors.Is(err, csvutil.ErrTooLarge) {
		t.Fatalf("got %v, want ErrTooLarge", err)
	}
	if fs.calls != 0 {
		t.Errorf("bulk called %d times, want 0", fs.calls)
	}
}

func TestImport_ValidFileOneBatch(t *testing.T) {
	fs := &fakeStudents{}
	u := csvimport.Uploader{Students: fs}
	in := studentHeader + "Ada,S1,3.9,CS,FAST,2021,,,\nAlan,S2,3,CS,FAST,2021,,,\n"

	res, err := u.Import(context.Background(), strings.NewReader(in), csvimport.Students)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if fs.calls != 1 || res.Success != 2 {
		t.Errorf("calls=%d success=%d", fs.calls, res.Success)
	}
}
