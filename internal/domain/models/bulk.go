package models

// InstitutionDomain is the mail domain of generated bulk-account usernames.
const InstitutionDomain = "research.edu"

// StudentAccount is one row of a bulk student import.
type StudentAccount struct {
	Name            string   `json:"name" yaml:"name"`
	Email           string   `json:"email,omitempty" yaml:"email,omitempty"`
	Password        string   `json:"password,omitempty" yaml:"password,omitempty"`
	StudentID       string   `json:"student_id" yaml:"student_id"`
	GPA             float64  `json:"gpa" yaml:"gpa"`
	Major           string   `json:"major" yaml:"major"`
	Faculty         string   `json:"faculty" yaml:"faculty"`
	Year            string   `json:"year" yaml:"year"`
	Skills          []string `json:"skills" yaml:"skills"`
	Bio             string   `json:"bio,omitempty" yaml:"bio,omitempty"`
	LookingForGroup *bool    `json:"looking_for_group,omitempty" yaml:"looking_for_group,omitempty"`
}

// ProfessorAccount is one row of a bulk professor import.
type ProfessorAccount struct {
	Name              string   `json:"name" yaml:"name"`
	Email             string   `json:"email,omitempty" yaml:"email,omitempty"`
	Password          string   `json:"password,omitempty" yaml:"password,omitempty"`
	ProfessorID       string   `json:"professor_id" yaml:"professor_id"`
	Faculty           string   `json:"faculty" yaml:"faculty"`
	Field             string   `json:"field" yaml:"field"`
	Department        string   `json:"department" yaml:"department"`
	ResearchAreas     []string `json:"research_areas" yaml:"research_areas"`
	ResearchInterests []string `json:"research_interests" yaml:"research_interests"`
	Achievements      string   `json:"achievements,omitempty" yaml:"achievements,omitempty"`
	Publications      int      `json:"publications" yaml:"publications"`
	Bio               string   `json:"bio,omitempty" yaml:"bio,omitempty"`
	TotalSlots        int      `json:"total_slots,omitempty" yaml:"total_slots,omitempty"`
}

// Credential reports a created account's login.
type Credential struct {
	Name        string `json:"name"`
	StudentID   string `json:"student_id,omitempty"`
	ProfessorID string `json:"professor_id,omitempty"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Faculty     string `json:"faculty"`
}

// BulkResult is the response of a bulk import. Rows fail independently.
type BulkResult struct {
	Success  int          `json:"success"`
	Failed   int          `json:"failed"`
	Accounts []Credential `json:"accounts"`
	Errors   []string     `json:"errors"`
}
