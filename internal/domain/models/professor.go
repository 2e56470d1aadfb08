package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultMentorSlots is the mentoring capacity given to a new professor.
const DefaultMentorSlots = 5

// Professor is the academic profile of a user with role "professor".
//
// AvailableSlots is the remaining mentoring capacity; it is decremented
// once per accepted mentorship request and never exceeds TotalSlots.
type Professor struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"user_id" json:"user_id"`
	ProfessorID       string             `bson:"professor_id" json:"professor_id"`
	Faculty           string             `bson:"faculty" json:"faculty"`
	Field             string             `bson:"field" json:"field"`
	Department        string             `bson:"department" json:"department"`
	ResearchAreas     []string           `bson:"research_areas" json:"research_areas"`
	ResearchInterests []string           `bson:"research_interests" json:"research_interests"`
	Achievements      string             `bson:"achievements,omitempty" json:"achievements,omitempty"`
	Publications      int                `bson:"publications" json:"publications"`
	Bio               string             `bson:"bio,omitempty" json:"bio,omitempty"`
	AvailableSlots    int                `bson:"available_slots" json:"available_slots"`
	TotalSlots        int                `bson:"total_slots" json:"total_slots"`
}

// ProfessorWithUser is a Professor joined with the owning user's name and email.
type ProfessorWithUser struct {
	Professor `bson:",inline"`
	Name      string `bson:"name" json:"name"`
	Email     string `bson:"email" json:"email"`
}
