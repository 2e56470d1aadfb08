// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxMentorsPerGroup caps how many professors may mentor one group.
const MaxMentorsPerGroup = 2

// Group represents a student-led research team.
//
// NOTE:
//   - Member lists are not embedded on Group. Membership is stored in
//     the group_members collection; CurrentMembers is the denormalized count.
//   - HasMentor is true only when MentorID is set. MentorIDs holds every
//     accepted mentor (at most MaxMentorsPerGroup); MentorID is the first.
type Group struct {
	ID             primitive.ObjectID   `bson:"_id" json:"id"`
	Name           string               `bson:"name" json:"name"`
	LeaderID       primitive.ObjectID   `bson:"leader_id" json:"leader_id"` // student profile id
	Description    string               `bson:"description" json:"description"`
	NeededSkills   []string             `bson:"needed_skills" json:"needed_skills"`
	CurrentMembers int                  `bson:"current_members" json:"current_members"`
	MaxMembers     int                  `bson:"max_members" json:"max_members"`
	HasMentor      bool                 `bson:"has_mentor" json:"has_mentor"`
	MentorID       *primitive.ObjectID  `bson:"mentor_id,omitempty" json:"mentor_id,omitempty"`
	MentorIDs      []primitive.ObjectID `bson:"mentor_ids" json:"mentor_ids"`
	MentorCount    int                  `bson:"mentor_count" json:"mentor_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsFull reports whether the group has no open member spots.
func (g Group) IsFull() bool { return g.CurrentMembers >= g.MaxMembers }

// MentorSummary is the public view of a professor mentoring a group.
type MentorSummary struct {
	ID            primitive.ObjectID `json:"id"`
	Name          string             `json:"name"`
	Email         string             `json:"email"`
	Department    string             `json:"department"`
	ResearchAreas []string           `json:"research_areas"`
}

// GroupWithMentors is the API view of a group.
type GroupWithMentors struct {
	Group   `bson:",inline"`
	Mentors []MentorSummary `bson:"-" json:"mentors"`
}
