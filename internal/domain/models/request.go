package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request lifecycle states shared by invitations, join requests, and
// mentorship requests. Only pending may transition; the others are terminal.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// IsResolved reports whether status is terminal.
func IsResolved(status string) bool {
	return status == StatusAccepted || status == StatusRejected
}

// GroupInvitation is a leader-initiated offer for a student to join a group.
type GroupInvitation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID     primitive.ObjectID `bson:"group_id" json:"group_id"`
	StudentID   primitive.ObjectID `bson:"student_id" json:"student_id"`
	Message     string             `bson:"message" json:"message"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	RespondedAt *time.Time         `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}

// GroupJoinRequest is a student-initiated request to join a group.
type GroupJoinRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID     primitive.ObjectID `bson:"group_id" json:"group_id"`
	StudentID   primitive.ObjectID `bson:"student_id" json:"student_id"`
	Message     string             `bson:"message" json:"message"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	RespondedAt *time.Time         `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}

// MentorshipRequest is a group's ask for a professor to mentor it.
// A rejected request always carries a non-empty RejectionReason.
type MentorshipRequest struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID         primitive.ObjectID `bson:"group_id" json:"group_id"`
	ProfessorID     primitive.ObjectID `bson:"professor_id" json:"professor_id"`
	RequestedBy     primitive.ObjectID `bson:"requested_by" json:"requested_by"` // student profile id
	Message         string             `bson:"message" json:"message"`
	Status          string             `bson:"status" json:"status"`
	RejectionReason string             `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	RespondedAt     *time.Time         `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}

// MentorshipRequestWithDetails is the professor-facing view of a request.
type MentorshipRequestWithDetails struct {
	MentorshipRequest
	GroupName         string   `json:"group_name"`
	GroupDescription  string   `json:"group_description"`
	GroupNeededSkills []string `json:"group_needed_skills"`
	RequesterName     string   `json:"requester_name"`
	RequesterEmail    string   `json:"requester_email"`
	ProfessorName     string   `json:"professor_name"`
}
