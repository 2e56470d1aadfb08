package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types. The type decides which actions the recipient may take.
const (
	NotifyGroupInvitation     = "group_invitation"
	NotifyJoinRequest         = "join_request"
	NotifyInvitationAccepted  = "invitation_accepted"
	NotifyInvitationRejected  = "invitation_rejected"
	NotifyJoinRequestAccepted = "join_request_accepted"
	NotifyJoinRequestRejected = "join_request_rejected"
	NotifyMentorshipRequest   = "mentorship_request"
	NotifyMentorshipAccepted  = "mentorship_accepted"
	NotifyMentorshipRejected  = "mentorship_rejected"
)

// Notification is a per-user projection of a domain event.
// Read only ever moves from false to true.
type Notification struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Type             string              `bson:"type" json:"type"`
	Title            string              `bson:"title" json:"title"`
	Message          string              `bson:"message" json:"message"`
	Link             string              `bson:"link,omitempty" json:"link,omitempty"`
	Read             bool                `bson:"read" json:"read"`
	RelatedGroupID   *primitive.ObjectID `bson:"related_group_id,omitempty" json:"related_group_id,omitempty"`
	RelatedStudentID *primitive.ObjectID `bson:"related_student_id,omitempty" json:"related_student_id,omitempty"`
	RelatedRequestID *primitive.ObjectID `bson:"related_request_id,omitempty" json:"related_request_id,omitempty"`
	CreatedAt        time.Time           `bson:"created_at" json:"created_at"`
}
