// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member roles inside a group.
const (
	MemberRoleLeader = "leader"
	MemberRoleMember = "member"
)

// GroupMember is the authoritative join between students and groups.
// Exactly one document per (group_id, student_id); role is "leader" or "member".
type GroupMember struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	StudentID primitive.ObjectID `bson:"student_id" json:"student_id"`
	Role      string             `bson:"role" json:"role"`
	JoinedAt  time.Time          `bson:"joined_at" json:"joined_at"`
}
