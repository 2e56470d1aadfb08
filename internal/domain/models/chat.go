package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeletedMessageText replaces the body of a soft-deleted chat message.
const DeletedMessageText = "[Message deleted]"

// ChatMessage is one message in a group's chat.
//
// ReadBy lists the user ids that have read the message; the sender is
// always included. IsRead is computed per viewer and never stored.
type ChatMessage struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	GroupID    primitive.ObjectID   `bson:"group_id" json:"group_id"`
	SenderID   primitive.ObjectID   `bson:"sender_id" json:"sender_id"` // user id
	SenderType string               `bson:"sender_type" json:"sender_type"`
	SenderName string               `bson:"sender_name" json:"sender_name"`
	Message    string               `bson:"message" json:"message"`
	CreatedAt  time.Time            `bson:"created_at" json:"created_at"`
	EditedAt   *time.Time           `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	IsDeleted  bool                 `bson:"is_deleted" json:"is_deleted"`
	ReadBy     []primitive.ObjectID `bson:"read_by" json:"-"`
	IsRead     bool                 `bson:"-" json:"is_read"`
}
