// internal/app/store/chat/chatstore.go
package chatstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/researchhub/internal/app/system/paging"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound     = errors.New("Message not found")
	ErrWrongGroup   = errors.New("Message does not belong to this group")
	ErrEmptyMessage = errors.New("Message cannot be empty")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("chat_messages")}
}

// Create stores a message already read by its sender.
func (s *Store) Create(ctx context.Context, m models.ChatMessage) (models.ChatMessage, error) {
	if m.Message == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	m.EditedAt = nil
	m.IsDeleted = false
	m.ReadBy = []primitive.ObjectID{m.SenderID}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.ChatMessage{}, err
	}
	m.IsRead = true
	return m, nil
}

// Get loads a message and checks it belongs to groupID.
func (s *Store) Get(ctx context.Context, groupID, id primitive.ObjectID) (models.ChatMessage, error) {
	var m models.ChatMessage
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ChatMessage{}, ErrNotFound
		}
		return models.ChatMessage{}, err
	}
	if m.GroupID != groupID {
		return models.ChatMessage{}, ErrWrongGroup
	}
	return m, nil
}

// List returns live messages of a group oldest first, with IsRead set for viewer.
func (s *Store) List(ctx context.Context, groupID, viewer primitive.ObjectID, w paging.Window) ([]models.ChatMessage, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"group_id": groupID, "is_deleted": false},
		w.FindOptions(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ChatMessage{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].IsRead = readBy(out[i], viewer)
	}
	return out, nil
}

func readBy(m models.ChatMessage, user primitive.ObjectID) bool {
	for _, id := range m.ReadBy {
		if id == user {
			return true
		}
	}
	return false
}

// Edit replaces the text of a live message and stamps edited_at.
func (s *Store) Edit(ctx context.Context, id primitive.ObjectID, text string) (models.ChatMessage, error) {
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	var m models.ChatMessage
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": bson.M{"message": text, "edited_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ChatMessage{}, ErrNotFound
	}
	if err != nil {
		return models.ChatMessage{}, err
	}
	return m, nil
}

// SoftDelete hides a message and replaces its text with DeletedMessageText.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_deleted": true, "message": models.DeletedMessageText}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRead records that user read one message of the group.
func (s *Store) MarkRead(ctx context.Context, groupID, id, user primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "group_id": groupID},
		bson.M{"$addToSet": bson.M{"read_by": user}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead records that user read every live message of the group.
// Returns how many messages changed.
func (s *Store) MarkAllRead(ctx context.Context, groupID, user primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"group_id": groupID, "is_deleted": false, "read_by": bson.M{"$ne": user}},
		bson.M{"$addToSet": bson.M{"read_by": user}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// UnreadCount counts live messages of the group user has not read.
func (s *Store) UnreadCount(ctx context.Context, groupID, user primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"group_id":   groupID,
		"is_deleted": false,
		"read_by":    bson.M{"$ne": user},
	})
}

// DeleteByGroup removes a group's whole history.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
