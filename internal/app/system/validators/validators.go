// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/researchhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Profiles and identities
	ensure("users", usersSchema())
	ensure("students", studentsSchema())
	ensure("professors", professorsSchema())
	ensure("research_papers", researchSchema())

	// Groups and the request lifecycle
	ensure("groups", groupsSchema())
	ensure("group_members", groupMembersSchema())
	ensure("group_invitations", requestSchema("student_id", false))
	ensure("group_join_requests", requestSchema("student_id", false))
	ensure("mentorship_requests", requestSchema("professor_id", true))

	ensure("notifications", notificationsSchema())
	ensure("chat_messages", chatSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func intType(min int) bson.M {
	return bson.M{"bsonType": bson.A{"int", "long"}, "minimum": min}
}

func enum(values ...string) bson.M {
	a := bson.A{}
	for _, v := range values {
		a = append(a, v)
	}
	return bson.M{"enum": a}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "email_ci", "hashed_password", "name", "role"},
			"properties": bson.M{
				"email":           nonBlank,
				"email_ci":        nonBlank,
				"hashed_password": nonBlank,
				"name":            nonBlank,
				"role":            enum(models.RoleAdmin, models.RoleStudent, models.RoleProfessor),
			},
		},
	}
}

func studentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "student_id", "gpa"},
			"properties": bson.M{
				"user_id":           bson.M{"bsonType": "objectId"},
				"student_id":        nonBlank,
				"gpa":               bson.M{"bsonType": "number", "minimum": 0, "maximum": 4.0},
				"skills":            bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"looking_for_group": bson.M{"bsonType": "bool"},
			},
		},
	}
}

// Slots may never exceed the professor's capacity.
func professorsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "professor_id", "available_slots", "total_slots"},
			"properties": bson.M{
				"user_id":         bson.M{"bsonType": "objectId"},
				"professor_id":    nonBlank,
				"available_slots": intType(0),
				"total_slots":     intType(1),
				"research_areas":  bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
			},
		},
		"$expr": bson.M{"$lte": bson.A{"$available_slots", "$total_slots"}},
	}
}

func researchSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"paper_id", "topic", "faculty", "year"},
			"properties": bson.M{
				"paper_id":      nonBlank,
				"topic":         nonBlank,
				"faculty":       bson.M{"bsonType": "string"},
				"year":          intType(1900),
				"rank":          intType(0),
				"members":       intType(0),
				"professor_ids": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "leader_id", "current_members", "max_members", "has_mentor", "mentor_count"},
			"properties": bson.M{
				"name":            nonBlank,
				"leader_id":       bson.M{"bsonType": "objectId"},
				"current_members": intType(1),
				"max_members":     intType(1),
				"has_mentor":      bson.M{"bsonType": "bool"},
				"mentor_id":       bson.M{"bsonType": "objectId"},
				"mentor_ids":      bson.M{"bsonType": "array", "maxItems": models.MaxMentorsPerGroup, "items": bson.M{"bsonType": "objectId"}},
				"mentor_count":    bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0, "maximum": models.MaxMentorsPerGroup},
			},
		},
		"$expr": bson.M{"$and": bson.A{
			bson.M{"$lte": bson.A{"$current_members", "$max_members"}},
			// has_mentor implies mentor_id
			bson.M{"$or": bson.A{
				bson.M{"$eq": bson.A{"$has_mentor", false}},
				bson.M{"$ne": bson.A{bson.M{"$ifNull": bson.A{"$mentor_id", nil}}, nil}},
			}},
		}},
	}
}

func groupMembersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group_id", "student_id", "role"},
			"properties": bson.M{
				"group_id":   bson.M{"bsonType": "objectId"},
				"student_id": bson.M{"bsonType": "objectId"},
				"role":       enum(models.MemberRoleLeader, models.MemberRoleMember),
				"joined_at":  bson.M{"bsonType": "date"},
			},
		},
	}
}

// requestSchema covers invitations, join requests, and mentorship requests.
// With needsReason, a rejected request must carry a rejection_reason.
func requestSchema(target string, needsReason bool) bson.M {
	v := bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group_id", target, "status", "created_at"},
			"properties": bson.M{
				"group_id":     bson.M{"bsonType": "objectId"},
				target:         bson.M{"bsonType": "objectId"},
				"status":       enum(models.StatusPending, models.StatusAccepted, models.StatusRejected),
				"created_at":   bson.M{"bsonType": "date"},
				"responded_at": bson.M{"bsonType": "date"},
			},
		},
	}
	if needsReason {
		v["$expr"] = bson.M{"$or": bson.A{
			bson.M{"$ne": bson.A{"$status", models.StatusRejected}},
			bson.M{"$gt": bson.A{bson.M{"$strLenCP": bson.M{"$ifNull": bson.A{"$rejection_reason", ""}}}, 0}},
		}}
	}
	return v
}

func notificationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "type", "title", "read", "created_at"},
			"properties": bson.M{
				"user_id": bson.M{"bsonType": "objectId"},
				"type": enum(
					models.NotifyGroupInvitation, models.NotifyJoinRequest,
					models.NotifyInvitationAccepted, models.NotifyInvitationRejected,
					models.NotifyJoinRequestAccepted, models.NotifyJoinRequestRejected,
					models.NotifyMentorshipRequest, models.NotifyMentorshipAccepted, models.NotifyMentorshipRejected,
				),
				"title":      nonBlank,
				"read":       bson.M{"bsonType": "bool"},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func chatSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group_id", "sender_id", "sender_type", "message", "created_at", "is_deleted"},
			"properties": bson.M{
				"group_id":    bson.M{"bsonType": "objectId"},
				"sender_id":   bson.M{"bsonType": "objectId"},
				"sender_type": enum(models.RoleStudent, models.RoleProfessor),
				"message":     nonBlank,
				"created_at":  bson.M{"bsonType": "date"},
				"is_deleted":  bson.M{"bsonType": "bool"},
				"read_by":     bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
			},
		},
	}
}
