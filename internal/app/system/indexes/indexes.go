// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	steps := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"students", ensureStudents},
		{"professors", ensureProfessors},
		{"research_papers", ensureResearchPapers},
		{"groups", ensureGroups},
		{"group_members", ensureGroupMembers},
		{"group_invitations", ensurePendingPair("group_invitations", "student_id")},
		{"group_join_requests", ensurePendingPair("group_join_requests", "student_id")},
		{"mentorship_requests", ensureMentorshipRequests},
		{"notifications", ensureNotifications},
		{"chat_messages", ensureChatMessages},
		{"login_records", ensureLoginRecords},
	}
	for _, s := range steps {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  *bool  `bson:"unique,omitempty"`
	Partial bson.D `bson:"partialFilterExpression,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listExisting(ctx, coll)

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		partial := false
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
			partial = m.Options.PartialFilterExpression != nil
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique))

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && (len(ex.Partial) > 0) == partial && (desiredName == "" || ex.Name == desiredName) {
				log.Debug("reusing existing index", zap.String("took", time.Since(start).String()))
				continue
			}
			// Options or name differ: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			log.Warn("index ensure failed", zap.String("took", time.Since(start).String()), zap.Error(err))
			continue
		}
		log.Info("index ensured",
			zap.String("created_name", created),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// Login lookup; email is folded before storing.
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_emailci"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_role__id"),
		},
	})
}

func ensureStudents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("students"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "student_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_students_studentid"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_students_userid"),
		},
		{
			Keys:    bson.D{{Key: "faculty", Value: 1}, {Key: "year", Value: 1}, {Key: "student_id", Value: 1}},
			Options: options.Index().SetName("idx_students_faculty_year_studentid"),
		},
	})
}

func ensureProfessors(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("professors"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "professor_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_professors_professorid"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_professors_userid"),
		},
		{
			Keys:    bson.D{{Key: "faculty", Value: 1}, {Key: "available_slots", Value: 1}},
			Options: options.Index().SetName("idx_professors_faculty_slots"),
		},
	})
}

func ensureResearchPapers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("research_papers"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "paper_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_research_paperid"),
		},
		{
			Keys:    bson.D{{Key: "faculty", Value: 1}, {Key: "year", Value: -1}},
			Options: options.Index().SetName("idx_research_faculty_year"),
		},
	})
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		// A student leads at most one group.
		{
			Keys:    bson.D{{Key: "leader_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_groups_leader"),
		},
		{
			Keys:    bson.D{{Key: "mentor_ids", Value: 1}},
			Options: options.Index().SetName("idx_groups_mentorids"),
		},
	})
}

func ensureGroupMembers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("group_members"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "student_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_gm_group_student"),
		},
		{
			Keys:    bson.D{{Key: "student_id", Value: 1}},
			Options: options.Index().SetName("idx_gm_student"),
		},
	})
}

// ensurePendingPair allows one pending request per (group_id, other).
func ensurePendingPair(collection, other string) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		short := strings.TrimPrefix(collection, "group_")
		return ensureIndexSet(ctx, db.Collection(collection), []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "group_id", Value: 1}, {Key: other, Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": models.StatusPending}).
					SetName("uniq_" + short + "_pending"),
			},
			{
				Keys:    bson.D{{Key: other, Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_" + short + "_" + other + "_created"),
			},
			{
				Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "status", Value: 1}},
				Options: options.Index().SetName("idx_" + short + "_group_status"),
			},
		})
	}
}

func ensureMentorshipRequests(ctx context.Context, db *mongo.Database) error {
	if err := ensurePendingPair("mentorship_requests", "professor_id")(ctx, db); err != nil {
		return err
	}
	return ensureIndexSet(ctx, db.Collection("mentorship_requests"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "professor_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_mentorship_professor_status_created"),
		},
	})
}

func ensureNotifications(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("notifications"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_notifications_user_created"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}},
			Options: options.Index().SetName("idx_notifications_user_read"),
		},
		{
			Keys:    bson.D{{Key: "read", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_notifications_read_created"),
		},
	})
}

func ensureChatMessages(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("chat_messages"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "is_deleted", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_chat_group_deleted_created"),
		},
	})
}

func ensureLoginRecords(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("login_records"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_logins_user_created"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_logins_created"),
		},
	})
}
