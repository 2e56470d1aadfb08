// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	loginstore "github.com/dalemusser/researchhub/internal/app/store/logins"
	notificationstore "github.com/dalemusser/researchhub/internal/app/store/notifications"
	"go.uber.org/zap"
)

// Job is a unit of periodic background work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// NotificationPruneJob deletes read notifications older than maxAge.
// Unread notifications are never pruned.
func NotificationPruneJob(store *notificationstore.Store, logger *zap.Logger, interval, maxAge time.Duration) Job {
	return Job{
		Name:     "notification-prune",
		Interval: interval,
		Run: func(ctx context.Context) error {
			count, err := store.DeleteReadBefore(ctx, time.Now().UTC().Add(-maxAge))
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("pruned read notifications",
					zap.Int64("count", count),
					zap.Duration("max_age", maxAge))
			}
			return nil
		},
	}
}

// LoginRecordPruneJob deletes login history older than maxAge.
func LoginRecordPruneJob(store *loginstore.Store, logger *zap.Logger, interval, maxAge time.Duration) Job {
	return Job{
		Name:     "login-record-prune",
		Interval: interval,
		Run: func(ctx context.Context) error {
			count, err := store.DeleteBefore(ctx, time.Now().UTC().Add(-maxAge))
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("pruned login records", zap.Int64("count", count))
			}
			return nil
		},
	}
}
