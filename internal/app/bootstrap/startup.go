// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	loginstore "github.com/dalemusser/researchhub/internal/app/store/logins"
	notificationstore "github.com/dalemusser/researchhub/internal/app/store/notifications"
	userstore "github.com/dalemusser/researchhub/internal/app/store/users"
	"github.com/dalemusser/researchhub/internal/app/system/authutil"
	"github.com/dalemusser/researchhub/internal/app/system/tasks"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/dalemusser/researchhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// cleanup runs the pruning jobs; stopped in Shutdown.
var cleanup *workers.Runner

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: the
// admin account, the optional seed file, and the background pruning jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{})

	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
			return err
		}
	}
	if appCfg.SeedFile != "" {
		if err := seedFromFile(ctx, deps, appCfg.SeedFile, logger); err != nil {
			return err
		}
	}

	cleanup = newCleanupRunner(appCfg, deps, logger)
	cleanup.Start()
	return nil
}

func newCleanupRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *workers.Runner {
	var jobs []tasks.Job
	if appCfg.NotificationRetention > 0 {
		jobs = append(jobs, tasks.NotificationPruneJob(notificationstore.New(deps.MongoDatabase), logger,
			appCfg.CleanupInterval, appCfg.NotificationRetention))
	}
	if appCfg.LoginRecordRetention > 0 {
		jobs = append(jobs, tasks.LoginRecordPruneJob(loginstore.New(deps.MongoDatabase), logger,
			appCfg.CleanupInterval, appCfg.LoginRecordRetention))
	}
	return workers.NewRunner(logger, timeouts.Batch(), jobs...)
}

// ensureAdmin creates the configured admin, or promotes an existing user
// with that email.
func ensureAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	if err := authutil.ValidateEmail(email); err != nil {
		return fmt.Errorf("admin_email: %w", err)
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	created, err := userstore.New(deps.MongoDatabase).EnsureAdmin(ctx, email, "Administrator", hash)
	if err != nil {
		logger.Error("ensure admin failed", zap.String("email", email), zap.Error(err))
		return err
	}
	if created {
		logger.Info("created admin user", zap.String("email", email))
	} else {
		logger.Info("admin user present", zap.String("email", email))
	}
	return nil
}
