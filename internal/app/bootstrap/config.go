// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// MinJWTSecretLen is the shortest signing key accepted in prod.
const MinJWTSecretLen = 32

const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for ResearchHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: RESEARCHHUB_MONGO_URI, RESEARCHHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "research_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HS256 token signing key (must be strong in production)"},
	{Name: "jwt_ttl", Default: "30m", Desc: "Access token lifetime (e.g., 30m, 12h)"},

	{Name: "cors_allowed_origins", Default: "http://localhost:3000,http://localhost:5173", Desc: "Comma-separated origins allowed to call the API"},

	{Name: "admin_email", Default: "", Desc: "Email of the admin user (promotes/creates on startup)"},
	{Name: "admin_password", Default: "", Desc: "Password for a newly created admin user"},

	{Name: "seed_file", Default: "", Desc: "YAML file of students and professors to create on startup"},

	{Name: "login_rate_ip", Default: 20, Desc: "Login attempts allowed per IP per minute"},
	{Name: "login_rate_email", Default: 5, Desc: "Login attempts allowed per email per 15 minutes"},

	{Name: "cleanup_interval", Default: "1h", Desc: "How often background pruning runs"},
	{Name: "notification_retention", Default: "2160h", Desc: "Age after which read notifications are deleted (0 disables)"},
	{Name: "login_record_retention", Default: "8760h", Desc: "Age after which login records are deleted (0 disables)"},

	{Name: "version", Default: "1.0.0", Desc: "API version reported at /"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, RESEARCHHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "RESEARCHHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", 30*time.Minute),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),

		AdminEmail:    strings.TrimSpace(appValues.String("admin_email")),
		AdminPassword: appValues.String("admin_password"),

		SeedFile: appValues.String("seed_file"),

		LoginRateIP:    appValues.Int("login_rate_ip"),
		LoginRateEmail: appValues.Int("login_rate_email"),

		CleanupInterval:       appValues.Duration("cleanup_interval", time.Hour),
		NotificationRetention: appValues.Duration("notification_retention", 90*24*time.Hour),
		LoginRecordRetention:  appValues.Duration("login_record_retention", 365*24*time.Hour),

		Version: appValues.String("version"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before attempting to connect. In prod the
// development signing key is refused.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateAppConfig(coreCfg.Env, appCfg)
}

func validateAppConfig(env string, appCfg AppConfig) error {
	if appCfg.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive, got %s", appCfg.JWTTTL)
	}
	if env == "prod" {
		if appCfg.JWTSecret == devJWTSecret || len(appCfg.JWTSecret) < MinJWTSecretLen {
			return fmt.Errorf("jwt_secret must be at least %d bytes and not the development default", MinJWTSecretLen)
		}
	}
	if appCfg.AdminEmail != "" && appCfg.AdminPassword == "" {
		return fmt.Errorf("admin_email is set but admin_password is empty")
	}
	if appCfg.LoginRateIP < 1 || appCfg.LoginRateEmail < 1 {
		return fmt.Errorf("login rate limits must be at least 1")
	}
	if appCfg.NotificationRetention < 0 || appCfg.LoginRecordRetention < 0 {
		return fmt.Errorf("retention periods cannot be negative")
	}
	if appCfg.CleanupInterval <= 0 && (appCfg.NotificationRetention > 0 || appCfg.LoginRecordRetention > 0) {
		return fmt.Errorf("cleanup_interval must be positive when a retention period is set")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
