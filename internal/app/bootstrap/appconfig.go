// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for ResearchHub.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig carries
// the framework-level settings (ports, TLS, log level); everything the API
// itself needs lives here and is passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens
	JWTSecret string        // HS256 signing key (must be strong in production)
	JWTTTL    time.Duration // Access token lifetime

	// Browser clients allowed to call the API
	CORSAllowedOrigins []string

	// Admin bootstrap; both blank disables it
	AdminEmail    string
	AdminPassword string

	// Optional YAML file of students and professors created at startup
	SeedFile string

	// Login throttling
	LoginRateIP    int // attempts per IP per minute
	LoginRateEmail int // attempts per email per 15 minutes

	// Background pruning; a zero retention disables that job
	CleanupInterval       time.Duration
	NotificationRetention time.Duration // read notifications older than this are deleted
	LoginRecordRetention  time.Duration

	// Version reported by GET /
	Version string
}
