// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authfeature "github.com/dalemusser/researchhub/internal/app/features/auth"
	chatfeature "github.com/dalemusser/researchhub/internal/app/features/chat"
	errorsfeature "github.com/dalemusser/researchhub/internal/app/features/errors"
	groupsfeature "github.com/dalemusser/researchhub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/researchhub/internal/app/features/health"
	matchingfeature "github.com/dalemusser/researchhub/internal/app/features/matching"
	mentorshipfeature "github.com/dalemusser/researchhub/internal/app/features/mentorship"
	notificationsfeature "github.com/dalemusser/researchhub/internal/app/features/notifications"
	professorsfeature "github.com/dalemusser/researchhub/internal/app/features/professors"
	researchfeature "github.com/dalemusser/researchhub/internal/app/features/research"
	studentsfeature "github.com/dalemusser/researchhub/internal/app/features/students"
	userstore "github.com/dalemusser/researchhub/internal/app/store/users"
	"github.com/dalemusser/researchhub/internal/app/system/auth"
	"github.com/dalemusser/researchhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// APIPrefix is where every feature router is mounted.
const APIPrefix = "/api/v1"

// loginLimiter is closed by Shutdown.
var loginLimiter *ratelimit.LoginLimiter

// BuildHandler constructs the root HTTP handler (router) for ResearchHub.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It builds the token manager and login
// limiter, then mounts every feature router under /api/v1.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	tokens, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTTTL, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	// Resolve the bearer's user on every request so role changes and
	// deleted accounts take effect immediately.
	tokens.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	loginLimiter = ratelimit.NewLoginLimiter(appCfg.LoginRateIP, appCfg.LoginRateEmail)

	return newRouter(appCfg, deps, tokens, loginLimiter, logger), nil
}

func newRouter(appCfg AppConfig, deps DBDeps, tokens *auth.TokenManager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) chi.Router {
	db := deps.MongoDatabase

	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global auth middleware: loads the bearer's user into context if a
	// valid token is present. Routers decide whether one is required.
	r.Use(tokens.LoadBearerUser)

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, appCfg.Version, logger)
	r.Get("/", healthHandler.ServeRoot)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route(APIPrefix, func(api chi.Router) {
		api.Mount("/auth", authfeature.Routes(authfeature.NewHandler(db, tokens, limiter, logger), tokens))

		api.Mount("/students", studentsfeature.Routes(studentsfeature.NewHandler(db, logger), tokens))
		api.Mount("/professors", professorsfeature.Routes(professorsfeature.NewHandler(db, logger), tokens))
		api.Mount("/research", researchfeature.Routes(researchfeature.NewHandler(db, logger), tokens))

		api.Mount("/groups", groupsfeature.Routes(groupsfeature.NewHandler(db, logger), tokens))
		api.Mount("/mentorship-requests", mentorshipfeature.Routes(mentorshipfeature.NewHandler(db, logger), tokens))
		api.Mount("/notifications", notificationsfeature.Routes(notificationsfeature.NewHandler(db, logger), tokens))
		api.Mount("/chat", chatfeature.Routes(chatfeature.NewHandler(db, logger), tokens))

		api.Mount("/matching", matchingfeature.Routes(matchingfeature.NewHandler(db, logger), tokens))
	})

	return r
}
