// internal/app/features/auth/handler.go
package auth

import (
	errorsfeature "github.com/dalemusser/researchhub/internal/app/features/errors"
	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	"github.com/dalemusser/researchhub/internal/app/system/auth"
	"github.com/dalemusser/researchhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves token login, self-registration, and the caller's own
// profile.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	ErrLog  *errorsfeature.ErrorLogger
	Tokens  *auth.TokenManager
	Limiter *ratelimit.LoginLimiter
}

func NewHandler(db *mongo.Database, tokens *auth.TokenManager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		ErrLog:  errorsfeature.NewErrorLogger(logger, requestflow.HTTPStatus),
		Tokens:  tokens,
		Limiter: limiter,
	}
}
