// internal/app/features/notifications/handler.go
package notifications

import (
	errorsfeature "github.com/dalemusser/researchhub/internal/app/features/errors"
	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the caller's notification feed and the inline
// accept/reject actions on actionable notifications.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *errorsfeature.ErrorLogger
	Flow   *requestflow.Service
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: errorsfeature.NewErrorLogger(logger, requestflow.HTTPStatus),
		Flow:   requestflow.New(db, logger),
	}
}
