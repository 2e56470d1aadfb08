// internal/app/features/groups/handler.go
package groups

import (
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/researchhub/internal/app/features/errors"
	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	errNameRequired   = errors.New("Group name is required")
	errMaxMembersLow  = errors.New("Max members must be at least 1")
	errStatusRequired = errors.New("status is required")
)

// Handler serves research groups, their members, and the invitation and
// join-request endpoints nested under /groups.
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
		ErrLog: errorsfeature.NewErrorLogger(logger, classify, requestflow.HTTPStatus),
		Flow:   requestflow.New(db, logger),
	}
}

func classify(err error) (int, bool) {
	switch {
	case errors.Is(err, errNameRequired),
		errors.Is(err, errMaxMembersLow),
		errors.Is(err, errStatusRequired):
		return http.StatusBadRequest, true
	}
	return 0, false
}
