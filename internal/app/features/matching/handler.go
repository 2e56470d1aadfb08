// internal/app/features/matching/handler.go
package matching

import (
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/researchhub/internal/app/features/errors"
	"github.com/dalemusser/researchhub/internal/app/system/matcher"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the matching endpoint.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *errorsfeature.ErrorLogger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: errorsfeature.NewErrorLogger(logger, classify),
	}
}

func classify(err error) (int, bool) {
	var nc *matcher.NoCandidatesError
	switch {
	case errors.As(err, &nc):
		return http.StatusNotFound, true
	case errors.Is(err, matcher.ErrQueryTooShort),
		errors.Is(err, matcher.ErrInvalidMatchType):
		return http.StatusBadRequest, true
	}
	return 0, false
}
