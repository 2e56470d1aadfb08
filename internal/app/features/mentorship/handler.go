// internal/app/features/mentorship/handler.go
package mentorship

import (
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/researchhub/internal/app/features/errors"
	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	errViewProfessor = errors.New("Not authorized to view these requests")
	errViewGroup     = errors.New("Only the group leader can view mentorship requests")
)

// Handler serves /mentorship-requests.
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
	if errors.Is(err, errViewProfessor) || errors.Is(err, errViewGroup) {
		return http.StatusForbidden, true
	}
	return 0, false
}
