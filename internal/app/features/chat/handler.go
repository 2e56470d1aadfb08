// internal/app/features/chat/handler.go
package chat

import (
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/researchhub/internal/app/features/errors"
	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	errNotMember = errors.New("You are not a member of this group")
	errEditOwn   = errors.New("You can only edit your own messages")
	errDeleteOwn = errors.New("You can only delete your own messages")
)

// Handler serves group chat. Access is limited to group members and the
// group's mentors.
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
	case errors.Is(err, errNotMember),
		errors.Is(err, errEditOwn),
		errors.Is(err, errDeleteOwn):
		return http.StatusForbidden, true
	}
	return 0, false
}
