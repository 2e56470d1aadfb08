// internal/app/features/research/handler.go
package research

import (
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/researchhub/internal/app/features/errors"
	researchstore "github.com/dalemusser/researchhub/internal/app/store/research"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var errPaperIDRequired = errors.New("paper_id is required")

// Handler serves the research paper archive.
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
	switch {
	case errors.Is(err, researchstore.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, researchstore.ErrDuplicatePaperID),
		errors.Is(err, errPaperIDRequired):
		return http.StatusBadRequest, true
	}
	return 0, false
}
