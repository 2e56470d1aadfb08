// internal/app/features/professors/handler.go
package professors

import (
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/researchhub/internal/app/features/errors"
	"github.com/dalemusser/researchhub/internal/app/features/shared/accounts"
	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the professor directory and admin profile management.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *errorsfeature.ErrorLogger
	Accounts *accounts.Provisioner
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errorsfeature.NewErrorLogger(logger, classify, requestflow.HTTPStatus),
		Accounts: accounts.New(db, logger),
	}
}

func classify(err error) (int, bool) {
	if errors.Is(err, accounts.ErrNameRequired) || errors.Is(err, accounts.ErrIDRequired) {
		return http.StatusBadRequest, true
	}
	return 0, false
}
