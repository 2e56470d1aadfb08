// internal/app/features/students/handler.go
package students

import (
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/researchhub/internal/app/features/errors"
	"github.com/dalemusser/researchhub/internal/app/features/shared/accounts"
	"github.com/dalemusser/researchhub/internal/app/features/shared/requestflow"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var errLeadsGroup = errors.New("This student leads a group. Delete the group first.")

// Handler serves the student directory and admin profile management.
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
	switch {
	case errors.Is(err, errLeadsGroup),
		errors.Is(err, accounts.ErrNameRequired),
		errors.Is(err, accounts.ErrIDRequired):
		return http.StatusBadRequest, true
	}
	return 0, false
}
