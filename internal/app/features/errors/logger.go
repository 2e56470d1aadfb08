// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// InternalDetail is the only detail a client sees for an unexpected error.
const InternalDetail = "internal error"

// Classifier maps a known domain error to a status code. ok is false when
// the error is not one it recognizes.
type Classifier func(err error) (code int, ok bool)

// ErrorLogger writes JSON error responses and logs the ones that matter.
// Known domain errors become {"detail": err.Error()} with the classified
// status; everything else is logged and answered with a bare 500.
type ErrorLogger struct {
	Log      *zap.Logger
	classify []Classifier
}

// NewErrorLogger builds an ErrorLogger. Classifiers are tried in order.
func NewErrorLogger(logger *zap.Logger, classifiers ...Classifier) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger, classify: classifiers}
}

// Fail answers err. Known errors are written as-is; unknown ones go to
// LogServerError.
func (el *ErrorLogger) Fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	for _, c := range el.classify {
		if code, ok := c(err); ok {
			if code >= http.StatusInternalServerError {
				break
			}
			el.Log.Debug(op, zap.Int("status", code), zap.String("detail", err.Error()),
				zap.String("method", r.Method), zap.String("path", r.URL.Path))
			jsonutil.Detail(w, code, err.Error())
			return
		}
	}
	el.LogServerError(w, r, op, err)
}

// LogServerError logs err with request context and writes a 500.
func (el *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	el.Log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	jsonutil.Detail(w, http.StatusInternalServerError, InternalDetail)
}

// LogBadRequest logs a malformed request at Debug and writes a 400 with detail.
func (el *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, detail string) {
	el.Log.Debug(msg, zap.Error(err), zap.String("path", r.URL.Path))
	jsonutil.Detail(w, http.StatusBadRequest, detail)
}
