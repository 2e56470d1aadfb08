// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
)

// Handler serves the router's fallback responses as JSON envelopes.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.Detail(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed answers known routes hit with the wrong verb.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonutil.Detail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// Unauthorized writes the 401 envelope with the bearer challenge header.
func Unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	jsonutil.Detail(w, http.StatusUnauthorized, detail)
}

// Forbidden writes a 403 envelope.
func Forbidden(w http.ResponseWriter, detail string) {
	jsonutil.Detail(w, http.StatusForbidden, detail)
}

// BadRequest writes a 400 envelope.
func BadRequest(w http.ResponseWriter, detail string) {
	jsonutil.Detail(w, http.StatusBadRequest, detail)
}

// NotFoundDetail writes a 404 envelope.
func NotFoundDetail(w http.ResponseWriter, detail string) {
	jsonutil.Detail(w, http.StatusNotFound, detail)
}
