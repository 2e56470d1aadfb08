// internal/app/features/auth/login.go
package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	errorsfeature "github.com/dalemusser/researchhub/internal/app/features/errors"
	loginstore "github.com/dalemusser/researchhub/internal/app/store/logins"
	userstore "github.com/dalemusser/researchhub/internal/app/store/users"
	"github.com/dalemusser/researchhub/internal/app/system/authutil"
	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"github.com/dalemusser/researchhub/internal/app/system/normalize"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const badCredentials = "Incorrect email or password"

// Token is the login response body.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// HandleLogin exchanges form credentials for a bearer token. The form uses
// the OAuth2 password-grant field names; "email" is accepted in place of
// "username".
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse login form", err, "Invalid form body")
		return
	}
	email := normalize.Email(r.PostFormValue("username"))
	if email == "" {
		email = normalize.Email(r.PostFormValue("email"))
	}
	password := r.PostFormValue("password")
	if email == "" || strings.TrimSpace(password) == "" {
		errorsfeature.BadRequest(w, "Email and password are required")
		return
	}

	if h.Limiter != nil {
		if d := h.Limiter.Check(r, email); !d.Allowed {
			h.Log.Warn("login rate limited", zap.String("email", email), zap.Duration("retry_after", d.RetryAfter))
			w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds()))
			jsonutil.Detail(w, http.StatusTooManyRequests, d.Reason)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	u, err := userstore.New(h.DB).GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		errorsfeature.Unauthorized(w, badCredentials)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user for login", err)
		return
	}
	if !authutil.CheckPassword(password, u.HashedPassword) {
		h.Log.Info("login failed", zap.String("user_id", u.ID.Hex()))
		errorsfeature.Unauthorized(w, badCredentials)
		return
	}

	tok, err := h.Tokens.Issue(*u)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "issue token", err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	if err := loginstore.New(h.DB).CreateFrom(ctx, r, *u); err != nil {
		h.Log.Warn("failed to record login", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}

	h.Log.Info("user logged in", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))
	jsonutil.Write(w, http.StatusOK, Token{AccessToken: tok, TokenType: "bearer"})
}
