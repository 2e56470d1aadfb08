package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/researchhub/internal/app/system/jsonutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the authenticated principal injected into r.Context()
// after a bearer token has been verified.
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// UserFetcher loads fresh user data for a verified token so that role
// changes and deleted accounts take effect immediately.
type UserFetcher interface {
	FetchUser(ctx context.Context, id primitive.ObjectID) (*SessionUser, error)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects u into the request context. Tests use it to bypass
// token verification.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadBearerUser injects the user into context when the request carries a
// valid "Authorization: Bearer <token>" header. Requests without a token or
// with an invalid one continue anonymously; RequireSignedIn rejects them.
func (tm *TokenManager) LoadBearerUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := tm.Parse(raw)
		if err != nil {
			tm.log.Debug("bearer token rejected", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		u := &SessionUser{
			ID:    claims.UserID,
			Name:  claims.Name,
			Email: claims.Subject,
			Role:  claims.Role,
		}

		if tm.fetcher != nil {
			oid, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			fresh, err := tm.fetcher.FetchUser(r.Context(), oid)
			if err != nil || fresh == nil {
				// Deleted account or lookup failure: treat as anonymous.
				if err != nil {
					tm.log.Warn("user fetch failed", zap.String("user_id", claims.UserID), zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}
			u = fresh
		}

		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadBearerUser).
// Anonymous callers get 401 with a JSON detail body.
func (tm *TokenManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("WWW-Authenticate", "Bearer")
		jsonutil.Detail(w, http.StatusUnauthorized, "Could not validate credentials")
	})
}

// RequireRole ensures there is a user with one of the allowed roles.
// Anonymous callers get 401; signed-in users with the wrong role get 403.
func (tm *TokenManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				jsonutil.Detail(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				jsonutil.Detail(w, http.StatusForbidden, "Not enough permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}
