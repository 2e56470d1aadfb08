package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// Issuer is stamped into every access token.
const Issuer = "researchhub"

// MinSecretLen is the shortest signing secret NewTokenManager accepts.
const MinSecretLen = 16

var (
	ErrSecretTooShort = errors.New("jwt secret too short")
	ErrInvalidToken   = errors.New("invalid token")
)

// Claims are the access-token claims. Subject carries the user's email.
type Claims struct {
	UserID string `json:"uid"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access tokens and provides the
// bearer-auth middleware.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	fetcher UserFetcher
	log     *zap.Logger
}

// NewTokenManager builds a TokenManager. ttl is the access-token lifetime.
func NewTokenManager(secret string, ttl time.Duration, logger *zap.Logger) (*TokenManager, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrSecretTooShort
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, log: logger}, nil
}

// SetUserFetcher makes LoadBearerUser refresh the principal from storage
// on each request.
func (tm *TokenManager) SetUserFetcher(f UserFetcher) {
	tm.fetcher = f
}

// Issue signs an access token for u.
func (tm *TokenManager) Issue(u models.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: u.ID.Hex(),
		Name:   u.Name,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// Parse verifies raw and returns its claims.
func (tm *TokenManager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if !claims.VerifyIssuer(Issuer, true) {
		return nil, fmt.Errorf("%w: bad issuer", ErrInvalidToken)
	}
	return claims, nil
}
