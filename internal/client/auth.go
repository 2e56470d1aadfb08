// internal/client/auth.go
package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.uber.org/zap"
)

// BootstrapTimeout bounds the current-user check made at startup.
var BootstrapTimeout = 5 * time.Second

// ErrBootstrapTimeout is returned by Bootstrap when /auth/me does not
// answer within BootstrapTimeout.
var ErrBootstrapTimeout = errors.New("timed out loading the current user")

type AuthService struct{ c *Client }

// Registration is the body of POST /auth/register. Profile fields apply to
// the chosen role.
type Registration struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`

	StudentID   string   `json:"student_id,omitempty"`
	GPA         *float64 `json:"gpa,omitempty"`
	Major       string   `json:"major,omitempty"`
	Year        string   `json:"year,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	ProfessorID string   `json:"professor_id,omitempty"`
	Field       string   `json:"field,omitempty"`
	Department  string   `json:"department,omitempty"`
	Faculty     string   `json:"faculty,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a token and stores it.
func (s *AuthService) Login(ctx context.Context, email, password string) error {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var tok tokenResponse
	if err := s.c.postForm(ctx, "/auth/login", form, &tok); err != nil {
		return err
	}
	return s.c.Tokens.SetToken(tok.AccessToken)
}

// Logout forgets the stored token. The server keeps no session.
func (s *AuthService) Logout() error {
	return s.c.Tokens.Clear()
}

func (s *AuthService) Register(ctx context.Context, in Registration) (models.User, error) {
	var u models.User
	err := s.c.do(ctx, http.MethodPost, "/auth/register", nil, in, &u)
	return u, err
}

func (s *AuthService) Me(ctx context.Context) (models.User, error) {
	var u models.User
	err := s.c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &u)
	return u, err
}

func (s *AuthService) StudentProfile(ctx context.Context) (models.Student, error) {
	var st models.Student
	err := s.c.do(ctx, http.MethodGet, "/auth/student-profile", nil, nil, &st)
	return st, err
}

func (s *AuthService) ProfessorProfile(ctx context.Context) (models.Professor, error) {
	var p models.Professor
	err := s.c.do(ctx, http.MethodGet, "/auth/professor-profile", nil, nil, &p)
	return p, err
}

// Bootstrap restores a session from the stored token. It returns
// ok=false without error when no token is stored. A 401 or a timeout
// clears the token.
func (c *Client) Bootstrap(ctx context.Context) (models.User, bool, error) {
	if c.Tokens.Token() == "" {
		return models.User{}, false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, BootstrapTimeout)
	defer cancel()

	type result struct {
		u   models.User
		err error
	}
	done := make(chan result, 1)
	go func() {
		u, err := c.Auth.Me(ctx)
		done <- result{u, err}
	}()

	select {
	case res := <-done:
		if errors.Is(res.err, ErrUnauthorized) {
			return models.User{}, false, nil
		}
		if res.err != nil {
			return models.User{}, false, res.err
		}
		return res.u, true, nil
	case <-ctx.Done():
		if err := c.Tokens.Clear(); err != nil {
			c.Log.Warn("clear token failed", zap.Error(err))
		}
		return models.User{}, false, ErrBootstrapTimeout
	}
}
