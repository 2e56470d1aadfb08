// internal/client/client.go
//
// Package client is a typed client for the ResearchHub API. Components in
// the subpackages (bell, chat, csvimport, dashboard) are built on it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// APIPrefix is prepended to every resource path.
const APIPrefix = "/api/v1"

// DefaultTimeout bounds a single request when the caller's context has no
// deadline.
const DefaultTimeout = 30 * time.Second

// ErrUnauthorized is returned (wrapped in *APIError) for a 401. The stored
// token has already been cleared when it is seen.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response. Detail is the server's {"detail"} text.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Detail)
}

// Is lets errors.Is(err, ErrUnauthorized) match a 401.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Token() string
	SetToken(token string) error
	Clear() error
}

// Client talks to one ResearchHub server.
type Client struct {
	BaseURL string
	Tokens  TokenStore
	Log     *zap.Logger

	// Base is the transport used for every request. oauth2 wraps it to
	// attach the bearer header.
	Base *http.Client

	Auth          *AuthService
	Students      *StudentsService
	Professors    *ProfessorsService
	Research      *ResearchService
	Groups        *GroupsService
	Mentorship    *MentorshipService
	Notifications *NotificationsService
	Chat          *ChatService
	Matching      *MatchingService
}

// New returns a Client for baseURL (scheme and host, no /api/v1).
// A nil tokens uses an in-memory store; a nil logger is a no-op.
func New(baseURL string, tokens TokenStore, logger *zap.Logger) *Client {
	if tokens == nil {
		tokens = &MemoryTokens{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Tokens:  tokens,
		Log:     logger,
		Base:    &http.Client{Timeout: DefaultTimeout},
	}
	c.Auth = &AuthService{c: c}
	c.Students = &StudentsService{c: c}
	c.Professors = &ProfessorsService{c: c}
	c.Research = &ResearchService{c: c}
	c.Groups = &GroupsService{c: c}
	c.Mentorship = &MentorshipService{c: c}
	c.Notifications = &NotificationsService{c: c}
	c.Chat = &ChatService{c: c}
	c.Matching = &MatchingService{c: c}
	return c
}

// httpClient returns Base, wrapped with the stored bearer token if any.
func (c *Client) httpClient(ctx context.Context) *http.Client {
	tok := c.Tokens.Token()
	if tok == "" {
		return c.Base
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.Base)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: tok,
		TokenType:   "Bearer",
	}))
	hc.Timeout = c.Base.Timeout
	return hc
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := c.BaseURL + APIPrefix + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// do sends a JSON request. in may be nil; out may be nil to discard the body.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(ctx, req, out)
}

// postForm sends an urlencoded form (the login endpoint takes one).
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return c.send(ctx, req, out)
}

func (c *Client) send(ctx context.Context, req *http.Request, out any) error {
	resp, err := c.httpClient(ctx).Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Detail: readDetail(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized {
			if err := c.Tokens.Clear(); err != nil {
				c.Log.Warn("clear token failed", zap.Error(err))
			}
		}
		c.Log.Debug("api error",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", apiErr.Status),
			zap.String("detail", apiErr.Detail))
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil {
		return ""
	}
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &env) == nil && len(env.Detail) > 0 {
		var s string
		if json.Unmarshal(env.Detail, &s) == nil {
			return s
		}
		return string(env.Detail)
	}
	return strings.TrimSpace(string(raw))
}

// Page is a skip/limit window. Zero values use the server defaults.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) values() url.Values {
	q := url.Values{}
	if p.Skip > 0 {
		q.Set("skip", fmt.Sprint(p.Skip))
	}
	if p.Limit > 0 {
		q.Set("limit", fmt.Sprint(p.Limit))
	}
	return q
}

// Message is the {"message"} body several actions return.
type Message struct {
	Message string `json:"message"`
}
