package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/researchhub/internal/client"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newClient(t *testing.T, h http.HandlerFunc) (*client.Client, *client.MemoryTokens) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tokens := &client.MemoryTokens{}
	return client.New(srv.URL, tokens, zap.NewNop()), tokens
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLogin_StoresTokenAndSendsBearer(t *testing.T) {
	var gotAuth string
	c, tokens := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			if err := r.ParseForm(); err != nil || r.PostForm.Get("username") != "ada@test.edu" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "bad form"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok-1", "token_type": "bearer"})
		case "/api/v1/auth/me":
			gotAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, map[string]string{"email": "ada@test.edu", "role": "student"})
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	if err := c.Auth.Login(ctx, "ada@test.edu", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tokens.Token() != "tok-1" {
		t.Errorf("stored token: got %q", tokens.Token())
	}
	u, err := c.Auth.Me(ctx)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if u.Email != "ada@test.edu" {
		t.Errorf("email: got %q", u.Email)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization: got %q", gotAuth)
	}
}

func TestAPIError_Detail(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "This request has already been accepted"})
	})

	_, err := c.Mentorship.UpdateStatus(context.Background(), primitive.NewObjectID(), client.Accepted{})
	var ae *client.APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if ae.Status != http.StatusBadRequest || ae.Detail != "This request has already been accepted" {
		t.Errorf("unexpected error: %+v", ae)
	}
	if client.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("StatusOf: got %d", client.StatusOf(err))
	}
}

func TestUnauthorized_ClearsToken(t *testing.T) {
	c, tokens := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	})
	_ = tokens.SetToken("stale")

	_, err := c.Notifications.UnreadCount(context.Background())
	if !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if tokens.Token() != "" {
		t.Error("token should be cleared after 401")
	}
}

func TestUpdateStatus_RejectWithoutReasonSendsNothing(t *testing.T) {
	var hits atomic.Int32
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{})
	})

	for _, reason := range []string{"", "   "} {
		_, err := c.Mentorship.UpdateStatus(context.Background(), primitive.NewObjectID(), client.Rejected{Reason: reason})
		if !errors.Is(err, client.ErrReasonRequired) {
			t.Errorf("reason %q: expected ErrReasonRequired, got %v", reason, err)
		}
	}
	if _, err := c.Mentorship.UpdateStatus(context.Background(), primitive.NewObjectID(), client.Pending{}); err == nil {
		t.Error("responding with pending must fail")
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestUpdateStatus_RejectSendsReason(t *testing.T) {
	var body map[string]string
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, models.MentorshipRequest{Status: "rejected", RejectionReason: body["rejection_reason"]})
	})

	got, err := c.Mentorship.UpdateStatus(context.Background(), primitive.NewObjectID(), client.Rejected{Reason: "at capacity"})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if body["status"] != "rejected" || body["rejection_reason"] != "at capacity" {
		t.Errorf("body: %v", body)
	}
	if got.RejectionReason != "at capacity" {
		t.Errorf("response: %+v", got)
	}
}

func TestBootstrap(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		if _, ok, err := c.Bootstrap(context.Background()); ok || err != nil {
			t.Errorf("got ok=%v err=%v", ok, err)
		}
	})

	t.Run("valid", func(t *testing.T) {
		c, tokens := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"email": "p@test.edu", "role": "professor"})
		})
		_ = tokens.SetToken("good")
		u, ok, err := c.Bootstrap(context.Background())
		if !ok || err != nil || u.Role != "professor" {
			t.Errorf("got %+v ok=%v err=%v", u, ok, err)
		}
	})

	t.Run("rejected token", func(t *testing.T) {
		c, tokens := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
		})
		_ = tokens.SetToken("expired")
		if _, ok, err := c.Bootstrap(context.Background()); ok || err != nil {
			t.Errorf("got ok=%v err=%v", ok, err)
		}
		if tokens.Token() != "" {
			t.Error("token should be cleared")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		old := client.BootstrapTimeout
		client.BootstrapTimeout = 50 * time.Millisecond
		defer func() { client.BootstrapTimeout = old }()

		release := make(chan struct{})
		c, tokens := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		})
		defer close(release)
		_ = tokens.SetToken("slow")

		_, ok, err := c.Bootstrap(context.Background())
		if ok || !errors.Is(err, client.ErrBootstrapTimeout) {
			t.Errorf("got ok=%v err=%v", ok, err)
		}
		if tokens.Token() != "" {
			t.Error("token should be cleared on timeout")
		}
	})
}

func TestParseStatus(t *testing.T) {
	s, err := client.ParseStatus("rejected", "full")
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if r, ok := s.(client.Rejected); !ok || r.Reason != "full" {
		t.Errorf("got %#v", s)
	}
	if _, err := client.ParseStatus("maybe", ""); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestFileTokens_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", ".researchctl.yaml")

	ft, err := client.LoadFileTokens(path)
	if err != nil {
		t.Fatalf("LoadFileTokens (missing): %v", err)
	}
	if err := ft.SetBaseURL("http://localhost:8080"); err != nil {
		t.Fatalf("SetBaseURL: %v", err)
	}
	if err := ft.SetToken("abc"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	again, err := client.LoadFileTokens(path)
	if err != nil {
		t.Fatalf("LoadFileTokens: %v", err)
	}
	if cfg := again.Config(); cfg.BaseURL != "http://localhost:8080" || cfg.AccessToken != "abc" {
		t.Errorf("config: %+v", cfg)
	}

	if err := again.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	third, _ := client.LoadFileTokens(path)
	if third.Token() != "" {
		t.Errorf("token after clear: %q", third.Token())
	}
}

func TestGroupsRespond_UsesStatusQuery(t *testing.T) {
	var gotQuery, gotPath string
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.Query().Get("status")
		writeJSON(w, http.StatusOK, map[string]string{"message": "Invitation accepted"})
	})
	id := primitive.NewObjectID()
	msg, err := c.Groups.RespondInvitation(context.Background(), id, client.Accepted{})
	if err != nil {
		t.Fatalf("RespondInvitation: %v", err)
	}
	if gotPath != "/api/v1/groups/invitations/"+id.Hex()+"/status" || gotQuery != "accepted" {
		t.Errorf("request: %s ?status=%s", gotPath, gotQuery)
	}
	if msg != "Invitation accepted" {
		t.Errorf("message: %q", msg)
	}
}
