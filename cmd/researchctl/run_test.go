package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/researchhub/internal/client"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cfg := filepath.Join(t.TempDir(), "researchctl.yaml")
	code := run(context.Background(), append([]string{"--config", cfg}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "frobnicate")
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr, `unknown command "frobnicate"`) {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_Template(t *testing.T) {
	code, out, _ := runCLI(t, "template", "professors")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(out, "name,professor_id,faculty,field,department") {
		t.Errorf("template = %q", out)
	}
}

func TestRun_ImportReportsRowErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.csv")
	data := "name,student_id,gpa,major,faculty,year\nAda,S1,4.5,CS,FAST,2021\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	code, out, stderr := runCLI(t, "import", "students", path)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, "Row 2: Invalid GPA (must be 0-4.0)") {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(stderr, "nothing uploaded") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_RespondRejectNeedsReason(t *testing.T) {
	code, _, stderr := runCLI(t, "respond", primitive.NewObjectID().Hex(), "reject")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "--reason is required") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_LoginThenMe(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Name: "Ada Lovelace", Email: "ada@test.edu", Role: models.RoleStudent}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case client.APIPrefix + "/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "token_type": "bearer"})
		case client.APIPrefix + "/auth/me":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
				return
			}
			_ = json.NewEncoder(w).Encode(user)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := filepath.Join(t.TempDir(), "researchctl.yaml")
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"--config", cfg, "--server", srv.URL,
		"login", "--email", "ada@test.edu", "--password", "secret"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("login exit = %d, stderr = %q", code, errOut.String())
	}
	if !strings.Contains(out.String(), "signed in as Ada Lovelace (student)") {
		t.Errorf("login output = %q", out.String())
	}

	// The token and server are read back from the settings file.
	out.Reset()
	code = run(context.Background(), []string{"--config", cfg, "me"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("me exit = %d, stderr = %q", code, errOut.String())
	}
	if !strings.Contains(out.String(), "Ada Lovelace <ada@test.edu>") {
		t.Errorf("me output = %q", out.String())
	}
}

func TestRun_MeWithoutLogin(t *testing.T) {
	code, _, stderr := runCLI(t, "me")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "not signed in") {
		t.Errorf("stderr = %q", stderr)
	}
}
