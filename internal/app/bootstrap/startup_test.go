package bootstrap

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	userstore "github.com/dalemusser/researchhub/internal/app/store/users"
	"github.com/dalemusser/researchhub/internal/app/system/auth"
	"github.com/dalemusser/researchhub/internal/app/system/authutil"
	"github.com/dalemusser/researchhub/internal/app/system/ratelimit"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/researchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}

	if err := ensureAdmin(ctx, deps, "admin@test.edu", "s3cret-pass", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByEmail(ctx, "admin@test.edu")
	if err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %q", u.Role)
	}
	if !authutil.CheckPassword("s3cret-pass", u.HashedPassword) {
		t.Error("stored hash does not match the configured password")
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	existing := fx.CreateUser(ctx, "Existing User", models.RoleProfessor)

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, existing.Email, "ignored-pass", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	var u models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": existing.ID}).Decode(&u); err != nil {
		t.Fatalf("find user: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("expected promotion to admin, got %q", u.Role)
	}
	if u.HashedPassword != existing.HashedPassword {
		t.Error("promotion must not change the password")
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": existing.Email})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 user with that email, got %d", n)
	}
}

func TestEnsureAdmin_InvalidEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := ensureAdmin(ctx, DBDeps{MongoDatabase: db}, "not-an-email", "pw", testLogger()); err == nil {
		t.Error("expected error for malformed admin email")
	}
}

const seedYAML = `
students:
  - name: Ada Park
    student_id: S1001
    email: ada@test.edu
    password: correct-horse-1
    gpa: 3.8
    major: Computer Science
    faculty: Engineering
    year: "3"
    skills: [python, nlp]
professors:
  - name: Dr. Kim
    professor_id: P2001
    faculty: Engineering
    field: AI
    department: CS
    research_areas: [machine learning]
    total_slots: 3
`

func TestParseSeed(t *testing.T) {
	sf, err := ParseSeed([]byte(seedYAML))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if len(sf.Students) != 1 || sf.Students[0].StudentID != "S1001" || sf.Students[0].GPA != 3.8 {
		t.Errorf("students: %+v", sf.Students)
	}
	if len(sf.Professors) != 1 || sf.Professors[0].TotalSlots != 3 {
		t.Errorf("professors: %+v", sf.Professors)
	}

	if _, err := ParseSeed([]byte("students:\n  - nmae: typo\n")); err == nil {
		t.Error("expected unknown key to be rejected")
	}
}

func TestSeedFromFile_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	deps := DBDeps{MongoDatabase: db}

	for i := 0; i < 2; i++ {
		if err := seedFromFile(ctx, deps, path, testLogger()); err != nil {
			t.Fatalf("seed run %d: %v", i, err)
		}
	}

	for coll, want := range map[string]int64{"users": 2, "students": 1, "professors": 1} {
		n, err := db.Collection(coll).CountDocuments(ctx, bson.M{})
		if err != nil {
			t.Fatalf("count %s: %v", coll, err)
		}
		if n != want {
			t.Errorf("%s: got %d, want %d", coll, n, want)
		}
	}
}

func TestSeedFromFile_Missing(t *testing.T) {
	if err := seedFromFile(t.Context(), DBDeps{}, filepath.Join(t.TempDir(), "nope.yaml"), testLogger()); err == nil {
		t.Error("expected error for missing seed file")
	}
}

func TestValidateAppConfig(t *testing.T) {
	good := AppConfig{JWTSecret: devJWTSecret, JWTTTL: time.Hour, LoginRateIP: 5, LoginRateEmail: 5}

	if err := validateAppConfig("dev", good); err != nil {
		t.Errorf("dev with default secret: %v", err)
	}
	if err := validateAppConfig("prod", good); err == nil {
		t.Error("prod must refuse the development secret")
	}

	strong := good
	strong.JWTSecret = "0123456789abcdef0123456789abcdef-prod"
	if err := validateAppConfig("prod", strong); err != nil {
		t.Errorf("prod with strong secret: %v", err)
	}

	noPass := good
	noPass.AdminEmail = "admin@test.edu"
	if err := validateAppConfig("dev", noPass); err == nil {
		t.Error("admin_email without admin_password must fail")
	}

	badTTL := good
	badTTL.JWTTTL = 0
	if err := validateAppConfig("dev", badTTL); err == nil {
		t.Error("zero jwt_ttl must fail")
	}

	noInterval := good
	noInterval.NotificationRetention = time.Hour
	if err := validateAppConfig("dev", noInterval); err == nil {
		t.Error("retention without cleanup_interval must fail")
	}
	noInterval.CleanupInterval = time.Minute
	if err := validateAppConfig("dev", noInterval); err != nil {
		t.Errorf("retention with interval: %v", err)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test , ,http://b.test")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("splitList: %q", got)
	}
}

func TestRouter_Mounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	tokens, err := auth.NewTokenManager(devJWTSecret, time.Hour, testLogger())
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	limiter := ratelimit.NewLoginLimiter(10, 10)
	defer limiter.Close()

	cfg := AppConfig{Version: "1.0.0", CORSAllowedOrigins: []string{"http://localhost:3000"}}
	r := newRouter(cfg, DBDeps{MongoClient: db.Client(), MongoDatabase: db}, tokens, limiter, testLogger())

	tests := []struct {
		method, path string
		want         int
	}{
		{"GET", "/", http.StatusOK},
		{"GET", "/health", http.StatusOK},
		{"GET", "/api/v1/nope", http.StatusNotFound},
		{"GET", "/api/v1/groups", http.StatusUnauthorized},
		{"GET", "/api/v1/groups/", http.StatusUnauthorized},
		{"GET", "/api/v1/notifications/unread-count", http.StatusUnauthorized},
		{"POST", "/api/v1/matching/match", http.StatusUnauthorized},
		{"GET", "/api/v1/auth/me", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, testutil.NewRequest(tt.method, tt.path))
		if rec.Code != tt.want {
			t.Errorf("%s %s: got %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest("GET", "/api/v1/nope"))
	rec.AssertDetail(t, "Not Found")
}

func TestRouter_CORSPreflight(t *testing.T) {
	db := testutil.SetupTestDB(t)
	tokens, err := auth.NewTokenManager(devJWTSecret, time.Hour, testLogger())
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	cfg := AppConfig{CORSAllowedOrigins: []string{"http://localhost:3000"}}
	r := newRouter(cfg, DBDeps{MongoClient: db.Client(), MongoDatabase: db}, tokens, nil, testLogger())

	req := testutil.NewRequest("OPTIONS", "/api/v1/groups")
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin: got %q", got)
	}
}
