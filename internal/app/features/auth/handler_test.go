package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	authfeature "github.com/dalemusser/researchhub/internal/app/features/auth"
	"github.com/dalemusser/researchhub/internal/app/system/auth"
	"github.com/dalemusser/researchhub/internal/app/system/ratelimit"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"github.com/dalemusser/researchhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testSecret = "test-secret-0123456789abcdef"

func newHandler(t *testing.T, db *mongo.Database, limiter *ratelimit.LoginLimiter) (*authfeature.Handler, *auth.TokenManager) {
	t.Helper()
	tm, err := auth.NewTokenManager(testSecret, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	if limiter == nil {
		limiter = ratelimit.NewLoginLimiter(1000, 1000)
	}
	t.Cleanup(limiter.Close)
	return authfeature.NewHandler(db, tm, limiter, zap.NewNop()), tm
}

func loginRequest(email, password string) *http.Request {
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func anonymousJSON(method, target string, v any) *http.Request {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(v)
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLogin_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, tm := newHandler(t, db, nil)

	u := testutil.NewFixtures(t, db).CreateUser(ctx, "Ada Lovelace", models.RoleStudent)

	rec := testutil.NewRecorder()
	h.HandleLogin(rec, loginRequest(strings.ToUpper(u.Email), testutil.FixturePassword))
	rec.AssertStatus(t, http.StatusOK)

	var tok authfeature.Token
	rec.DecodeJSON(t, &tok)
	if tok.TokenType != "bearer" {
		t.Errorf("token_type: got %q, want bearer", tok.TokenType)
	}
	claims, err := tm.Parse(tok.AccessToken)
	if err != nil {
		t.Fatalf("Parse issued token: %v", err)
	}
	if claims.Subject != u.Email || claims.UserID != u.ID.Hex() || claims.Role != models.RoleStudent {
		t.Errorf("unexpected claims: %+v", claims)
	}

	n, err := db.Collection("login_records").CountDocuments(ctx, bson.M{"user_id": u.ID})
	if err != nil {
		t.Fatalf("count login records: %v", err)
	}
	if n != 1 {
		t.Errorf("login records: got %d, want 1", n)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, _ := newHandler(t, db, nil)

	u := testutil.NewFixtures(t, db).CreateUser(ctx, "Grace Hopper", models.RoleProfessor)

	rec := testutil.NewRecorder()
	h.HandleLogin(rec, loginRequest(u.Email, "not-the-password"))
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertDetail(t, "Incorrect email or password")
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Error("expected WWW-Authenticate: Bearer")
	}

	rec = testutil.NewRecorder()
	h.HandleLogin(rec, loginRequest("nobody@test.edu", "whatever1"))
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertDetail(t, "Incorrect email or password")
}

func TestLogin_RateLimitedPerAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _ := newHandler(t, db, ratelimit.NewLoginLimiter(100, 2))

	for i := 0; i < 2; i++ {
		rec := testutil.NewRecorder()
		h.HandleLogin(rec, loginRequest("victim@test.edu", "guess"))
		rec.AssertStatus(t, http.StatusUnauthorized)
	}
	rec := testutil.NewRecorder()
	h.HandleLogin(rec, loginRequest("victim@test.edu", "guess"))
	rec.AssertStatus(t, http.StatusTooManyRequests)
	rec.AssertDetail(t, ratelimit.MsgTooManyForAccount)
	if ra := rec.Header().Get("Retry-After"); ra == "" || ra == "0" {
		t.Errorf("Retry-After = %q, want a positive number of seconds", ra)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _ := newHandler(t, db, nil)

	rec := testutil.NewRecorder()
	h.HandleLogin(rec, loginRequest("", ""))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestRegister_StudentWithProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, _ := newHandler(t, db, nil)

	gpa := 3.9
	rec := testutil.NewRecorder()
	h.HandleRegister(rec, anonymousJSON("POST", "/api/v1/auth/register", map[string]any{
		"email":      "New.Student@Uni.edu",
		"name":       "New Student",
		"role":       "student",
		"password":   "s3cure-pass",
		"student_id": "S-100",
		"gpa":        gpa,
		"skills":     []string{"go", "Go", " rust "},
	}))
	rec.AssertStatus(t, http.StatusOK)

	var u models.User
	rec.DecodeJSON(t, &u)
	if u.Email != "new.student@uni.edu" || u.Role != models.RoleStudent {
		t.Errorf("unexpected user: %+v", u)
	}
	rec.AssertContains(t, `"email"`)
	if strings.Contains(rec.Body.String(), "hashed_password") {
		t.Error("response leaks the password hash")
	}

	var st models.Student
	if err := db.Collection("students").FindOne(ctx, bson.M{"user_id": u.ID}).Decode(&st); err != nil {
		t.Fatalf("student profile not created: %v", err)
	}
	if st.StudentID != "S-100" || st.GPA != gpa {
		t.Errorf("unexpected student: %+v", st)
	}
	if len(st.Skills) != 2 {
		t.Errorf("skills: got %v, want [go rust]", st.Skills)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, _ := newHandler(t, db, nil)

	u := testutil.NewFixtures(t, db).CreateUser(ctx, "Taken", models.RoleStudent)

	rec := testutil.NewRecorder()
	h.HandleRegister(rec, anonymousJSON("POST", "/api/v1/auth/register", map[string]any{
		"email": u.Email, "name": "Other", "role": "student", "password": "s3cure-pass",
	}))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertDetail(t, "Email already registered")
}

func TestRegister_AdminNeedsAdminCaller(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _ := newHandler(t, db, nil)
	body := map[string]any{"email": "boss@uni.edu", "name": "Boss", "role": "admin", "password": "s3cure-pass"}

	rec := testutil.NewRecorder()
	h.HandleRegister(rec, anonymousJSON("POST", "/api/v1/auth/register", body))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	h.HandleRegister(rec, testutil.NewJSONRequest("POST", "/api/v1/auth/register", body, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
}

func TestRegister_WeakPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _ := newHandler(t, db, nil)

	rec := testutil.NewRecorder()
	h.HandleRegister(rec, anonymousJSON("POST", "/api/v1/auth/register", map[string]any{
		"email": "weak@uni.edu", "name": "Weak", "role": "student", "password": "password",
	}))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeMe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, _ := newHandler(t, db, nil)

	u := testutil.NewFixtures(t, db).CreateUser(ctx, "Me Myself", models.RoleProfessor)

	rec := testutil.NewRecorder()
	h.ServeMe(rec, testutil.NewAuthenticatedRequest("GET", "/api/v1/auth/me", testutil.UserFor(u)))
	rec.AssertStatus(t, http.StatusOK)

	var got models.User
	rec.DecodeJSON(t, &got)
	if got.ID != u.ID || got.Name != "Me Myself" {
		t.Errorf("unexpected user: %+v", got)
	}
}

func TestStudentProfile_UpdateOwnFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, _ := newHandler(t, db, nil)

	u, st := testutil.NewFixtures(t, db).CreateStudent(ctx, "Profile Student")
	looking := false

	rec := testutil.NewRecorder()
	h.HandleUpdateStudentProfile(rec, testutil.NewJSONRequest("PUT", "/api/v1/auth/student-profile", map[string]any{
		"bio":               "<b>Hi</b> there",
		"skills":            []string{"go"},
		"looking_for_group": looking,
	}, testutil.UserFor(u)))
	rec.AssertStatus(t, http.StatusOK)

	var got models.StudentWithUser
	rec.DecodeJSON(t, &got)
	if got.ID != st.ID || got.Name != "Profile Student" {
		t.Errorf("unexpected profile: %+v", got)
	}
	if got.Bio != "Hi there" {
		t.Errorf("bio: got %q, want sanitized text", got.Bio)
	}
	if got.LookingForGroup {
		t.Error("looking_for_group should be false")
	}
	if got.GPA != st.GPA {
		t.Errorf("gpa changed: got %v", got.GPA)
	}
}

func TestStudentProfile_WrongRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, _ := newHandler(t, db, nil)

	u, _ := testutil.NewFixtures(t, db).CreateProfessor(ctx, "Not A Student", 3)

	rec := testutil.NewRecorder()
	h.ServeStudentProfile(rec, testutil.NewAuthenticatedRequest("GET", "/api/v1/auth/student-profile", testutil.UserFor(u)))
	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertDetail(t, "Only students can access student profiles")
}

func TestStudentProfile_Missing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, _ := newHandler(t, db, nil)

	u := testutil.NewFixtures(t, db).CreateUser(ctx, "No Profile", models.RoleStudent)

	rec := testutil.NewRecorder()
	h.ServeStudentProfile(rec, testutil.NewAuthenticatedRequest("GET", "/api/v1/auth/student-profile", testutil.UserFor(u)))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertDetail(t, "Student profile not found")
}

func TestProfessorProfile_TotalSlotsClamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h, _ := newHandler(t, db, nil)

	u, _ := testutil.NewFixtures(t, db).CreateProfessor(ctx, "Prof Clamp", 5)

	rec := testutil.NewRecorder()
	h.HandleUpdateProfessorProfile(rec, testutil.NewJSONRequest("PUT", "/api/v1/auth/professor-profile",
		map[string]any{"total_slots": 2, "research_interests": []string{"vision"}}, testutil.UserFor(u)))
	rec.AssertStatus(t, http.StatusOK)

	var got models.ProfessorWithUser
	rec.DecodeJSON(t, &got)
	if got.TotalSlots != 2 || got.AvailableSlots != 2 {
		t.Errorf("slots: got total=%d available=%d, want 2/2", got.TotalSlots, got.AvailableSlots)
	}
	if len(got.ResearchInterests) != 1 || got.ResearchInterests[0] != "vision" {
		t.Errorf("research_interests: got %v", got.ResearchInterests)
	}

	rec = testutil.NewRecorder()
	h.HandleUpdateProfessorProfile(rec, testutil.NewJSONRequest("PUT", "/api/v1/auth/professor-profile",
		map[string]any{"total_slots": 0}, testutil.UserFor(u)))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertDetail(t, "Total slots must be at least 1")
}
