package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/researchhub/internal/app/system/auth"
	"github.com/dalemusser/researchhub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testUserID returns a valid ObjectID hex string for tests.
func testUserID() string {
	return primitive.NewObjectID().Hex()
}

func TestIsAdmin_True_ForAdmin(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: "admin"})

	if !authz.IsAdmin(req) {
		t.Error("expected IsAdmin to return true for admin user")
	}
}

func TestIsAdmin_False_ForStudent(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: "student"})

	if authz.IsAdmin(req) {
		t.Error("expected IsAdmin to return false for student user")
	}
}

func TestIsStudent_And_IsProfessor(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: "Professor"})

	if !authz.IsProfessor(req) {
		t.Error("expected IsProfessor to be true (role is case-insensitive)")
	}
	if authz.IsStudent(req) {
		t.Error("expected IsStudent to be false for professor")
	}
}

func TestUserCtx_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)

	role, name, uid, ok := authz.UserCtx(req)
	if ok {
		t.Error("expected ok=false without a user")
	}
	if role != "visitor" || name != "" || uid != primitive.NilObjectID {
		t.Errorf("got (%q, %q, %v), want (visitor, \"\", nil id)", role, name, uid)
	}
}

func TestUserCtx_MalformedID(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "not-hex", Role: "admin"})

	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected ok=false for malformed user id")
	}
	if authz.IsAdmin(req) {
		t.Error("expected IsAdmin to fail closed for malformed user id")
	}
}

func TestIsSelfOrAdmin(t *testing.T) {
	owner := primitive.NewObjectID()

	self := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: owner.Hex(), Role: "student"})
	if !authz.IsSelfOrAdmin(self, owner) {
		t.Error("expected owner to pass")
	}

	other := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: testUserID(), Role: "student"})
	if authz.IsSelfOrAdmin(other, owner) {
		t.Error("expected other student to fail")
	}

	admin := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: testUserID(), Role: "admin"})
	if !authz.IsSelfOrAdmin(admin, owner) {
		t.Error("expected admin to pass")
	}
}

func TestHasAnyRole(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: testUserID(), Role: "student"})

	if !authz.HasAnyRole(req, "admin", " Student ") {
		t.Error("expected HasAnyRole to match trimmed, case-folded role")
	}
	if authz.HasRole(req, "professor") {
		t.Error("expected HasRole(professor) to be false")
	}
	if role, ok := authz.Role(req); !ok || role != "student" {
		t.Errorf("Role: got (%q, %v), want (student, true)", role, ok)
	}
}
