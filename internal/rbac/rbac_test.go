package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(nil)
	tests := []struct {
		role, perm string
		want       bool
	}{
		{"student", "session:grade", true},
		{"student", "session:view-all", false},
		{"student", "answers:reveal", false},
		{"student", "answerkey:upload", false},
		{"teacher", "session:view-all", true},
		{"teacher", "session:grade", true},
		{"teacher", "answerkey:upload", true},
		{"admin", "anything:at-all", true},
		{"ghost", "section:view", false},
	}
	for _, tc := range tests {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
	if !c.Any("student", "session:view-all", "session:view-own") {
		t.Error("Any() should accept view-own for students")
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require("answerkey:upload")(ok)

	for role, want := range map[string]int{"": 403, "student": 403, "teacher": 204} {
		req := httptest.NewRequest(http.MethodPost, "/answerkey", nil)
		req = req.WithContext(WithRole(context.Background(), role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("role %q: status %d, want %d", role, rec.Code, want)
		}
	}
}

func TestRequireAny(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireAny("session:view-own", "session:view-all")(ok)
	req := httptest.NewRequest(http.MethodGet, "/sessions/x", nil)
	req = req.WithContext(WithRole(context.Background(), "student"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestCheckerWildcards(t *testing.T) {
	c := NewChecker(map[string][]string{
		"grader": {"session:*"},
		"root":   {"*"},
		"viewer": {"section:view"},
	})
	tests := []struct {
		role, perm string
		want       bool
	}{
		{"grader", "session:grade", true},
		{"grader", "sessions:list", false},
		{"grader", "section:view", false},
		{"root", "answerkey:upload", true},
		{"viewer", "section:view", true},
		{"viewer", "section:viewer", false},
	}
	for _, tc := range tests {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestRoleFromContextEmpty(t *testing.T) {
	if got := RoleFromContext(context.Background()); got != "" {
		t.Fatalf("RoleFromContext() = %q", got)
	}
	if Allowed(context.Background(), "section:view") {
		t.Fatal("Allowed() without a role")
	}
}
