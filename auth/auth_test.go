package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	raw, err := tokens.Issue(42, "admin")
	if err != nil {
		t.Fatal(err)
	}
	uid, role, err := tokens.Parse(raw)
	if err != nil || uid != 42 || role != "admin" {
		t.Fatalf("Parse() = %d, %q, %v", uid, role, err)
	}

	other := NewTokens("other-secret", time.Hour)
	if _, _, err := other.Parse(raw); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestExpiredToken(t *testing.T) {
	tokens := NewTokens("s", time.Minute)
	issued := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }
	raw, err := tokens.Issue(7, "user")
	if err != nil {
		t.Fatal(err)
	}
	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, _, err := tokens.Parse(raw); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "correct horse") || CheckPassword(hash, "wrong") {
		t.Fatal("password check mismatch")
	}
}

func TestMiddlewareChain(t *testing.T) {
	tokens := NewTokens("s", time.Hour)
	userTok, _ := tokens.Issue(5, "user")
	adminTok, _ := tokens.Issue(1, "admin")

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	tests := []struct {
		name    string
		handler http.Handler
		token   string
		want    int
	}{
		{"auth without token", RequireAuth(ok), "", http.StatusUnauthorized},
		{"auth with garbage", RequireAuth(ok), "garbage", http.StatusUnauthorized},
		{"auth with user", RequireAuth(ok), userTok, http.StatusNoContent},
		{"admin with user", RequireAdmin(ok), userTok, http.StatusForbidden},
		{"admin with admin", RequireAdmin(ok), adminTok, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()
			tokens.Middleware(tt.handler).ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestVerifierRejectsDeletedUser(t *testing.T) {
	SetUserVerifier(func(ctx context.Context, uid uint) bool { return uid != 9 })
	t.Cleanup(func() { SetUserVerifier(nil) })

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(WithUserID(context.Background(), 9))
	rr := httptest.NewRecorder()
	RequireAuth(ok).ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}
