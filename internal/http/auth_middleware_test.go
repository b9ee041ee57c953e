package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ybilyk/contactbook/internal/token"
)

func newAuthRequest(header string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/auth/current", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	return req, httptest.NewRecorder()
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "valid", header: "Bearer abc123", want: "abc123"},
		{name: "case insensitive scheme", header: "bearer abc123", want: "abc123"},
		{name: "missing header", header: "", wantErr: true},
		{name: "wrong scheme", header: "Token abc123", wantErr: true},
		{name: "no token", header: "Bearer", wantErr: true},
		{name: "extra parts", header: "Bearer abc 123", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := bearerToken(tc.header)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.header)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMiddlewareRejectionMatrix(t *testing.T) {
	env := newTestEnv(t)
	valid := env.signupAndSignin(t, "a@x.com", "password1")

	userRecord, err := env.users.GetUserByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("lookup user: %v", err)
	}
	expired, err := token.Issue(userRecord.ID, "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}
	foreignSecret, err := token.Issue(userRecord.ID, "other-secret", time.Hour)
	if err != nil {
		t.Fatalf("issue foreign token: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Token " + valid},
		{name: "garbage token", header: "Bearer not.a.token"},
		{name: "expired token", header: "Bearer " + expired},
		{name: "wrong signing secret", header: "Bearer " + foreignSecret},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, rec := newAuthRequest(tc.header)
			env.router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status %d, want 401", rec.Code)
			}
		})
	}

	// A cryptographically valid token for a deleted user is rejected too.
	env.users.delete(userRecord.ID)
	req, rec := newAuthRequest("Bearer " + valid)
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user token: status %d, want 401", rec.Code)
	}
}
