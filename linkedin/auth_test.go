package linkedin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthenticatedOnlyWithToken(t *testing.T) {
	a := NewAuth("id", "secret")
	if a.Authenticated() {
		t.Error("fresh session should not be authenticated")
	}

	a = NewAuth("id", "secret", WithToken("tok", "person"))
	if !a.Authenticated() {
		t.Error("session with token should be authenticated")
	}
	if a.PersonID() != "person" {
		t.Errorf("person id = %q", a.PersonID())
	}
}

func TestProfileResolvesPersonID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			http.NotFound(w, r)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("authorization header = %q", auth)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"sub":  "abc123",
			"name": "Test User",
		})
	}))
	defer srv.Close()

	a := NewAuth("id", "secret",
		WithEndpoints(srv.URL, srv.URL, srv.URL),
		WithToken("tok", ""))

	profile, err := a.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile["name"] != "Test User" {
		t.Errorf("profile name = %v", profile["name"])
	}
	if a.PersonID() != "abc123" {
		t.Errorf("person id = %q, want sub from userinfo", a.PersonID())
	}
}

func TestProfileRequiresToken(t *testing.T) {
	a := NewAuth("id", "secret")
	if _, err := a.Profile(context.Background()); err == nil {
		t.Fatal("expected error without access token")
	}
}
