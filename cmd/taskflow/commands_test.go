package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/taskflow/client-core-go/internal/api"
	"github.com/taskflow/client-core-go/internal/app"
	"github.com/taskflow/client-core-go/internal/config"
)

func newTestApp(t *testing.T, handler http.Handler) *app.Context {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := config.Config{
		APIBaseURL:     srv.URL,
		StateDir:       filepath.Join(t.TempDir(), "state"),
		RequestTimeout: 5 * time.Second,
	}
	c, err := app.New(cfg, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("building app context: %v", err)
	}
	return c
}

func TestLoginRejectedCredentialSubmitsOnce(t *testing.T) {
	var requests atomic.Int64
	c := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "bad credentials"})
	}))

	err := run(context.Background(), c, "login", []string{"--email", "kay@example.com", "--password", "wrong"})
	if !api.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("err = %v, want wrapped 401", err)
	}
	// the rejection forces a logout and a hop back to the login route;
	// neither may re-submit the credentials
	if n := requests.Load(); n != 1 {
		t.Fatalf("backend requests = %d, want exactly 1", n)
	}
	if c.Session.IsAuthenticated() {
		t.Fatal("session authenticated after rejected login")
	}
	if c.Session.User() != nil {
		t.Fatalf("user = %+v after rejected login", c.Session.User())
	}
}

func TestLoginThenAuthorizedFetch(t *testing.T) {
	const token = "opaque-test-credential"
	user := map[string]any{
		"id": 7, "name": "Kay", "email": "kay@example.com", "role": "EMPLOYEE",
		"created_at": "2026-01-02T03:04:05", "updated_at": "2026-01-02T03:04:05",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"access_token": token, "user": user})
	})
	var sawBearer atomic.Bool
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		sawBearer.Store(true)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(user)
	})
	c := newTestApp(t, mux)

	if err := run(context.Background(), c, "login", []string{"--email", "kay@example.com", "--password", "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !c.Session.IsAuthenticated() {
		t.Fatal("session not authenticated after login")
	}
	if got := c.Store.Credential(); got != token {
		t.Fatalf("stored credential = %q, want %q", got, token)
	}

	if err := run(context.Background(), c, "whoami", nil); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !sawBearer.Load() {
		t.Fatal("profile fetch did not carry the bearer credential")
	}
}
