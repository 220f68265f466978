package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

type staticTokens string

func (s staticTokens) Credential() string { return string(s) }

func TestTransportAttachesBearerToClone(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
	}))
	defer srv.Close()

	transport := &AuthTransport{Tokens: staticTokens("tok123"), Logger: zap.NewNop().Sugar()}
	client := &http.Client{Transport: transport}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/tasks", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer tok123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatal("expected a request correlation id")
	}
	// The caller's request object is never mutated.
	if req.Header.Get("Authorization") != "" {
		t.Fatal("original request was mutated")
	}
	if req.Header.Get("X-Request-ID") != "" {
		t.Fatal("original request was mutated with a request id")
	}
}

func TestTransportSkipsHeaderWithoutCredential(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := &http.Client{Transport: &AuthTransport{Tokens: staticTokens("")}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if gotAuth != "" {
		t.Fatalf("expected no auth header, got %q", gotAuth)
	}
}

func TestTransportFiresAuthFailureHookOncePer401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	calls := 0
	transport := &AuthTransport{
		Tokens:        staticTokens("expired"),
		OnAuthFailure: func() { calls++ },
		Logger:        zap.NewNop().Sugar(),
	}
	client := &http.Client{Transport: transport}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if calls != 1 {
		t.Fatalf("expected one hook call, got %d", calls)
	}
	// The failure is re-raised to the caller, not swallowed.
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 to propagate, got %d", resp.StatusCode)
	}

	resp, err = client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if calls != 2 {
		t.Fatalf("second 401 should fire the hook again, got %d calls", calls)
	}
}

func TestTransportHookNotFiredOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	calls := 0
	client := &http.Client{Transport: &AuthTransport{
		Tokens:        staticTokens("tok"),
		OnAuthFailure: func() { calls++ },
	}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if calls != 0 {
		t.Fatalf("hook fired on success: %d", calls)
	}
}
