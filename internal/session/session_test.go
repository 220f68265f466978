package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/taskflow/client-core-go/internal/api"
)

func validToken(t *testing.T) string {
	return signedToken(t, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(time.Hour).Unix()})
}

func newTestManager(t *testing.T, handler http.Handler) (*Manager, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	return newTestManagerWithStore(t, handler, store), store
}

func newTestManagerWithStore(t *testing.T, handler http.Handler, store *Store) *Manager {
	t.Helper()
	if handler == nil {
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		})
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := api.NewClient(srv.URL, srv.Client(), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("api client: %v", err)
	}
	return NewManager(client, store, zap.NewNop().Sugar())
}

func TestRestoreFromStorage(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	profile := &User{ID: 3, Name: "Sam", Role: RoleEmployee}
	if err := store.Save(validToken(t), profile); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m := newTestManagerWithStore(t, nil, store)
	if !m.IsAuthenticated() {
		t.Fatal("expected restored session to be authenticated")
	}
	if u := m.User(); u == nil || u.ID != 3 || u.Name != "Sam" {
		t.Fatalf("restored user = %+v", u)
	}
}

func TestRestoreExpiredTokenStartsAnonymous(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	expired := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
	if err := store.Save(expired, &User{ID: 3}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m := newTestManagerWithStore(t, nil, store)
	if m.IsAuthenticated() {
		t.Fatal("expired credential must not authenticate")
	}
	if m.User() != nil {
		t.Fatal("user must be nil when unauthenticated")
	}
}

func TestRestoreCorruptTokenStartsAnonymous(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err := store.Save("not.a.jwt", &User{ID: 3}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m := newTestManagerWithStore(t, nil, store)
	if m.IsAuthenticated() {
		t.Fatal("undecodable credential must fail closed")
	}
}

func TestLoginEstablishesSession(t *testing.T) {
	token := validToken(t)
	m, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "kim@example.com" {
			t.Errorf("email %q", req.Email)
		}
		json.NewEncoder(w).Encode(AuthResponse{
			AccessToken: token,
			User:        User{ID: 9, Name: "Kim", Email: req.Email, Role: RoleManager},
		})
	}))

	var authEmissions []bool
	m.Authenticated().Subscribe(func(v bool) { authEmissions = append(authEmissions, v) })

	u, err := m.Login(context.Background(), LoginRequest{Email: "kim@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID != 9 || u.Role != RoleManager {
		t.Fatalf("user = %+v", u)
	}
	if store.Credential() != token {
		t.Fatal("credential not persisted")
	}
	if p := store.Profile(); p == nil || p.ID != 9 {
		t.Fatalf("profile not persisted: %+v", p)
	}
	// replayed false, then the login emission
	if len(authEmissions) != 2 || authEmissions[1] != true {
		t.Fatalf("authenticated emissions = %v", authEmissions)
	}
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	m, store := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	}))

	_, err := m.Login(context.Background(), LoginRequest{Email: "kim@example.com", Password: "bad"})
	if err == nil {
		t.Fatal("expected login error")
	}
	if !api.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401, got %v", err)
	}
	if m.IsAuthenticated() || m.User() != nil {
		t.Fatal("failed login mutated session state")
	}
	if store.Credential() != "" {
		t.Fatal("failed login persisted a credential")
	}
}

func TestLogout(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err := store.Save(validToken(t), &User{ID: 3, Role: RoleEmployee}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m := newTestManagerWithStore(t, nil, store)

	var navigated []string
	m.SetNavigator(func(path string) { navigated = append(navigated, path) })

	falseEmissions := 0
	m.Authenticated().Subscribe(func(v bool) {
		if !v {
			falseEmissions++
		}
	})
	// the replay was true, so no false yet
	if falseEmissions != 0 {
		t.Fatalf("premature false emission")
	}

	m.Logout()

	if store.Credential() != "" || store.Profile() != nil {
		t.Fatal("durable entries survived logout")
	}
	if m.IsAuthenticated() || m.User() != nil {
		t.Fatal("session state survived logout")
	}
	if falseEmissions != 1 {
		t.Fatalf("expected exactly one false emission, got %d", falseEmissions)
	}
	if len(navigated) != 1 || navigated[0] != "/auth/login" {
		t.Fatalf("navigated = %v", navigated)
	}

	// idempotent: logging out again is not an error
	m.Logout()
	if falseEmissions != 2 {
		t.Fatalf("second logout should emit again, got %d", falseEmissions)
	}
}

func TestRefreshProfileRepublishes(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	token := validToken(t)
	if err := store.Save(token, &User{ID: 3, Name: "Old Name", Role: RoleEmployee}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m := newTestManagerWithStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/me" {
			t.Errorf("path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(User{ID: 3, Name: "New Name", Role: RoleEmployee})
	}), store)

	var lastSeen *User
	m.CurrentUser().Subscribe(func(u *User) { lastSeen = u })

	u, err := m.RefreshProfile(context.Background())
	if err != nil {
		t.Fatalf("RefreshProfile: %v", err)
	}
	if u.Name != "New Name" {
		t.Fatalf("user = %+v", u)
	}
	if lastSeen == nil || lastSeen.Name != "New Name" {
		t.Fatalf("subscriber saw %+v", lastSeen)
	}
	// the credential is untouched
	if store.Credential() != token {
		t.Fatal("credential changed on profile refresh")
	}
	if p := store.Profile(); p == nil || p.Name != "New Name" {
		t.Fatalf("cached profile = %+v", p)
	}
}

func TestRoleChecksTotalOverAnonymous(t *testing.T) {
	m, _ := newTestManager(t, nil)
	if m.HasRole(RoleManager) || m.IsManager() || m.IsEmployee() || m.IsAdmin() {
		t.Fatal("anonymous session must hold no roles")
	}
}

func TestRoleChecksForAuthenticatedUser(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err := store.Save(validToken(t), &User{ID: 1, Role: RoleManager}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m := newTestManagerWithStore(t, nil, store)
	if !m.IsManager() {
		t.Fatal("expected manager role")
	}
	if m.IsEmployee() || m.IsAdmin() {
		t.Fatal("unexpected roles held")
	}
}
