package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskflow/client-core-go/internal/api"
	"github.com/taskflow/client-core-go/pkg/observe"
)

// Manager is the single source of truth for client-side identity. It
// exposes the current user and the authenticated flag as replayed
// observable streams, and keeps both in lockstep with the durable
// Store: the user is nil exactly when the session is unauthenticated.
type Manager struct {
	api    *api.Client
	store  *Store
	logger *zap.SugaredLogger
	now    func() time.Time

	currentUser   *observe.Subject[*User]
	authenticated *observe.Subject[bool]

	mu       sync.Mutex
	navigate func(path string)
}

// NewManager restores session state from the store: a present,
// non-expired credential with a cached profile yields an authenticated
// session without any network round trip. Anything else, including a
// corrupt or expired credential, starts anonymous.
func NewManager(client *api.Client, store *Store, logger *zap.SugaredLogger) *Manager {
	m := &Manager{
		api:    client,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	cred := store.Credential()
	profile := store.Profile()
	if cred != "" && profile != nil && !IsExpired(cred, m.now()) {
		m.currentUser = observe.NewSubjectValue(profile)
		m.authenticated = observe.NewSubjectValue(true)
		logger.Debugw("session restored from storage", "user_id", profile.ID, "role", profile.Role)
	} else {
		m.currentUser = observe.NewSubjectValue[*User](nil)
		m.authenticated = observe.NewSubjectValue(false)
	}
	return m
}

// SetNavigator installs the navigation hook Logout uses to return the
// client to the login route. Wired by the application context once the
// router exists.
func (m *Manager) SetNavigator(fn func(path string)) {
	m.mu.Lock()
	m.navigate = fn
	m.mu.Unlock()
}

// CurrentUser is the observable profile stream. Emits nil on logout.
func (m *Manager) CurrentUser() *observe.Subject[*User] { return m.currentUser }

// Authenticated is the observable authentication flag stream.
func (m *Manager) Authenticated() *observe.Subject[bool] { return m.authenticated }

// User returns the current profile snapshot, nil when anonymous.
func (m *Manager) User() *User { return m.currentUser.Value() }

// IsAuthenticated returns the current authentication flag snapshot.
func (m *Manager) IsAuthenticated() bool { return m.authenticated.Value() }

// Login authenticates against the backend. On success the credential
// and profile are persisted together and the new state is published to
// both streams. On failure session state is left exactly as it was.
func (m *Manager) Login(ctx context.Context, req LoginRequest) (*User, error) {
	var resp AuthResponse
	if err := m.api.Post(ctx, "/api/auth/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := m.establish(resp); err != nil {
		return nil, err
	}
	m.logger.Infow("logged in", "user_id", resp.User.ID, "role", resp.User.Role)
	return &resp.User, nil
}

// Register creates an account and establishes a session, with the same
// contract as Login.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var resp AuthResponse
	if err := m.api.Post(ctx, "/api/auth/register", req, &resp); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := m.establish(resp); err != nil {
		return nil, err
	}
	m.logger.Infow("registered", "user_id", resp.User.ID, "role", resp.User.Role)
	return &resp.User, nil
}

func (m *Manager) establish(resp AuthResponse) error {
	if err := m.store.Save(resp.AccessToken, &resp.User); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	m.currentUser.Publish(&resp.User)
	m.authenticated.Publish(true)
	return nil
}

// Logout clears durable storage, publishes the anonymous state, and
// navigates to the login route. Idempotent: logging out an anonymous
// session publishes the same state again and is not an error.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warnw("clearing session storage failed", "err", err)
	}
	m.currentUser.Publish(nil)
	m.authenticated.Publish(false)
	m.logger.Infow("logged out")
	m.mu.Lock()
	nav := m.navigate
	m.mu.Unlock()
	if nav != nil {
		nav("/auth/login")
	}
}

// RefreshProfile re-fetches the profile from the backend and
// republishes it. The credential is untouched.
func (m *Manager) RefreshProfile(ctx context.Context) (*User, error) {
	var u User
	if err := m.api.Get(ctx, "/api/auth/me", nil, &u); err != nil {
		return nil, fmt.Errorf("refresh profile: %w", err)
	}
	m.republish(&u)
	return &u, nil
}

// UpdateProfile applies a partial profile update on the backend and
// republishes the returned profile.
func (m *Manager) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*User, error) {
	var u User
	if err := m.api.Put(ctx, "/api/auth/profile", req, &u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	m.republish(&u)
	return &u, nil
}

func (m *Manager) republish(u *User) {
	if err := m.store.SaveProfile(u); err != nil {
		m.logger.Warnw("caching refreshed profile failed", "err", err)
	}
	m.currentUser.Publish(u)
}

// ChangePassword verifies the current password and sets a new one.
// Session state does not change.
func (m *Manager) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	if err := m.api.Post(ctx, "/api/auth/change-password", req, nil); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// Users lists all accounts, for assignee pickers and the like.
func (m *Manager) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := m.api.Get(ctx, "/api/auth/users", nil, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// HasRole reports whether the current user holds the given role. Total
// over the anonymous state: no user means false, never an error.
func (m *Manager) HasRole(role Role) bool {
	u := m.User()
	return u != nil && u.Role == role
}

func (m *Manager) IsAdmin() bool    { return m.HasRole(RoleAdmin) }
func (m *Manager) IsManager() bool  { return m.HasRole(RoleManager) }
func (m *Manager) IsEmployee() bool { return m.HasRole(RoleEmployee) }
