package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists the bearer credential and the cached user profile in
// one durable file, the client-side equivalent of two fixed local
// storage keys. It performs no validation; expiry checking belongs to
// the Manager.
type Store struct {
	mu   sync.Mutex
	path string
}

// storeState is the on-disk shape. The keys mirror what the backend
// hands out: the raw access token plus the profile it belongs to.
type storeState struct {
	AccessToken string `json:"access_token,omitempty"`
	CurrentUser *User  `json:"current_user,omitempty"`
}

// NewStore returns a Store backed by the file at path. The file is
// created lazily on the first Save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save persists the credential and profile together, replacing any
// previous session wholesale.
func (s *Store) Save(credential string, profile *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(storeState{AccessToken: credential, CurrentUser: profile})
}

// SaveProfile replaces only the cached profile, keeping the stored
// credential. Used after profile refreshes that do not reissue tokens.
func (s *Store) SaveProfile(profile *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.read()
	state.CurrentUser = profile
	return s.write(state)
}

// Credential returns the stored bearer credential, or "" when absent
// or unreadable.
func (s *Store) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().AccessToken
}

// Profile returns the cached user profile, or nil when absent or
// unreadable.
func (s *Store) Profile() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().CurrentUser
}

// Clear removes both entries. Clearing an already-empty store is not
// an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session file: %w", err)
	}
	return nil
}

// read returns the current state, treating a missing or corrupt file
// as empty. A session file we cannot decode must behave like no
// session at all, never like a failure.
func (s *Store) read() storeState {
	var state storeState
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return storeState{}
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return storeState{}
	}
	return state
}

func (s *Store) write(state storeState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
