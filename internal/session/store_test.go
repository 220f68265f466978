package session

import (
	"os"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "session.json"))
}

func TestStoreRoundTrip(t *testing.T) {
	s := testStore(t)
	profile := &User{ID: 7, Name: "Dana", Email: "dana@example.com", Role: RoleManager}

	if err := s.Save("tok-abc", profile); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := s.Credential(); got != "tok-abc" {
		t.Fatalf("Credential = %q", got)
	}
	got := s.Profile()
	if got == nil || got.ID != 7 || got.Role != RoleManager {
		t.Fatalf("Profile = %+v", got)
	}
}

func TestStoreEmpty(t *testing.T) {
	s := testStore(t)
	if s.Credential() != "" {
		t.Fatal("expected empty credential")
	}
	if s.Profile() != nil {
		t.Fatal("expected nil profile")
	}
}

func TestStoreClearRemovesBothEntries(t *testing.T) {
	s := testStore(t)
	if err := s.Save("tok", &User{ID: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Credential() != "" || s.Profile() != nil {
		t.Fatal("entries survived Clear")
	}
	// clearing an empty store is not an error
	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestStoreCorruptFileReadsAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	s := NewStore(path)
	if s.Credential() != "" || s.Profile() != nil {
		t.Fatal("corrupt file should read as no session")
	}
}

func TestStoreSaveProfileKeepsCredential(t *testing.T) {
	s := testStore(t)
	if err := s.Save("tok", &User{ID: 1, Name: "old"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.SaveProfile(&User{ID: 1, Name: "new"}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if s.Credential() != "tok" {
		t.Fatal("credential lost on profile save")
	}
	if got := s.Profile(); got == nil || got.Name != "new" {
		t.Fatalf("Profile = %+v", got)
	}
}
