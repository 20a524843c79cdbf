package lists

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewSetCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	s, err := NewSet(path)
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	if s.Contains("anything") {
		t.Fatalf("expected empty set")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to be created: %v", err)
	}
}

func TestAddRemoveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist.txt")
	s, err := NewSet(path)
	if err != nil {
		t.Fatalf("new set: %v", err)
	}

	if err := s.Add("creatorA"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !s.Contains("creatorA") {
		t.Fatalf("expected creatorA to be present")
	}

	other, err := NewSet(path)
	if err != nil {
		t.Fatalf("reopen set: %v", err)
	}
	if !other.Contains("creatorA") {
		t.Fatalf("expected persisted member visible to a fresh load")
	}

	if err := s.Remove("creatorA"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if s.Contains("creatorA") {
		t.Fatalf("expected creatorA removed")
	}

	if err := other.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if other.Contains("creatorA") {
		t.Fatalf("expected reload to observe the removal")
	}
}

func TestAllBlacklistToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	s, err := NewSet(path)
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	if err := s.Add(All); err != nil {
		t.Fatalf("add all: %v", err)
	}
	if !s.Contains(All) {
		t.Fatalf("expected the all-creators sentinel to be stored like any member")
	}
}
