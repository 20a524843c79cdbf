package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfigBody = `BUY_ENABLED=true
MAX_SOL=0.5
WHITELIST_ENABLED=false
JITO_FEE=0.001
ZERO_SLOT_BUY_FEE=0.001
ZERO_SLOT_SELL_FEE=0.001
NONCE_PUBKEY=11111111111111111111111111111111
PRIVATE_KEY=testkey
DATABASE_URL=postgres://localhost/test
`

func writeTestConfig(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(testConfigBody), 0600); err != nil {
		t.Fatalf("write test config: %v", err)
	}
}

func TestLoadMissingRequiredKeyFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	if err := os.WriteFile(path, []byte("BUY_ENABLED=true\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected Load to fail with missing required keys")
	}
}

func TestLoadAndSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	writeTestConfig(t, path)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.BuyEnabled() {
		t.Fatalf("expected BuyEnabled true")
	}
	if cfg.MaxSol() != 0.5 {
		t.Fatalf("expected MaxSol 0.5, got %v", cfg.MaxSol())
	}
	if cfg.WhitelistEnabled() {
		t.Fatalf("expected WhitelistEnabled false")
	}
}

func TestUpdatePersistsAndReflects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	writeTestConfig(t, path)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := cfg.Update(map[string]string{"BUY_ENABLED": "false", "MAX_SOL": "1.25"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if cfg.BuyEnabled() {
		t.Fatalf("expected BuyEnabled false after update")
	}
	if cfg.MaxSol() != 1.25 {
		t.Fatalf("expected MaxSol 1.25 after update, got %v", cfg.MaxSol())
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload from disk: %v", err)
	}
	if reloaded.BuyEnabled() {
		t.Fatalf("expected persisted BuyEnabled false")
	}
}
