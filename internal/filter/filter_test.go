package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shredstream-sniper/sniperkit/internal/classifier"
	"github.com/shredstream-sniper/sniperkit/internal/config"
	"github.com/shredstream-sniper/sniperkit/internal/lists"
	"github.com/shredstream-sniper/sniperkit/internal/solwire"
)

func testConfig(t *testing.T, buyEnabled, whitelistEnabled bool) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.env")
	body := "BUY_ENABLED=" + boolStr(buyEnabled) + "\n" +
		"MAX_SOL=0.5\n" +
		"WHITELIST_ENABLED=" + boolStr(whitelistEnabled) + "\n" +
		"JITO_FEE=0.001\nZERO_SLOT_BUY_FEE=0.001\nZERO_SLOT_SELL_FEE=0.001\n" +
		"NONCE_PUBKEY=11111111111111111111111111111111\n" +
		"PRIVATE_KEY=testkey\nDATABASE_URL=postgres://localhost/test\n"
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func testRecord(t *testing.T, creatorSeed byte, maxSolCost uint64) classifier.LaunchRecord {
	t.Helper()
	var b [32]byte
	for i := range b {
		b[i] = creatorSeed
	}
	creator, err := solwire.PubkeyFromBytes(b[:])
	if err != nil {
		t.Fatalf("pubkey: %v", err)
	}
	return classifier.LaunchRecord{Creator: creator, MaxSolCost: maxSolCost}
}

func emptyLists(t *testing.T) (*lists.Set, *lists.Set) {
	t.Helper()
	bl, err := lists.NewSet(filepath.Join(t.TempDir(), "blacklist.txt"))
	if err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	wl, err := lists.NewSet(filepath.Join(t.TempDir(), "whitelist.txt"))
	if err != nil {
		t.Fatalf("whitelist: %v", err)
	}
	return bl, wl
}

func TestDecideAllowsHealthyRecord(t *testing.T) {
	cfg := testConfig(t, true, false)
	bl, wl := emptyLists(t)
	record := testRecord(t, 1, 500_000_000)

	ok, reason := Decide(record, cfg, bl, wl, true)
	if !ok || reason != None {
		t.Fatalf("expected allow, got ok=%v reason=%s", ok, reason)
	}
}

func TestDecideDropsWhenBuyDisabled(t *testing.T) {
	cfg := testConfig(t, false, false)
	bl, wl := emptyLists(t)
	record := testRecord(t, 1, 500_000_000)

	ok, reason := Decide(record, cfg, bl, wl, true)
	if ok || reason != ReasonBuyDisabled {
		t.Fatalf("expected buy_disabled drop, got ok=%v reason=%s", ok, reason)
	}
}

func TestDecideDropsWhenFeedUnhealthy(t *testing.T) {
	cfg := testConfig(t, true, false)
	bl, wl := emptyLists(t)
	record := testRecord(t, 1, 500_000_000)

	ok, reason := Decide(record, cfg, bl, wl, false)
	if ok || reason != ReasonFeedUnhealthy {
		t.Fatalf("expected feed_unhealthy drop, got ok=%v reason=%s", ok, reason)
	}
}

func TestDecideDropsBlacklistedCreator(t *testing.T) {
	cfg := testConfig(t, true, false)
	bl, wl := emptyLists(t)
	record := testRecord(t, 1, 500_000_000)
	if err := bl.Add(record.Creator.String()); err != nil {
		t.Fatalf("add blacklist: %v", err)
	}

	ok, reason := Decide(record, cfg, bl, wl, true)
	if ok || reason != ReasonBlacklisted {
		t.Fatalf("expected blacklisted drop, got ok=%v reason=%s", ok, reason)
	}
}

func TestDecideDropsEverythingWhenBlacklistAll(t *testing.T) {
	cfg := testConfig(t, true, false)
	bl, wl := emptyLists(t)
	if err := bl.Add(lists.All); err != nil {
		t.Fatalf("add all: %v", err)
	}
	record := testRecord(t, 1, 500_000_000)

	ok, reason := Decide(record, cfg, bl, wl, true)
	if ok || reason != ReasonBlacklisted {
		t.Fatalf("expected the 'all' sentinel to blacklist every creator, got ok=%v reason=%s", ok, reason)
	}
}

func TestDecideDropsWhenNotWhitelisted(t *testing.T) {
	cfg := testConfig(t, true, true)
	bl, wl := emptyLists(t)
	record := testRecord(t, 1, 500_000_000)

	ok, reason := Decide(record, cfg, bl, wl, true)
	if ok || reason != ReasonNotWhitelisted {
		t.Fatalf("expected not_whitelisted drop, got ok=%v reason=%s", ok, reason)
	}
}

func TestDecideAllowsWhitelistedCreator(t *testing.T) {
	cfg := testConfig(t, true, true)
	bl, wl := emptyLists(t)
	record := testRecord(t, 1, 500_000_000)
	if err := wl.Add(record.Creator.String()); err != nil {
		t.Fatalf("add whitelist: %v", err)
	}

	ok, reason := Decide(record, cfg, bl, wl, true)
	if !ok || reason != None {
		t.Fatalf("expected allow, got ok=%v reason=%s", ok, reason)
	}
}

func TestDecideDropsOutsideCostWindow(t *testing.T) {
	cfg := testConfig(t, true, false)
	bl, wl := emptyLists(t)

	tooLow := testRecord(t, 1, classifier.MinMaxSolCost-1)
	if ok, reason := Decide(tooLow, cfg, bl, wl, true); ok || reason != ReasonCostWindow {
		t.Fatalf("expected cost_window drop below floor, got ok=%v reason=%s", ok, reason)
	}

	tooHigh := testRecord(t, 1, classifier.MaxMaxSolCost+1)
	if ok, reason := Decide(tooHigh, cfg, bl, wl, true); ok || reason != ReasonCostWindow {
		t.Fatalf("expected cost_window drop above ceiling, got ok=%v reason=%s", ok, reason)
	}
}
