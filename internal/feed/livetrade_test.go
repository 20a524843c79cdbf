package feed

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"path/filepath"
	"testing"
	"time"

	"github.com/shredstream-sniper/sniperkit/internal/exitengine"
	"github.com/shredstream-sniper/sniperkit/internal/lists"
	"github.com/shredstream-sniper/sniperkit/internal/position"
	"github.com/shredstream-sniper/sniperkit/internal/solwire"
	"github.com/shredstream-sniper/sniperkit/internal/venueevents"
	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

type noopSink struct{}

func (noopSink) Submit(ctx context.Context, correlationID string, mint, creator solwire.Pubkey, amount uint64) {
}

func buildTradeLog(t *testing.T, mint solwire.Pubkey, solReserves, tokenReserves uint64) string {
	t.Helper()
	var data []byte
	data = append(data, venueevents.TradeEventDiscriminator[:]...)
	data = append(data, mint.Bytes()...)
	data = appendU64(data, 1_000_000_000)
	data = appendU64(data, 900_000_000)
	data = append(data, 1)
	data = append(data, mint.Bytes()...) // user, reused for brevity
	data = appendU64(data, 1234)
	data = appendU64(data, solReserves)
	data = appendU64(data, tokenReserves)
	data = appendU64(data, 0)
	data = appendU64(data, 0)
	data = append(data, mint.Bytes()...) // fee recipient
	data = appendU64(data, 100)
	data = appendU64(data, 0)
	data = append(data, mint.Bytes()...) // creator
	data = appendU64(data, 0)
	data = appendU64(data, 0)
	return venueevents.ProgramDataPrefix + base64.StdEncoding.EncodeToString(data)
}

func appendU64(buf []byte, v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return append(buf, b...)
}

func TestLiveTradeIngestFeedsHeldPositionToExitEngine(t *testing.T) {
	mint := mustKeypair(t).Public
	creator := mustKeypair(t).Public

	table := position.NewTable()
	// firstBuyPrice 3e-5 vs. the trade log's reserves-implied price of 3.3e-5
	// is a +10% move: inside the fast-exit/stage1 dead zone, so OnPrice
	// should update the price without selling or dropping the position.
	firstBuyPrice := 0.00003
	firstBuyTime := time.Now()
	balance := uint64(900_000_000)
	table.With(mint, func() *position.State {
		return &position.State{Mint: mint}
	}, func(s *position.State) bool {
		s.TokenCreator = creator
		s.FirstBuyPrice = &firstBuyPrice
		s.Balance = &balance
		s.FirstBuyTime = &firstBuyTime
		return false
	})

	bl, err := lists.NewSet(filepath.Join(t.TempDir(), "blacklist.txt"))
	if err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	engine := exitengine.New(table, noopSink{}, bl, nil)

	lti := NewLiveTradeIngest(nil, table, engine, &HealthFlag{}, logging.New(nil))

	log := buildTradeLog(t, mint, 33_000, 1_000_000)
	lti.handleUpdate(context.Background(), VenueTxUpdate{Logs: []string{log}})

	if !table.Has(mint) {
		t.Fatalf("expected position to remain tracked after a single price update")
	}
}

func TestLiveTradeIngestIgnoresUnknownMint(t *testing.T) {
	table := position.NewTable()
	bl, err := lists.NewSet(filepath.Join(t.TempDir(), "blacklist.txt"))
	if err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	engine := exitengine.New(table, noopSink{}, bl, nil)
	lti := NewLiveTradeIngest(nil, table, engine, &HealthFlag{}, logging.New(nil))

	mint := mustKeypair(t).Public
	log := buildTradeLog(t, mint, 29_000_000_000, 1_074_000_000_000_000)

	// Should not panic or register a position for an untracked mint.
	lti.handleUpdate(context.Background(), VenueTxUpdate{Logs: []string{log}})

	if table.Has(mint) {
		t.Fatalf("expected untracked mint to remain untracked")
	}
}
