package ingest

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"io"
	"sync"
	"testing"

	"github.com/shredstream-sniper/sniperkit/internal/solwire"
	"github.com/shredstream-sniper/sniperkit/internal/venueevents"
	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

type fakePersistor struct {
	mu     sync.Mutex
	states []TokenState
	trades []Trade
}

func (f *fakePersistor) InsertTokenState(_ context.Context, state TokenState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
	return nil
}

func (f *fakePersistor) InsertTrade(_ context.Context, trade Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trades = append(f.trades, trade)
	return nil
}

func encodeString(buf *[]byte, s string) {
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(s)))
	*buf = append(*buf, lenBuf...)
	*buf = append(*buf, s...)
}

func encodeU64(buf *[]byte, v uint64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	*buf = append(*buf, b...)
}

func encodePubkey(buf *[]byte, pk solwire.Pubkey) {
	*buf = append(*buf, pk.Bytes()...)
}

func buildCreateLog(mint, bondingCurve, user, creator solwire.Pubkey, timestamp int64) string {
	var data []byte
	data = append(data, venueevents.CreateEventDiscriminator[:]...)
	encodeString(&data, "Test Token")
	encodeString(&data, "TEST")
	encodeString(&data, "https://example.invalid/meta.json")
	encodePubkey(&data, mint)
	encodePubkey(&data, bondingCurve)
	encodePubkey(&data, user)
	encodePubkey(&data, creator)
	encodeU64(&data, uint64(timestamp))
	encodeU64(&data, 1_073_000_000_000_000)
	encodeU64(&data, 30_000_000_000)
	encodeU64(&data, 793_100_000_000_000)
	encodeU64(&data, 1_000_000_000_000_000)
	return venueevents.ProgramDataPrefix + base64.StdEncoding.EncodeToString(data)
}

func buildTradeLog(mint, user, feeRecipient, creator solwire.Pubkey, solAmount, tokenAmount uint64, isBuy bool, timestamp int64) string {
	var data []byte
	data = append(data, venueevents.TradeEventDiscriminator[:]...)
	encodePubkey(&data, mint)
	encodeU64(&data, solAmount)
	encodeU64(&data, tokenAmount)
	if isBuy {
		data = append(data, 1)
	} else {
		data = append(data, 0)
	}
	encodePubkey(&data, user)
	encodeU64(&data, uint64(timestamp))
	encodeU64(&data, 30_000_000_000)
	encodeU64(&data, 1_073_000_000_000_000)
	encodeU64(&data, 0)
	encodeU64(&data, 0)
	encodePubkey(&data, feeRecipient)
	encodeU64(&data, 100)
	encodeU64(&data, 0)
	encodePubkey(&data, creator)
	encodeU64(&data, 0)
	encodeU64(&data, 0)
	return venueevents.ProgramDataPrefix + base64.StdEncoding.EncodeToString(data)
}

func testLogger() *logging.Logger {
	return logging.New(&logging.Config{Level: "error", Output: io.Discard})
}

func TestParseCreateAndTradeEventLogs(t *testing.T) {
	mint := mustKey(t, "11111111111111111111111111111112")
	bondingCurve := mustKey(t, "SysvarRent111111111111111111111111111111111")
	creator := mustKey(t, "ComputeBudget111111111111111111111111111111")
	user := creator

	createLog := buildCreateLog(mint, bondingCurve, user, creator, 1000)
	create, ok, err := ParseCreateEventLog([]string{"unrelated log", createLog})
	if err != nil || !ok {
		t.Fatalf("ParseCreateEventLog: ok=%v err=%v", ok, err)
	}
	if create.Mint != mint || create.Creator != creator {
		t.Fatalf("create = %+v", create)
	}

	tradeLog := buildTradeLog(mint, user, creator, creator, 5_000_000_000, 1_000_000_000, true, 1001)
	trade, ok, err := ParseTradeEventLog([]string{tradeLog})
	if err != nil || !ok {
		t.Fatalf("ParseTradeEventLog: ok=%v err=%v", ok, err)
	}
	if trade.Mint != mint || !trade.IsBuy || trade.SolAmount != 5_000_000_000 {
		t.Fatalf("trade = %+v", trade)
	}
}

func TestIngestDevRoundTripPersistsTokenState(t *testing.T) {
	mint := mustKey(t, "11111111111111111111111111111112")
	bondingCurve := mustKey(t, "SysvarRent111111111111111111111111111111111")
	creator := mustKey(t, "ComputeBudget111111111111111111111111111111")

	persistor := &fakePersistor{}
	ig := New(persistor, testLogger())
	ctx := context.Background()

	createLog := buildCreateLog(mint, bondingCurve, creator, creator, 1000)
	if err := ig.HandleLogs(ctx, []string{createLog}); err != nil {
		t.Fatalf("HandleLogs create: %v", err)
	}

	buyLog := buildTradeLog(mint, creator, creator, creator, 1_000_000_000, 2_000_000_000, true, 1001)
	if err := ig.HandleLogs(ctx, []string{buyLog}); err != nil {
		t.Fatalf("HandleLogs buy: %v", err)
	}

	sellLog := buildTradeLog(mint, creator, creator, creator, 3_000_000_000, 2_000_000_000, false, 1010)
	if err := ig.HandleLogs(ctx, []string{sellLog}); err != nil {
		t.Fatalf("HandleLogs sell: %v", err)
	}

	persistor.mu.Lock()
	defer persistor.mu.Unlock()
	if len(persistor.states) != 1 {
		t.Fatalf("states = %d, want 1", len(persistor.states))
	}
	state := persistor.states[0]
	if state.DevProfit == nil || *state.DevProfit <= 0 {
		t.Fatalf("DevProfit = %v, want positive", state.DevProfit)
	}
	if state.DevHoldingDuration == nil || *state.DevHoldingDuration != 10 {
		t.Fatalf("DevHoldingDuration = %v, want 10", state.DevHoldingDuration)
	}
	if len(persistor.trades) != 0 {
		t.Fatalf("trades = %d, want 0 (dev-only trades)", len(persistor.trades))
	}
}

func TestIngestNonDevTradePersistsTradeRow(t *testing.T) {
	mint := mustKey(t, "11111111111111111111111111111112")
	bondingCurve := mustKey(t, "SysvarRent111111111111111111111111111111111")
	creator := mustKey(t, "ComputeBudget111111111111111111111111111111")
	otherUser := mustKey(t, "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	persistor := &fakePersistor{}
	ig := New(persistor, testLogger())
	ctx := context.Background()

	createLog := buildCreateLog(mint, bondingCurve, creator, creator, 1000)
	if err := ig.HandleLogs(ctx, []string{createLog}); err != nil {
		t.Fatalf("HandleLogs create: %v", err)
	}

	tradeLog := buildTradeLog(mint, otherUser, creator, creator, 1_000_000_000, 500_000_000, true, 1005)
	if err := ig.HandleLogs(ctx, []string{tradeLog}); err != nil {
		t.Fatalf("HandleLogs trade: %v", err)
	}

	persistor.mu.Lock()
	defer persistor.mu.Unlock()
	if len(persistor.trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(persistor.trades))
	}
	if persistor.trades[0].User != otherUser {
		t.Fatalf("trade user = %s, want %s", persistor.trades[0].User, otherUser)
	}
}

func mustKey(t *testing.T, s string) solwire.Pubkey {
	t.Helper()
	pk, err := solwire.PubkeyFromBase58(s)
	if err != nil {
		t.Fatalf("PubkeyFromBase58(%q): %v", s, err)
	}
	return pk
}
