// Package position implements the concurrent mint-keyed position table that
// coordinates the Submitter, LiveTradeIngest, and ExitEngine (spec §4.5):
// atomic get-or-create, per-key exclusion for read-modify-write, and removal.
package position

import (
	"sync"
	"time"

	"github.com/shredstream-sniper/sniperkit/internal/solwire"
)

// SellStage is the exit ladder's monotonically non-decreasing stage counter.
type SellStage uint8

const (
	StageEntered SellStage = iota
	StagePartial1
	StagePartial2
	StageExited
)

// State is one mint's live position, owned exclusively by Table.
// Callers must only mutate a State while holding its key's lock via
// Table.With.
type State struct {
	Mint         solwire.Pubkey
	TokenCreator solwire.Pubkey

	FirstBuyPrice *float64
	CurrentPrice  *float64
	HighestPrice  float64

	Balance      *uint64
	BondingCurve *solwire.Pubkey

	SellStage SellStage

	FirstBuyTime *time.Time

	LastTxTime  *time.Time
	LastTxPrice *float64
}

// UpdatePrice applies a new observed price, maintaining the
// highest-price-never-decreases invariant.
func (s *State) UpdatePrice(p float64) {
	s.CurrentPrice = &p
	if p > s.HighestPrice {
		s.HighestPrice = p
	}
}

// Delta returns (p - first_buy_price) / first_buy_price, or false if no fill
// has been recorded yet.
func (s *State) Delta(p float64) (float64, bool) {
	if s.FirstBuyPrice == nil || *s.FirstBuyPrice == 0 {
		return 0, false
	}
	return (p - *s.FirstBuyPrice) / *s.FirstBuyPrice, true
}

// entry pairs a State with the mutex guarding it, so two goroutines racing on
// the same mint never interleave a read-modify-write.
type entry struct {
	mu    sync.Mutex
	state *State
}

// Table is the concurrent mint-keyed position table.
type Table struct {
	mu      sync.RWMutex
	entries map[solwire.Pubkey]*entry
}

// NewTable returns an empty position table.
func NewTable() *Table {
	return &Table{entries: make(map[solwire.Pubkey]*entry)}
}

// getOrCreate returns the entry for mint, constructing a fresh State via init
// if none exists yet. init is only invoked when the entry is actually new.
func (t *Table) getOrCreate(mint solwire.Pubkey, init func() *State) *entry {
	t.mu.RLock()
	e, ok := t.entries[mint]
	t.mu.RUnlock()
	if ok {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[mint]; ok {
		return e
	}
	e = &entry{state: init()}
	t.entries[mint] = e
	return e
}

// Has reports whether mint currently has a position, without creating one.
func (t *Table) Has(mint solwire.Pubkey) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[mint]
	return ok
}

// With runs fn with exclusive access to mint's State, creating it via init if
// it doesn't exist yet. If fn returns remove=true, the entry is deleted from
// the table after fn returns — this is how the exit engine implements "sell
// 100%, remove" atomically with respect to concurrent price updates.
func (t *Table) With(mint solwire.Pubkey, init func() *State, fn func(s *State) (remove bool)) {
	e := t.getOrCreate(mint, init)
	e.mu.Lock()
	remove := fn(e.state)
	e.mu.Unlock()

	if remove {
		t.mu.Lock()
		if cur, ok := t.entries[mint]; ok && cur == e {
			delete(t.entries, mint)
		}
		t.mu.Unlock()
	}
}

// Remove unconditionally deletes mint's position, if present.
func (t *Table) Remove(mint solwire.Pubkey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, mint)
}

// Len returns the number of live positions, for metrics/diagnostics.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
