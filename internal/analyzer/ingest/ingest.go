package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/shredstream-sniper/sniperkit/internal/metrics"
	"github.com/shredstream-sniper/sniperkit/internal/solwire"
	"github.com/shredstream-sniper/sniperkit/internal/venueevents"
	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

// CreateEvent and TradeEvent are re-exported for callers constructing
// HandleLogs fixtures without importing internal/venueevents directly.
type CreateEvent = venueevents.CreateEvent
type TradeEvent = venueevents.TradeEvent

// ParseCreateEventLog and ParseTradeEventLog delegate to internal/venueevents,
// the shared decoder also used by the sniper's LiveTradeIngest.
func ParseCreateEventLog(logs []string) (CreateEvent, bool, error) {
	return venueevents.ParseCreateEventLog(logs)
}

func ParseTradeEventLog(logs []string) (TradeEvent, bool, error) {
	return venueevents.ParseTradeEventLog(logs)
}

// TokenState tracks one mint's creator-holding lifecycle, mirroring
// original_source/analyzer/src/main.rs's TokenState.
type TokenState struct {
	TokenCreator        solwire.Pubkey
	TokenAddress        solwire.Pubkey
	DevInitialBuy       *uint64
	DevProfit           *float64
	DevTotalSell        uint64
	DevCurrentHolding   uint64
	DevHoldingStartTime *int64
	DevHoldingDuration  *int64
}

// Trade is a non-dev buy/sell row, persisted as-is.
type Trade struct {
	TokenAddress solwire.Pubkey
	User         solwire.Pubkey
	IsBuy        bool
	SolAmount    uint64
	TokenAmount  uint64
	Timestamp    int64
}

// Persistor is the storage dependency EventStreamIngest writes through,
// breaking the import cycle with internal/analyzer/store the way
// internal/exitengine's ActionSink breaks the cycle with internal/submit.
type Persistor interface {
	InsertTokenState(ctx context.Context, state TokenState) error
	InsertTrade(ctx context.Context, trade Trade) error
}

const solDecimals = 1_000_000_000.0

// Ingest maintains the in-memory TokenState table and persists completed
// dev round-trips and non-dev trades.
type Ingest struct {
	persistor Persistor
	log       *logging.Logger

	mu     sync.Mutex
	tokens map[solwire.Pubkey]*TokenState
}

// New builds an Ingest backed by persistor.
func New(persistor Persistor, log *logging.Logger) *Ingest {
	return &Ingest{
		persistor: persistor,
		log:       log.Component("analyzer.ingest"),
		tokens:    make(map[solwire.Pubkey]*TokenState),
	}
}

// HandleLogs processes one transaction's log lines, updating TokenState and
// persisting rows per spec §4.9.
func (ig *Ingest) HandleLogs(ctx context.Context, logs []string) error {
	if create, ok, err := ParseCreateEventLog(logs); err != nil {
		ig.log.Warn("parse create event", "err", err)
	} else if ok {
		ig.handleCreate(create)
		metrics.AnalyzerEventsTotal.WithLabelValues("create").Inc()
	}

	trade, ok, err := ParseTradeEventLog(logs)
	if err != nil {
		ig.log.Warn("parse trade event", "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	metrics.AnalyzerEventsTotal.WithLabelValues("trade").Inc()
	return ig.handleTrade(ctx, trade)
}

func (ig *Ingest) handleCreate(ev CreateEvent) {
	zero := uint64(0)
	start := ev.Timestamp
	ig.mu.Lock()
	ig.tokens[ev.Mint] = &TokenState{
		TokenCreator:        ev.Creator,
		TokenAddress:        ev.Mint,
		DevInitialBuy:       &zero,
		DevHoldingStartTime: &start,
	}
	ig.mu.Unlock()
}

func (ig *Ingest) handleTrade(ctx context.Context, ev TradeEvent) error {
	ig.mu.Lock()
	state, ok := ig.tokens[ev.Mint]
	if !ok {
		ig.mu.Unlock()
		return nil
	}

	var toPersistState *TokenState
	var devTrade bool

	if ev.User == state.TokenCreator {
		devTrade = true
		if ev.IsBuy {
			state.DevCurrentHolding += ev.TokenAmount
			initial := uint64(0)
			if state.DevInitialBuy != nil {
				initial = *state.DevInitialBuy
			}
			initial += ev.SolAmount
			state.DevInitialBuy = &initial
			if state.DevHoldingStartTime == nil {
				t := ev.Timestamp
				state.DevHoldingStartTime = &t
			}
		} else {
			if state.DevCurrentHolding >= ev.TokenAmount {
				state.DevCurrentHolding -= ev.TokenAmount
				state.DevTotalSell += ev.SolAmount

				if state.DevCurrentHolding == 0 {
					initial := int64(0)
					if state.DevInitialBuy != nil {
						initial = int64(*state.DevInitialBuy)
					}
					profitLamports := int64(state.DevTotalSell) - initial
					profit := float64(profitLamports) / solDecimals
					state.DevProfit = &profit

					start := ev.Timestamp
					if state.DevHoldingStartTime != nil {
						start = *state.DevHoldingStartTime
					}
					duration := ev.Timestamp - start
					state.DevHoldingDuration = &duration

					snapshot := *state
					toPersistState = &snapshot
				}
			} else {
				ig.log.Warn("dev is selling more than current holding", "mint", ev.Mint.String())
			}
		}
	}
	ig.mu.Unlock()

	if toPersistState != nil {
		if err := ig.persistor.InsertTokenState(ctx, *toPersistState); err != nil {
			metrics.AnalyzerPersistTotal.WithLabelValues("token_states", "error").Inc()
			return fmt.Errorf("insert token state: %w", err)
		}
		metrics.AnalyzerPersistTotal.WithLabelValues("token_states", "ok").Inc()
	}

	if !devTrade {
		trade := Trade{
			TokenAddress: ev.Mint,
			User:         ev.User,
			IsBuy:        ev.IsBuy,
			SolAmount:    ev.SolAmount,
			TokenAmount:  ev.TokenAmount,
			Timestamp:    ev.Timestamp,
		}
		if err := ig.persistor.InsertTrade(ctx, trade); err != nil {
			metrics.AnalyzerPersistTotal.WithLabelValues("token_trades", "error").Inc()
			return fmt.Errorf("insert trade: %w", err)
		}
		metrics.AnalyzerPersistTotal.WithLabelValues("token_trades", "ok").Inc()
	}

	return nil
}
