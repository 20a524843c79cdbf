package feed

import (
	"context"
	"fmt"

	"github.com/shredstream-sniper/sniperkit/internal/classifier"
	"github.com/shredstream-sniper/sniperkit/internal/exitengine"
	"github.com/shredstream-sniper/sniperkit/internal/position"
	"github.com/shredstream-sniper/sniperkit/internal/venueevents"
	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

// VenueTxUpdate is one confirmed ledger transaction touching the venue
// program, as delivered by the live-trade feed (spec §4.6): the
// transaction's log lines, from which TradeEvent records are parsed.
type VenueTxUpdate struct {
	Logs []string
}

// LedgerTxStreamSource is the confirmed-transaction feed for the venue
// program, named only by contract.
type LedgerTxStreamSource interface {
	Subscribe(ctx context.Context) (<-chan VenueTxUpdate, error)
}

// LiveTradeIngest consumes VenueTxUpdate records, feeds matching TradeEvents
// to the ExitEngine for mints it currently holds a position in, and flips
// the shared HealthFlag the Filter's feed-health gate reads (spec §4.2 step
// 2, §4.6).
type LiveTradeIngest struct {
	source LedgerTxStreamSource
	table  *position.Table
	engine *exitengine.Engine
	health *HealthFlag
	log    *logging.Logger
}

// NewLiveTradeIngest builds a LiveTradeIngest.
func NewLiveTradeIngest(source LedgerTxStreamSource, table *position.Table, engine *exitengine.Engine, health *HealthFlag, log *logging.Logger) *LiveTradeIngest {
	return &LiveTradeIngest{
		source: source,
		table:  table,
		engine: engine,
		health: health,
		log:    log.Component("live_trade_ingest"),
	}
}

// Run subscribes and processes updates until ctx is cancelled, reconnecting
// on stream error or close and clearing the health flag whenever the stream
// is down.
func (lti *LiveTradeIngest) Run(ctx context.Context) {
	runStreamWithBackoff(ctx, lti.log, "live trade stream", func(ctx context.Context) error {
		updates, err := lti.source.Subscribe(ctx)
		if err != nil {
			lti.health.Set(false)
			return fmt.Errorf("subscribe live trade stream: %w", err)
		}
		for {
			select {
			case <-ctx.Done():
				lti.health.Set(false)
				return nil
			case update, ok := <-updates:
				if !ok {
					lti.health.Set(false)
					return fmt.Errorf("live trade stream closed")
				}
				lti.health.Set(true)
				lti.handleUpdate(ctx, update)
			}
		}
	})
}

func (lti *LiveTradeIngest) handleUpdate(ctx context.Context, update VenueTxUpdate) {
	ev, ok, err := venueevents.ParseTradeEventLog(update.Logs)
	if err != nil || !ok {
		return
	}
	if !lti.table.Has(ev.Mint) {
		return
	}
	price := classifier.PriceFromReserves(ev.VirtualSolReserves, ev.VirtualTokenReserves)
	lti.engine.OnPrice(ctx, ev.Mint, price)
}
