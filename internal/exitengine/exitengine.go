// Package exitengine implements the staged take-profit ladder, trailing
// stop, hard stop-loss, and time-based exits described in spec §4.7,
// dispatching sells through an injected ActionSink so this package never
// imports the submitter directly (breaking what would otherwise be a cyclic
// PositionState <-> ExitEngine reference).
package exitengine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shredstream-sniper/sniperkit/internal/lists"
	"github.com/shredstream-sniper/sniperkit/internal/position"
	"github.com/shredstream-sniper/sniperkit/internal/solwire"
)

const (
	fastExitHold     = 2 * time.Second
	fastExitDelta    = 0.20
	trailingStopDrop = 0.95
	stage1Delta      = 0.20
	stage2Delta      = 0.40
	stage3Delta      = 0.60
	hardStopDelta    = -0.05

	stage1SellFraction = 0.50
	stage2SellFraction = 0.40
)

// ActionSink is the async sell dispatcher the engine hands sells to. Submit
// must not block the caller; the engine already holds the position's lock
// for the shortest possible window before spawning the action.
type ActionSink interface {
	Submit(ctx context.Context, correlationID string, mint, creator solwire.Pubkey, tokenAmount uint64)
}

// Engine evaluates the exit ladder against a position table and dispatches
// sells through an ActionSink, optionally blacklisting on a hard stop.
type Engine struct {
	table     *position.Table
	sink      ActionSink
	blacklist *lists.Set
	onOutcome func(outcome string)
}

// New builds an Engine. onOutcome, if non-nil, is invoked once per price
// update with the decided outcome label for metrics; it must not block.
func New(table *position.Table, sink ActionSink, blacklist *lists.Set, onOutcome func(outcome string)) *Engine {
	return &Engine{table: table, sink: sink, blacklist: blacklist, onOutcome: onOutcome}
}

// Outcome labels reported via onOutcome.
const (
	OutcomeNone         = "none"
	OutcomeFastExit     = "fast_time_exit"
	OutcomeTrailingStop = "trailing_stop"
	OutcomeStage1       = "stage1_partial"
	OutcomeStage2       = "stage2_partial"
	OutcomeStage3       = "stage3_full"
	OutcomeHardStop     = "hard_stop"
)

// OnPrice applies a new observed price for mint, following the guard table
// in spec §4.7. The position's lock is held only long enough to decide and
// mutate state; the sell itself is dispatched via the sink after the lock is
// released back to With, matching "table mutation happens before the task is
// spawned so the next price update sees the new stage".
func (e *Engine) OnPrice(ctx context.Context, mint solwire.Pubkey, price float64) {
	var action func()
	outcome := OutcomeNone

	e.table.With(mint, func() *position.State {
		return &position.State{Mint: mint, HighestPrice: price}
	}, func(s *position.State) (remove bool) {
		s.UpdatePrice(price)

		delta, hasFill := s.Delta(price)
		if !hasFill || s.Balance == nil {
			return false
		}
		balance := *s.Balance

		if s.SellStage == position.StageEntered && s.FirstBuyTime != nil {
			if time.Since(*s.FirstBuyTime) >= fastExitHold && delta < fastExitDelta {
				outcome = OutcomeFastExit
				sellAmount := balance
				creator := s.TokenCreator
				action = e.dispatch(ctx, mint, creator, sellAmount)
				return true
			}
		}

		if s.SellStage >= position.StagePartial1 && price <= s.HighestPrice*trailingStopDrop {
			if balance > 0 {
				outcome = OutcomeTrailingStop
				creator := s.TokenCreator
				action = e.dispatch(ctx, mint, creator, balance)
				return true
			}
		}

		switch {
		case s.SellStage == position.StageEntered && delta >= stage1Delta:
			amount := roundFraction(balance, stage1SellFraction)
			s.Balance = ptrU64(balance - amount)
			s.SellStage = position.StagePartial1
			outcome = OutcomeStage1
			creator := s.TokenCreator
			action = e.dispatch(ctx, mint, creator, amount)
			return false

		case s.SellStage == position.StagePartial1 && delta >= stage2Delta:
			amount := roundFraction(balance, stage2SellFraction)
			s.Balance = ptrU64(balance - amount)
			s.SellStage = position.StagePartial2
			outcome = OutcomeStage2
			creator := s.TokenCreator
			action = e.dispatch(ctx, mint, creator, amount)
			return false

		case s.SellStage == position.StagePartial2 && delta >= stage3Delta:
			s.SellStage = position.StageExited
			outcome = OutcomeStage3
			creator := s.TokenCreator
			action = e.dispatch(ctx, mint, creator, balance)
			return true

		case s.SellStage < position.StageExited && delta <= hardStopDelta:
			outcome = OutcomeHardStop
			creator := s.TokenCreator
			action = func() {
				e.dispatch(ctx, mint, creator, balance)()
				if e.blacklist != nil {
					_ = e.blacklist.Add(creator.String())
				}
			}
			return true
		}

		return false
	})

	if action != nil {
		action()
	}
	if e.onOutcome != nil {
		e.onOutcome(outcome)
	}
}

// ForceStopLossIfStale implements the second, independent 2-second timer:
// if the cumulative price change is still below the stage-1 threshold after
// the hold period, force a full exit. It is idempotent with the price-driven
// fast-exit rule in OnPrice — whichever fires first wins, since both route
// through the same lock and both check SellStage == StageEntered before acting.
// Nothing in cmd/sniperd schedules this call, so in the running daemon only
// OnPrice's fast-exit rule applies the 2-second hold.
func (e *Engine) ForceStopLossIfStale(ctx context.Context, mint solwire.Pubkey) {
	var action func()
	outcome := OutcomeNone

	e.table.With(mint, func() *position.State {
		return &position.State{Mint: mint}
	}, func(s *position.State) (remove bool) {
		if s.SellStage != position.StageEntered || s.FirstBuyTime == nil || s.CurrentPrice == nil || s.Balance == nil {
			return false
		}
		if time.Since(*s.FirstBuyTime) < fastExitHold {
			return false
		}
		delta, hasFill := s.Delta(*s.CurrentPrice)
		if !hasFill || delta >= fastExitDelta {
			return false
		}

		outcome = OutcomeFastExit
		balance := *s.Balance
		creator := s.TokenCreator
		action = e.dispatch(ctx, mint, creator, balance)
		return true
	})

	if action != nil {
		action()
	}
	if e.onOutcome != nil && outcome != OutcomeNone {
		e.onOutcome(outcome)
	}
}

// dispatch returns a closure that submits a sell through the sink with a
// fresh correlation ID, to be invoked after the position lock is released.
func (e *Engine) dispatch(ctx context.Context, mint, creator solwire.Pubkey, amount uint64) func() {
	return func() {
		e.sink.Submit(ctx, uuid.NewString(), mint, creator, amount)
	}
}

func roundFraction(balance uint64, fraction float64) uint64 {
	return uint64(float64(balance)*fraction + 0.5)
}

func ptrU64(v uint64) *uint64 { return &v }
