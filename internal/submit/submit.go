package submit

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/shredstream-sniper/sniperkit/internal/classifier"
	"github.com/shredstream-sniper/sniperkit/internal/config"
	"github.com/shredstream-sniper/sniperkit/internal/metrics"
	"github.com/shredstream-sniper/sniperkit/internal/position"
	"github.com/shredstream-sniper/sniperkit/internal/solwire"
	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

// Submitter builds and races the buy and sell transactions, implementing
// internal/exitengine's ActionSink for sells. One Submitter is shared across
// every classified launch and every exit; its keypair and nonce account are
// fixed for the process lifetime (spec §5).
type Submitter struct {
	keypair     *solwire.Keypair
	noncePubkey solwire.Pubkey
	cfg         *config.Config
	jito        RelayEndpoint
	zeroSlot    RelayEndpoint
	relayHTTP   *http.Client
	rpc         *rpcClient
	table       *position.Table
	log         *logging.Logger

	recentBlockhash atomic.Value // [32]byte, the buy path's nonce-anchored hash
}

// New builds a Submitter. rpcURL is used only for nonce re-reads and the
// sell path's fresh blockhash; it never sees the signed transaction itself.
// table is seeded with a fresh PositionState on every buy fan-out (spec
// §4.5: "Submitter on fill" is one of the table's three producers).
func New(keypair *solwire.Keypair, noncePubkey solwire.Pubkey, cfg *config.Config, jito, zeroSlot RelayEndpoint, rpcURL string, table *position.Table, log *logging.Logger) *Submitter {
	s := &Submitter{
		keypair:     keypair,
		noncePubkey: noncePubkey,
		cfg:         cfg,
		jito:        jito,
		zeroSlot:    zeroSlot,
		relayHTTP:   newRelayHTTPClient(),
		rpc:         newRPCClient(rpcURL),
		table:       table,
		log:         log.Component("submit"),
	}
	return s
}

// Prime fetches the nonce account's current blockhash at `finalized`
// commitment, matching tx.rs's start_blockhash_fetcher, and must be called
// once before the first Buy.
func (s *Submitter) Prime(ctx context.Context) error {
	hash, err := s.rpc.NonceBlockhash(ctx, s.noncePubkey, "finalized")
	if err != nil {
		return err
	}
	s.recentBlockhash.Store(hash)
	return nil
}

func (s *Submitter) currentBlockhash() [32]byte {
	v := s.recentBlockhash.Load()
	if v == nil {
		return [32]byte{}
	}
	return v.([32]byte)
}

// Buy constructs and fans out the buy transaction for a classified launch
// (spec §4.3). It is fire-and-forget: callers spawn it as an independent
// short-lived task per §7's scheduling model and do not wait on its result.
func (s *Submitter) Buy(ctx context.Context, correlationID string, rec classifier.LaunchRecord, createSlot uint64) {
	log := s.log.With("correlation_id", correlationID, "mint", rec.Mint.String())

	signerPub := s.keypair.Public
	assocUser, err := solwire.AssociatedTokenAddress(signerPub, rec.Mint)
	if err != nil {
		log.Error("derive user ATA", "err", err)
		return
	}
	vault, err := creatorVault(rec.Creator)
	if err != nil {
		log.Error("derive creator vault", "err", err)
		return
	}

	base := []solwire.Instruction{
		advanceNonceInstruction(s.noncePubkey, signerPub),
		expiryCheckInstruction(rec.AssocBondingCurve, rec.BondingCurve, rec.Creator, createSlot),
		setComputeUnitLimitInstruction(buyComputeUnitLimit),
		createAtaIdempotentInstruction(signerPub, signerPub, rec.Mint, assocUser),
		buyInstruction(signerPub, rec.Mint, rec.BondingCurve, rec.AssocBondingCurve, assocUser, vault, rec.TargetBuyTokenAmount, rec.MaxSolCost),
	}

	jitoFee, zeroSlotBuyFee, _ := s.cfg.RelayFees()
	blockhash := s.currentBlockhash()

	done := make(chan struct{}, 2)
	go s.sendTipped(ctx, log, "zero_slot", "buy", s.zeroSlot, blockhash, signerPub, base, zeroSlotBuyFee, 1, done)
	go s.sendTipped(ctx, log, "jito", "buy", s.jito, blockhash, signerPub, base, jitoFee, -1, done)
	<-done
	<-done

	s.seedPosition(rec)

	if err := s.refreshNonce(ctx); err != nil {
		log.Warn("refresh nonce after buy", "err", err)
	}
}

// seedPosition inserts rec's fill into the PositionTable (spec §4.5:
// "Submitter on fill" is one of the table's three producers). Neither relay
// leg's response is awaited, so this runs optimistically on fire-and-forget
// submission, the same way the buy path never blocks on confirmation.
func (s *Submitter) seedPosition(rec classifier.LaunchRecord) {
	if s.table == nil {
		return
	}
	now := time.Now()
	s.table.With(rec.Mint, func() *position.State {
		firstBuyPrice := rec.ReferencePrice
		balance := rec.TargetBuyTokenAmount
		bondingCurve := rec.BondingCurve
		return &position.State{
			Mint:          rec.Mint,
			TokenCreator:  rec.Creator,
			FirstBuyPrice: &firstBuyPrice,
			HighestPrice:  rec.ReferencePrice,
			Balance:       &balance,
			BondingCurve:  &bondingCurve,
			FirstBuyTime:  &now,
		}
	}, func(s *position.State) (remove bool) {
		return false
	})
}

// Submit implements exitengine.ActionSink: constructs and fans out the sell
// transaction for tokenAmount of mint (spec §4.4). Only the zero_slot relay
// leg is used for sells.
func (s *Submitter) Submit(ctx context.Context, correlationID string, mint, creator solwire.Pubkey, tokenAmount uint64) {
	log := s.log.With("correlation_id", correlationID, "mint", mint.String())

	signerPub := s.keypair.Public
	bondingCurve, assocBondingCurve, err := bondingCurveForMint(mint)
	if err != nil {
		log.Error("derive bonding curve", "err", err)
		metrics.SellFailureTotal.WithLabelValues("derive_accounts").Inc()
		return
	}
	assocUser, err := solwire.AssociatedTokenAddress(signerPub, mint)
	if err != nil {
		log.Error("derive user ATA", "err", err)
		metrics.SellFailureTotal.WithLabelValues("derive_accounts").Inc()
		return
	}
	vault, err := creatorVault(creator)
	if err != nil {
		log.Error("derive creator vault", "err", err)
		metrics.SellFailureTotal.WithLabelValues("derive_accounts").Inc()
		return
	}

	blockhash, err := s.rpc.LatestBlockhash(ctx)
	if err != nil {
		log.Error("fetch latest blockhash for sell", "err", err)
		metrics.SellFailureTotal.WithLabelValues("blockhash").Inc()
		return
	}

	base := []solwire.Instruction{
		sellInstruction(signerPub, mint, bondingCurve, assocBondingCurve, assocUser, vault, tokenAmount),
		setComputeUnitLimitInstruction(sellComputeUnitLimit),
	}

	_, _, zeroSlotSellFee := s.cfg.RelayFees()
	done := make(chan struct{}, 1)
	s.sendTipped(ctx, log, "zero_slot", "sell", s.zeroSlot, blockhash, signerPub, base, zeroSlotSellFee, 1, done)
	<-done // sendTipped always signals done before returning; this just drains it
}

// sendTipped clones base, splices in a tip-transfer at tipPos (a negative
// value means append, matching tx.rs's insert-at-1-for-0slot /
// append-for-jito split), signs, and posts it to relay. It signals done when
// it returns, whatever the outcome; Buy and Submit both wait for that signal.
func (s *Submitter) sendTipped(ctx context.Context, log *logging.Logger, relayName, side string, relay RelayEndpoint, blockhash [32]byte, signer solwire.Pubkey, base []solwire.Instruction, feeSOL float64, tipPos int, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	tipAccount := relay.RandomTipAccount()
	lamports := uint64(feeSOL * 1_000_000_000.0)
	tip := transferInstruction(signer, tipAccount, lamports)

	instructions := make([]solwire.Instruction, 0, len(base)+1)
	if tipPos < 0 || tipPos >= len(base) {
		instructions = append(instructions, base...)
		instructions = append(instructions, tip)
	} else {
		instructions = append(instructions, base[:tipPos]...)
		instructions = append(instructions, tip)
		instructions = append(instructions, base[tipPos:]...)
	}

	msg, err := solwire.CompileMessage(signer, blockhash, instructions)
	if err != nil {
		log.Error("compile message", "relay", relayName, "err", err)
		metrics.SubmitOutcomeTotal.WithLabelValues(relayName, side, "build_error").Inc()
		return
	}
	tx, err := solwire.NewTransaction(msg, []*solwire.Keypair{s.keypair})
	if err != nil {
		log.Error("sign transaction", "relay", relayName, "err", err)
		metrics.SubmitOutcomeTotal.WithLabelValues(relayName, side, "build_error").Inc()
		return
	}

	start := time.Now()
	sendCtx, cancel := context.WithTimeout(ctx, relaySendTimeout)
	defer cancel()
	err = sendRaw(sendCtx, s.relayHTTP, relay.URL, tx.Base64())
	metrics.SubmitLatencySeconds.WithLabelValues(relayName, side).Observe(time.Since(start).Seconds())

	if err != nil {
		log.Warn("relay send failed", "relay", relayName, "side", side, "err", err)
		metrics.SubmitOutcomeTotal.WithLabelValues(relayName, side, "error").Inc()
		return
	}
	metrics.SubmitOutcomeTotal.WithLabelValues(relayName, side, "ok").Inc()
}

// refreshNonce re-reads the nonce account at `processed` commitment after a
// buy fan-out, matching tx.rs's update_nonce.
func (s *Submitter) refreshNonce(ctx context.Context) error {
	hash, err := s.rpc.NonceBlockhash(ctx, s.noncePubkey, "processed")
	if err != nil {
		return err
	}
	s.recentBlockhash.Store(hash)
	return nil
}
