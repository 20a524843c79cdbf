package feed

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/shredstream-sniper/sniperkit/internal/classifier"
	"github.com/shredstream-sniper/sniperkit/internal/config"
	"github.com/shredstream-sniper/sniperkit/internal/filter"
	"github.com/shredstream-sniper/sniperkit/internal/lists"
	"github.com/shredstream-sniper/sniperkit/internal/metrics"
	"github.com/shredstream-sniper/sniperkit/internal/solwire"
	"github.com/shredstream-sniper/sniperkit/pkg/logging"
)

// ShredBatch is one frame off the shred relay (spec §6): a slot and the raw,
// length-delimited serialization of that slot's Entry{num_hashes, hash,
// transactions} records.
type ShredBatch struct {
	Slot         uint64
	EntriesBytes []byte
}

// ShredStreamSource is the shred relay, named only by contract per spec §1's
// Non-goals (no relay protocol client is implemented here).
type ShredStreamSource interface {
	Subscribe(ctx context.Context) (<-chan ShredBatch, error)
}

// BuySink is the Submitter's buy entrypoint, depended on by interface so
// internal/feed never imports internal/submit directly.
type BuySink interface {
	Buy(ctx context.Context, correlationID string, rec classifier.LaunchRecord, createSlot uint64)
}

// ShredIngest consumes ShredBatch frames, classifies each transaction, and
// fans accepted launches out to the Submitter as independent short-lived
// tasks (spec §5).
type ShredIngest struct {
	source    ShredStreamSource
	sink      BuySink
	cfg       *config.Config
	blacklist *lists.Set
	whitelist *lists.Set
	health    *HealthFlag
	log       *logging.Logger

	nextCorrelationID func() string
}

// New builds a ShredIngest. nextCorrelationID generates a correlation ID per
// classified launch (cmd/sniperd wires uuid.NewString plus a sequence number).
func New(source ShredStreamSource, sink BuySink, cfg *config.Config, blacklist, whitelist *lists.Set, health *HealthFlag, nextCorrelationID func() string, log *logging.Logger) *ShredIngest {
	return &ShredIngest{
		source:            source,
		sink:              sink,
		cfg:               cfg,
		blacklist:         blacklist,
		whitelist:         whitelist,
		health:            health,
		nextCorrelationID: nextCorrelationID,
		log:               log.Component("shred_ingest"),
	}
}

// Run subscribes and processes batches until ctx is cancelled or the stream
// closes, reconnecting after a 60-second backoff per spec §5's "inner: break
// and reconnect after 60 s of stream error" rule.
func (si *ShredIngest) Run(ctx context.Context) {
	runStreamWithBackoff(ctx, si.log, "shred stream", func(ctx context.Context) error {
		batches, err := si.source.Subscribe(ctx)
		if err != nil {
			return fmt.Errorf("subscribe shred stream: %w", err)
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			case batch, ok := <-batches:
				if !ok {
					return fmt.Errorf("shred stream closed")
				}
				si.handleBatch(ctx, batch)
			}
		}
	})
}

func (si *ShredIngest) handleBatch(ctx context.Context, batch ShredBatch) {
	entries, err := decodeEntries(batch.EntriesBytes)
	if err != nil {
		si.log.Warn("decode shred entry batch", "slot", batch.Slot, "err", err)
		return
	}
	for _, entry := range entries {
		for _, raw := range entry.Transactions {
			si.handleTransaction(ctx, batch.Slot, raw)
		}
	}
}

func (si *ShredIngest) handleTransaction(ctx context.Context, slot uint64, raw []byte) {
	decoded, err := solwire.DecodeTransaction(raw)
	if err != nil {
		return // malformed frame: drop and continue (spec §7 parse-failure handling)
	}

	signature := ""
	if len(decoded.Signatures) > 0 {
		signature = base58.Encode(decoded.Signatures[0][:])
	}

	maxSolConfigured := uint64(si.cfg.MaxSol() * 1_000_000_000.0)
	rec, ok, err := classifier.ParseLaunch(signature, decoded.Message.AccountKeys, decoded.Message.Instructions, decoded.HasAddressTableLookups, maxSolConfigured)
	if err != nil {
		si.log.Warn("parse launch", "err", err)
		return
	}
	if !ok {
		return
	}
	metrics.ClassifiedTotal.Inc()

	allowed, reason := filter.Decide(rec, si.cfg, si.blacklist, si.whitelist, si.health.Get())
	if !allowed {
		metrics.FilterDropTotal.WithLabelValues(string(reason)).Inc()
		return
	}

	correlationID := si.nextCorrelationID()
	go si.sink.Buy(ctx, correlationID, rec, slot)
}

type shredEntry struct {
	NumHashes    uint64
	Hash         [32]byte
	Transactions [][]byte
}

// decodeEntries parses the length-delimited Entry array spec §6 describes:
// a compact-u16 entry count, then per entry num_hashes (u64 LE), a 32-byte
// hash, and a compact-u16-counted array of u32-length-prefixed raw
// transactions.
func decodeEntries(data []byte) ([]shredEntry, error) {
	offset := 0
	count, n, err := readCompactU16(data, offset)
	if err != nil {
		return nil, fmt.Errorf("entry count: %w", err)
	}
	offset += n

	entries := make([]shredEntry, 0, count)
	for i := 0; i < count; i++ {
		if offset+8+32 > len(data) {
			return nil, fmt.Errorf("truncated entry %d header", i)
		}
		var e shredEntry
		e.NumHashes = binary.LittleEndian.Uint64(data[offset : offset+8])
		offset += 8
		copy(e.Hash[:], data[offset:offset+32])
		offset += 32

		txCount, n, err := readCompactU16(data, offset)
		if err != nil {
			return nil, fmt.Errorf("entry %d tx count: %w", i, err)
		}
		offset += n

		e.Transactions = make([][]byte, 0, txCount)
		for j := 0; j < txCount; j++ {
			if offset+4 > len(data) {
				return nil, fmt.Errorf("entry %d tx %d: truncated length", i, j)
			}
			txLen := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
			offset += 4
			if offset+txLen > len(data) {
				return nil, fmt.Errorf("entry %d tx %d: truncated body", i, j)
			}
			e.Transactions = append(e.Transactions, data[offset:offset+txLen])
			offset += txLen
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func readCompactU16(data []byte, offset int) (int, int, error) {
	var v int
	var shift uint
	start := offset
	for {
		if offset >= len(data) {
			return 0, 0, fmt.Errorf("short buffer at offset %d", start)
		}
		b := data[offset]
		offset++
		v |= int(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, offset - start, nil
		}
		shift += 7
		if shift > 21 {
			return 0, 0, fmt.Errorf("compact-u16 overflow")
		}
	}
}
