// Package venueevents decodes the venue program's self-CPI CreateEvent and
// TradeEvent log records, shared by the sniper's LiveTradeIngest (spec §4.6)
// and the analyzer's EventStreamIngest (spec §4.9) — both processes parse the
// identical on-chain log format. Grounded on
// original_source/analyzer/src/main.rs's EventTrait/CreateEvent/TradeEvent.
package venueevents

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/shredstream-sniper/sniperkit/internal/solwire"
)

const ProgramDataPrefix = "Program data: "

var (
	CreateEventDiscriminator = [8]byte{27, 114, 169, 77, 222, 235, 99, 118}
	TradeEventDiscriminator  = [8]byte{189, 219, 127, 211, 78, 230, 97, 238}
)

// CreateEvent is the venue program's self-CPI log emitted when a token is
// created.
type CreateEvent struct {
	Name                 string
	Symbol               string
	URI                  string
	Mint                 solwire.Pubkey
	BondingCurve         solwire.Pubkey
	User                 solwire.Pubkey
	Creator              solwire.Pubkey
	Timestamp            int64
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	TokenTotalSupply     uint64
}

// TradeEvent is the venue program's self-CPI log emitted on every buy/sell.
type TradeEvent struct {
	Mint                  solwire.Pubkey
	SolAmount             uint64
	TokenAmount           uint64
	IsBuy                 bool
	User                  solwire.Pubkey
	Timestamp             int64
	VirtualSolReserves    uint64
	VirtualTokenReserves  uint64
	RealSolReserves       uint64
	RealTokenReserves     uint64
	FeeRecipient          solwire.Pubkey
	FeeBasisPoints        uint64
	Fee                   uint64
	Creator               solwire.Pubkey
	CreatorFeeBasisPoints uint64
	CreatorFee            uint64
}

// ParseCreateEventLog scans logs from the end (the log order mirrors
// instruction nesting, so the most recent self-CPI record is checked first)
// for a CreateEvent record.
func ParseCreateEventLog(logs []string) (CreateEvent, bool, error) {
	payload, ok := findEventPayload(logs, CreateEventDiscriminator)
	if !ok {
		return CreateEvent{}, false, nil
	}
	ev, err := decodeCreateEvent(payload)
	if err != nil {
		return CreateEvent{}, false, err
	}
	return ev, true, nil
}

// ParseTradeEventLog scans logs for a TradeEvent record.
func ParseTradeEventLog(logs []string) (TradeEvent, bool, error) {
	payload, ok := findEventPayload(logs, TradeEventDiscriminator)
	if !ok {
		return TradeEvent{}, false, nil
	}
	ev, err := decodeTradeEvent(payload)
	if err != nil {
		return TradeEvent{}, false, err
	}
	return ev, true, nil
}

func findEventPayload(logs []string, discriminator [8]byte) ([]byte, bool) {
	for i := len(logs) - 1; i >= 0; i-- {
		rest, ok := strings.CutPrefix(logs[i], ProgramDataPrefix)
		if !ok {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(rest)
		if err != nil || len(raw) < 8 {
			continue
		}
		var head [8]byte
		copy(head[:], raw[:8])
		if head == discriminator {
			return raw[8:], true
		}
	}
	return nil, false
}

// cursor is a small sequential reader over a borsh-encoded byte slice.
type cursor struct {
	data   []byte
	offset int
	err    error
}

func (c *cursor) string() string {
	if c.err != nil {
		return ""
	}
	if c.offset+4 > len(c.data) {
		c.err = fmt.Errorf("truncated string length at offset %d", c.offset)
		return ""
	}
	n := int(binary.LittleEndian.Uint32(c.data[c.offset : c.offset+4]))
	c.offset += 4
	if c.offset+n > len(c.data) {
		c.err = fmt.Errorf("truncated string of length %d at offset %d", n, c.offset)
		return ""
	}
	s := string(c.data[c.offset : c.offset+n])
	c.offset += n
	return s
}

func (c *cursor) pubkey() solwire.Pubkey {
	if c.err != nil {
		return solwire.Pubkey{}
	}
	if c.offset+32 > len(c.data) {
		c.err = fmt.Errorf("truncated pubkey at offset %d", c.offset)
		return solwire.Pubkey{}
	}
	pk, err := solwire.PubkeyFromBytes(c.data[c.offset : c.offset+32])
	if err != nil {
		c.err = err
		return solwire.Pubkey{}
	}
	c.offset += 32
	return pk
}

func (c *cursor) u64() uint64 {
	if c.err != nil {
		return 0
	}
	if c.offset+8 > len(c.data) {
		c.err = fmt.Errorf("truncated u64 at offset %d", c.offset)
		return 0
	}
	v := binary.LittleEndian.Uint64(c.data[c.offset : c.offset+8])
	c.offset += 8
	return v
}

func (c *cursor) i64() int64 {
	return int64(c.u64())
}

func (c *cursor) boolean() bool {
	if c.err != nil {
		return false
	}
	if c.offset+1 > len(c.data) {
		c.err = fmt.Errorf("truncated bool at offset %d", c.offset)
		return false
	}
	v := c.data[c.offset] != 0
	c.offset++
	return v
}

func decodeCreateEvent(data []byte) (CreateEvent, error) {
	c := &cursor{data: data}
	ev := CreateEvent{
		Name:         c.string(),
		Symbol:       c.string(),
		URI:          c.string(),
		Mint:         c.pubkey(),
		BondingCurve: c.pubkey(),
		User:         c.pubkey(),
		Creator:      c.pubkey(),
	}
	ev.Timestamp = c.i64()
	ev.VirtualTokenReserves = c.u64()
	ev.VirtualSolReserves = c.u64()
	ev.RealTokenReserves = c.u64()
	ev.TokenTotalSupply = c.u64()
	if c.err != nil {
		return CreateEvent{}, fmt.Errorf("decode create event: %w", c.err)
	}
	return ev, nil
}

func decodeTradeEvent(data []byte) (TradeEvent, error) {
	c := &cursor{data: data}
	ev := TradeEvent{
		Mint:        c.pubkey(),
		SolAmount:   c.u64(),
		TokenAmount: c.u64(),
		IsBuy:       c.boolean(),
		User:        c.pubkey(),
	}
	ev.Timestamp = c.i64()
	ev.VirtualSolReserves = c.u64()
	ev.VirtualTokenReserves = c.u64()
	ev.RealSolReserves = c.u64()
	ev.RealTokenReserves = c.u64()
	ev.FeeRecipient = c.pubkey()
	ev.FeeBasisPoints = c.u64()
	ev.Fee = c.u64()
	ev.Creator = c.pubkey()
	ev.CreatorFeeBasisPoints = c.u64()
	ev.CreatorFee = c.u64()
	if c.err != nil {
		return TradeEvent{}, fmt.Errorf("decode trade event: %w", c.err)
	}
	return ev, nil
}
