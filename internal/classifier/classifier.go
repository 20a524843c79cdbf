// Package classifier extracts launch records from venue-program transactions:
// matching the Create+Buy instruction pair, decoding their payloads, and
// deriving the constant-product reference price and target buy size that
// drive the rest of the pipeline. The binary layout here is the venue's
// external contract, not ours — see original_source/sniper/src/models/pump_parser.rs.
package classifier

import (
	"encoding/binary"
	"fmt"

	"github.com/shredstream-sniper/sniperkit/internal/solwire"
)

// VenueProgramID is the pump.fun bonding-curve program address.
var VenueProgramID = solwire.MustPubkeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

// Fixed initial virtual reserves for the constant-product reference price.
const (
	initialSolReserves   uint64  = 30_000_000_000
	initialTokenReserves uint64  = 1_073_000_000_000_000
	solDecimals          float64 = 1_000_000_000.0
	tokenDecimals        float64 = 1_000_000.0

	slippageDiscount = 0.94
	precisionFactor  = 1_000_000.0

	// MinMaxSolCost and MaxMaxSolCost bound the accepted Buy cost window (§4.1).
	MinMaxSolCost uint64 = 300_000_000
	MaxMaxSolCost uint64 = 7_000_000_000
)

// Kind is the result of discriminator matching an instruction's data.
type Kind int

const (
	Unknown Kind = iota
	Create
	Buy
)

var (
	createDiscriminators = [][8]byte{
		{24, 30, 200, 40, 5, 28, 7, 119},
		{54, 49, 138, 255, 162, 99, 87, 199},
	}
	buyDiscriminators = [][8]byte{
		{102, 6, 61, 18, 1, 218, 235, 234},
		{242, 35, 198, 137, 82, 225, 242, 182},
	}
)

// ClassifyDiscriminator maps an instruction's leading 8 data bytes to a Kind.
func ClassifyDiscriminator(data []byte) Kind {
	if len(data) < 8 {
		return Unknown
	}
	var d [8]byte
	copy(d[:], data[:8])
	for _, c := range createDiscriminators {
		if d == c {
			return Create
		}
	}
	for _, b := range buyDiscriminators {
		if d == b {
			return Buy
		}
	}
	return Unknown
}

// ParsedInstruction is a venue-program instruction resolved to real account
// keys (not indices), classified by discriminator.
type ParsedInstruction struct {
	Kind     Kind
	Accounts []solwire.Pubkey
	Data     []byte
}

// ExtractVenueInstructions scans a statically-resolved transaction's
// instructions for ones addressed to VenueProgramID, resolving account
// indices against accountKeys. hasAddressTableLookups transactions are never
// considered, matching §4.1's "classifier only considers statically listed
// accounts" rule.
func ExtractVenueInstructions(accountKeys []solwire.Pubkey, instructions []solwire.CompiledInstruction, hasAddressTableLookups bool) []ParsedInstruction {
	if hasAddressTableLookups {
		return nil
	}

	var out []ParsedInstruction
	for _, ix := range instructions {
		if int(ix.ProgramIDIndex) >= len(accountKeys) {
			continue
		}
		if accountKeys[ix.ProgramIDIndex] != VenueProgramID {
			continue
		}
		accounts := make([]solwire.Pubkey, 0, len(ix.AccountIndexes))
		for _, idx := range ix.AccountIndexes {
			if int(idx) >= len(accountKeys) {
				continue
			}
			accounts = append(accounts, accountKeys[idx])
		}
		out = append(out, ParsedInstruction{
			Kind:     ClassifyDiscriminator(ix.Data),
			Accounts: accounts,
			Data:     ix.Data,
		})
	}
	return out
}

// CreatePayload is a decoded Create instruction.
type CreatePayload struct {
	Name              string
	Symbol            string
	URI               string
	Creator           solwire.Pubkey
	Mint              solwire.Pubkey
	BondingCurve      solwire.Pubkey
	AssocBondingCurve solwire.Pubkey
	User              solwire.Pubkey
}

// ParseCreate decodes a Create instruction's account slots and
// length-prefixed string payload.
func ParseCreate(pi ParsedInstruction) (CreatePayload, error) {
	if pi.Kind != Create {
		return CreatePayload{}, fmt.Errorf("classifier: instruction is not Create")
	}
	if len(pi.Accounts) < 8 {
		return CreatePayload{}, fmt.Errorf("classifier: create instruction has %d accounts, need at least 8", len(pi.Accounts))
	}

	payload := CreatePayload{
		Mint:              pi.Accounts[0],
		BondingCurve:      pi.Accounts[2],
		AssocBondingCurve: pi.Accounts[3],
		User:              pi.Accounts[7],
	}

	data := pi.Data
	offset := 8

	name, offset, err := readLengthPrefixedString(data, offset)
	if err != nil {
		return CreatePayload{}, fmt.Errorf("classifier: create name: %w", err)
	}
	symbol, offset, err := readLengthPrefixedString(data, offset)
	if err != nil {
		return CreatePayload{}, fmt.Errorf("classifier: create symbol: %w", err)
	}
	uri, offset, err := readLengthPrefixedString(data, offset)
	if err != nil {
		return CreatePayload{}, fmt.Errorf("classifier: create uri: %w", err)
	}
	if offset+32 > len(data) {
		return CreatePayload{}, fmt.Errorf("classifier: create creator: truncated, need 32 bytes at offset %d", offset)
	}
	creator, err := solwire.PubkeyFromBytes(data[offset : offset+32])
	if err != nil {
		return CreatePayload{}, fmt.Errorf("classifier: create creator: %w", err)
	}

	payload.Name = name
	payload.Symbol = symbol
	payload.URI = uri
	payload.Creator = creator
	return payload, nil
}

func readLengthPrefixedString(data []byte, offset int) (string, int, error) {
	if offset+4 > len(data) {
		return "", offset, fmt.Errorf("truncated length prefix at offset %d", offset)
	}
	n := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4
	if offset+n > len(data) {
		return "", offset, fmt.Errorf("truncated string of length %d at offset %d", n, offset)
	}
	s := string(data[offset : offset+n])
	return s, offset + n, nil
}

// BuyPayload is a decoded Buy instruction.
type BuyPayload struct {
	TokenAmount       uint64
	MaxSolCost        uint64
	Mint              solwire.Pubkey
	BondingCurve      solwire.Pubkey
	AssocBondingCurve solwire.Pubkey
	User              solwire.Pubkey
}

// ParseBuy decodes a Buy instruction's account slots and two-u64 payload.
func ParseBuy(pi ParsedInstruction) (BuyPayload, error) {
	if pi.Kind != Buy {
		return BuyPayload{}, fmt.Errorf("classifier: instruction is not Buy")
	}
	if len(pi.Accounts) < 7 {
		return BuyPayload{}, fmt.Errorf("classifier: buy instruction has %d accounts, need at least 7", len(pi.Accounts))
	}
	if len(pi.Data) < 24 {
		return BuyPayload{}, fmt.Errorf("classifier: buy data is %d bytes, need at least 24", len(pi.Data))
	}

	return BuyPayload{
		TokenAmount:       binary.LittleEndian.Uint64(pi.Data[8:16]),
		MaxSolCost:        binary.LittleEndian.Uint64(pi.Data[16:24]),
		Mint:              pi.Accounts[2],
		BondingCurve:      pi.Accounts[3],
		AssocBondingCurve: pi.Accounts[4],
		User:              pi.Accounts[6],
	}, nil
}

// LaunchRecord is the classifier's output, forwarded to the filter.
type LaunchRecord struct {
	Signature             string
	Mint                  solwire.Pubkey
	BondingCurve          solwire.Pubkey
	AssocBondingCurve     solwire.Pubkey
	Creator               solwire.Pubkey
	InitialBuyTokenAmount uint64
	MaxSolCost            uint64
	ReferencePrice        float64
	TargetBuyTokenAmount  uint64
}

// ReferencePrice derives the constant-product SOL-per-token price after
// tokenAmountSold has been removed from the fixed initial virtual reserves.
func ReferencePrice(tokenAmountSold uint64) float64 {
	k := float64(initialSolReserves) * float64(initialTokenReserves)

	var tokenReserves uint64
	if tokenAmountSold >= initialTokenReserves {
		tokenReserves = 0
	} else {
		tokenReserves = initialTokenReserves - tokenAmountSold
	}

	var solReserves float64
	if tokenReserves == 0 {
		solReserves = float64(initialSolReserves)
	} else {
		solReserves = k / float64(tokenReserves)
	}

	return (solReserves / solDecimals) / (float64(tokenReserves) / tokenDecimals)
}

// PriceFromReserves derives SOL-per-token price directly from a pair of
// virtual reserves, the same constant-product scaling ReferencePrice uses but
// against reserves read off a live TradeEvent rather than the fixed initial
// ones (spec §4.6: "same constant-product formula as §4.1, but with the
// event's own reserves").
func PriceFromReserves(solReserves, tokenReserves uint64) float64 {
	if tokenReserves == 0 {
		return 0
	}
	return (float64(solReserves) / solDecimals) / (float64(tokenReserves) / tokenDecimals)
}

// TargetBuyTokenAmount derives my_token_amount the way
// transaction_processor.rs does, with a truncation at each of its three
// steps: floor(maxSol/price) to a whole-token count, floor that count's 6%
// slippage discount, then floor the discounted count scaled by the fixed
// precision factor into a raw token amount.
func TargetBuyTokenAmount(maxSolLamports uint64, price float64) uint64 {
	if price <= 0 {
		return 0
	}
	maxSol := float64(maxSolLamports) / solDecimals
	want := uint64(maxSol / price)
	reduced := uint64(float64(want) * slippageDiscount)
	return uint64(float64(reduced) * precisionFactor)
}

// ParseLaunch walks a transaction's venue-program instructions, pairs a
// Create with a Buy, and returns the derived LaunchRecord. It returns
// ok=false (not an error) when the transaction has no Create+Buy pair, is an
// address-table-lookup transaction, or its Buy cost falls outside the
// accepted window.
func ParseLaunch(signature string, accountKeys []solwire.Pubkey, instructions []solwire.CompiledInstruction, hasAddressTableLookups bool, maxSolConfigured uint64) (LaunchRecord, bool, error) {
	parsed := ExtractVenueInstructions(accountKeys, instructions, hasAddressTableLookups)
	if parsed == nil {
		return LaunchRecord{}, false, nil
	}

	var createIx, buyIx *ParsedInstruction
	for i := range parsed {
		switch parsed[i].Kind {
		case Create:
			if createIx == nil {
				createIx = &parsed[i]
			}
		case Buy:
			if buyIx == nil {
				buyIx = &parsed[i]
			}
		}
	}
	if createIx == nil || buyIx == nil {
		return LaunchRecord{}, false, nil
	}

	create, err := ParseCreate(*createIx)
	if err != nil {
		return LaunchRecord{}, false, err
	}
	buy, err := ParseBuy(*buyIx)
	if err != nil {
		return LaunchRecord{}, false, err
	}

	if buy.MaxSolCost < MinMaxSolCost || buy.MaxSolCost > MaxMaxSolCost {
		return LaunchRecord{}, false, nil
	}

	price := ReferencePrice(buy.TokenAmount)
	target := TargetBuyTokenAmount(maxSolConfigured, price)

	return LaunchRecord{
		Signature:             signature,
		Mint:                  create.Mint,
		BondingCurve:          create.BondingCurve,
		AssocBondingCurve:     create.AssocBondingCurve,
		Creator:               create.Creator,
		InitialBuyTokenAmount: buy.TokenAmount,
		MaxSolCost:            buy.MaxSolCost,
		ReferencePrice:        price,
		TargetBuyTokenAmount:  target,
	}, true, nil
}
