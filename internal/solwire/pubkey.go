// Package solwire builds and signs legacy Solana transactions: account-key
// ordering, compact-u16 encoding, instruction compilation, and Ed25519
// signing. It does not depend on any Solana SDK.
package solwire

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// PubkeySize is the length in bytes of a Solana public key.
const PubkeySize = 32

// Pubkey is a 32-byte ledger account identifier.
type Pubkey [PubkeySize]byte

// ZeroPubkey is the all-zero pubkey, used as a sentinel for "not set".
var ZeroPubkey = Pubkey{}

// String returns the base58 encoding of the pubkey.
func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// Bytes returns the pubkey's raw 32 bytes.
func (p Pubkey) Bytes() []byte {
	return p[:]
}

// IsZero reports whether p is the all-zero sentinel.
func (p Pubkey) IsZero() bool {
	return p == ZeroPubkey
}

// PubkeyFromBase58 decodes a base58-encoded Solana public key.
func PubkeyFromBase58(s string) (Pubkey, error) {
	decoded := base58.Decode(s)
	var pk Pubkey
	if len(decoded) != PubkeySize {
		return pk, fmt.Errorf("pubkey %q decodes to %d bytes, want %d", s, len(decoded), PubkeySize)
	}
	copy(pk[:], decoded)
	return pk, nil
}

// PubkeyFromBytes copies b into a Pubkey; it errors if b isn't 32 bytes.
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var pk Pubkey
	if len(b) != PubkeySize {
		return pk, fmt.Errorf("pubkey bytes len %d, want %d", len(b), PubkeySize)
	}
	copy(pk[:], b)
	return pk, nil
}

// MustPubkeyFromBase58 is PubkeyFromBase58 but panics on error; only safe for
// program-ID and well-known account constants fixed at compile time.
func MustPubkeyFromBase58(s string) Pubkey {
	pk, err := PubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}
