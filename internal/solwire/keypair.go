package solwire

import (
	"crypto/ed25519"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Keypair is a raw Ed25519 signer: the same keypair is shared across every
// submission for the lifetime of the process (it is never rotated).
type Keypair struct {
	Public  Pubkey
	private ed25519.PrivateKey
}

// GenerateKeypair creates a fresh random keypair.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	var pk Pubkey
	copy(pk[:], pub)
	return &Keypair{Public: pk, private: priv}, nil
}

// KeypairFromSeed builds a Keypair from a 32-byte Ed25519 seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed len %d, want %d", len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	var pk Pubkey
	copy(pk[:], priv.Public().(ed25519.PublicKey))
	return &Keypair{Public: pk, private: priv}, nil
}

// KeypairFromBase58 decodes a base58 64-byte Ed25519 private key (the format
// most ledger tooling exports: seed||pubkey).
func KeypairFromBase58(s string) (*Keypair, error) {
	decoded := base58.Decode(s)
	if len(decoded) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key decodes to %d bytes, want %d", len(decoded), ed25519.PrivateKeySize)
	}
	priv := ed25519.PrivateKey(decoded)
	var pk Pubkey
	copy(pk[:], priv.Public().(ed25519.PublicKey))
	return &Keypair{Public: pk, private: priv}, nil
}

// Sign signs msg, returning a 64-byte Ed25519 signature.
func (k *Keypair) Sign(msg []byte) [64]byte {
	var sig [64]byte
	copy(sig[:], ed25519.Sign(k.private, msg))
	return sig
}

// Seed returns the 32-byte Ed25519 seed backing this keypair, for at-rest
// encryption by internal/signerkey.
func (k *Keypair) Seed() []byte {
	return k.private.Seed()
}
