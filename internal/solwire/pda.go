package solwire

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
)

// pdaMarker is appended by the ledger's PDA derivation so that a program
// address can never collide with a point a private key could ever produce.
const pdaMarker = "ProgramDerivedAddress"

// maxSeedBump is the highest bump seed tried before giving up.
const maxSeedBump = 255

// FindProgramAddress derives a program-derived address from seeds and a
// program ID, walking the bump seed down from 255 and returning the first
// candidate hash that is NOT a valid point on the Ed25519 curve (a PDA must
// have no known private key, so it must fail curve validation).
func FindProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, uint8, error) {
	for bump := maxSeedBump; bump >= 0; bump-- {
		candidate, err := createProgramAddress(seeds, uint8(bump), programID)
		if err != nil {
			continue
		}
		if !isOnCurve(candidate) {
			return candidate, uint8(bump), nil
		}
	}
	return Pubkey{}, 0, fmt.Errorf("unable to find a viable program address bump for seeds")
}

// createProgramAddress computes sha256(seeds... || bump || programID || marker).
func createProgramAddress(seeds [][]byte, bump uint8, programID Pubkey) (Pubkey, error) {
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > 32 {
			return Pubkey{}, fmt.Errorf("seed exceeds 32 bytes")
		}
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(programID.Bytes())
	h.Write([]byte(pdaMarker))
	var out Pubkey
	copy(out[:], h.Sum(nil))
	return out, nil
}

// isOnCurve reports whether b is a valid compressed Ed25519 curve point.
func isOnCurve(pk Pubkey) bool {
	_, err := new(edwards25519.Point).SetBytes(pk.Bytes())
	return err == nil
}
