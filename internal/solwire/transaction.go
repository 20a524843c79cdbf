package solwire

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// Transaction is a signed legacy Solana transaction: one 64-byte signature
// per required signer, in the same order as the message's writable+readonly
// signer block.
type Transaction struct {
	Signatures [][64]byte
	Message    *Message
}

// NewTransaction signs msg with signers, in the order the message's header
// expects (writable signers first, then readonly signers); signers must
// include the fee payer.
func NewTransaction(msg *Message, signers []*Keypair) (*Transaction, error) {
	need := int(msg.Header.NumRequiredSignatures)
	if need > len(msg.AccountKeys) {
		return nil, fmt.Errorf("message requires %d signatures but only has %d accounts", need, len(msg.AccountKeys))
	}

	byKey := make(map[Pubkey]*Keypair, len(signers))
	for _, s := range signers {
		byKey[s.Public] = s
	}

	raw := msg.Serialize()
	sigs := make([][64]byte, need)
	for i := 0; i < need; i++ {
		kp, ok := byKey[msg.AccountKeys[i]]
		if !ok {
			return nil, fmt.Errorf("missing signer for required signature %d (%s)", i, msg.AccountKeys[i])
		}
		sigs[i] = kp.Sign(raw)
	}

	return &Transaction{Signatures: sigs, Message: msg}, nil
}

// Serialize encodes the transaction as compact-u16 signature count + raw
// signatures + serialized message, matching the legacy wire transaction.
func (t *Transaction) Serialize() []byte {
	var buf bytes.Buffer
	writeCompactU16(&buf, len(t.Signatures))
	for _, sig := range t.Signatures {
		buf.Write(sig[:])
	}
	buf.Write(t.Message.Serialize())
	return buf.Bytes()
}

// Base64 returns the transaction wire-encoded and base64-wrapped, the shape
// the sendTransaction JSON-RPC call expects.
func (t *Transaction) Base64() string {
	return base64.StdEncoding.EncodeToString(t.Serialize())
}
