package solwire

import (
	"bytes"
	"fmt"
)

// MessageHeader carries the three counts the legacy message format uses to
// tell signers and writability apart from the flat account-key table alone.
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// CompiledInstruction references accounts by index into the message's
// account-key table rather than carrying full pubkeys.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	AccountIndexes []uint8
	Data           []byte
}

// Message is a compiled legacy Solana message: fee payer first, followed by
// the rest of the accounts ordered writable-signers, readonly-signers,
// writable-non-signers, readonly-non-signers.
type Message struct {
	Header          MessageHeader
	AccountKeys     []Pubkey
	RecentBlockhash [32]byte
	Instructions    []CompiledInstruction
}

// accountSlot tracks the strongest signer/writable flags seen for one key
// across every instruction, so a key used both read-only and writable in
// different instructions is merged to writable.
type accountSlot struct {
	key      Pubkey
	signer   bool
	writable bool
}

// CompileMessage builds a legacy Message from a fee payer, an ordered list of
// instructions, and a recent blockhash (or nonce-advance blockhash).
func CompileMessage(feePayer Pubkey, blockhash [32]byte, instructions []Instruction) (*Message, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("compile message: no instructions")
	}

	order := []Pubkey{feePayer}
	slots := map[Pubkey]*accountSlot{
		feePayer: {key: feePayer, signer: true, writable: true},
	}

	touch := func(am AccountMeta) {
		s, ok := slots[am.Pubkey]
		if !ok {
			s = &accountSlot{key: am.Pubkey}
			slots[am.Pubkey] = s
			order = append(order, am.Pubkey)
		}
		if am.IsSigner {
			s.signer = true
		}
		if am.IsWritable {
			s.writable = true
		}
	}

	for _, ix := range instructions {
		touch(AccountMeta{Pubkey: ix.ProgramID})
		for _, am := range ix.Accounts {
			touch(am)
		}
	}

	var writableSigners, readonlySigners, writableNonSigners, readonlyNonSigners []Pubkey
	for _, key := range order {
		s := slots[key]
		switch {
		case s.signer && s.writable:
			writableSigners = append(writableSigners, key)
		case s.signer && !s.writable:
			readonlySigners = append(readonlySigners, key)
		case !s.signer && s.writable:
			writableNonSigners = append(writableNonSigners, key)
		default:
			readonlyNonSigners = append(readonlyNonSigners, key)
		}
	}

	accountKeys := make([]Pubkey, 0, len(order))
	accountKeys = append(accountKeys, writableSigners...)
	accountKeys = append(accountKeys, readonlySigners...)
	accountKeys = append(accountKeys, writableNonSigners...)
	accountKeys = append(accountKeys, readonlyNonSigners...)

	index := make(map[Pubkey]uint8, len(accountKeys))
	for i, key := range accountKeys {
		index[key] = uint8(i)
	}

	compiled := make([]CompiledInstruction, 0, len(instructions))
	for _, ix := range instructions {
		indexes := make([]uint8, len(ix.Accounts))
		for i, am := range ix.Accounts {
			indexes[i] = index[am.Pubkey]
		}
		compiled = append(compiled, CompiledInstruction{
			ProgramIDIndex: index[ix.ProgramID],
			AccountIndexes: indexes,
			Data:           ix.Data,
		})
	}

	return &Message{
		Header: MessageHeader{
			NumRequiredSignatures:       uint8(len(writableSigners) + len(readonlySigners)),
			NumReadonlySignedAccounts:   uint8(len(readonlySigners)),
			NumReadonlyUnsignedAccounts: uint8(len(readonlyNonSigners)),
		},
		AccountKeys:     accountKeys,
		RecentBlockhash: blockhash,
		Instructions:    compiled,
	}, nil
}

// Serialize encodes the message using the legacy wire layout: header, a
// compact-u16-length-prefixed account-key table, the blockhash, then a
// compact-u16-length-prefixed instruction table.
func (m *Message) Serialize() []byte {
	var buf bytes.Buffer
	buf.WriteByte(m.Header.NumRequiredSignatures)
	buf.WriteByte(m.Header.NumReadonlySignedAccounts)
	buf.WriteByte(m.Header.NumReadonlyUnsignedAccounts)

	writeCompactU16(&buf, len(m.AccountKeys))
	for _, k := range m.AccountKeys {
		buf.Write(k.Bytes())
	}

	buf.Write(m.RecentBlockhash[:])

	writeCompactU16(&buf, len(m.Instructions))
	for _, ix := range m.Instructions {
		buf.WriteByte(ix.ProgramIDIndex)
		writeCompactU16(&buf, len(ix.AccountIndexes))
		buf.Write(ix.AccountIndexes)
		writeCompactU16(&buf, len(ix.Data))
		buf.Write(ix.Data)
	}

	return buf.Bytes()
}

// writeCompactU16 encodes n using the short-vec varint format: 7 bits per
// byte, high bit set while more bytes follow.
func writeCompactU16(buf *bytes.Buffer, n int) {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf.WriteByte(b | 0x80)
		} else {
			buf.WriteByte(b)
			return
		}
	}
}
