package solwire

import "fmt"

// DecodedTransaction is a transaction parsed off the wire, the inverse of
// Transaction.Serialize/Message.Serialize. Address-table lookup contents are
// never needed downstream — ExtractVenueInstructions discards any
// transaction with HasAddressTableLookups set per spec §4.1, since the
// classifier only considers statically listed accounts — so the lookup
// bytes are consumed and discarded rather than decoded into a type.
type DecodedTransaction struct {
	Signatures             [][64]byte
	Message                Message
	HasAddressTableLookups bool
}

// DecodeTransaction parses a raw legacy or versioned transaction, per the
// ShredIngest wire contract in spec §6 (length-delimited Entry{transactions}
// frames, each frame one serialized transaction).
func DecodeTransaction(raw []byte) (DecodedTransaction, error) {
	var out DecodedTransaction
	c := &decodeCursor{data: raw}

	sigCount := c.compactU16()
	out.Signatures = make([][64]byte, sigCount)
	for i := 0; i < sigCount; i++ {
		copy(out.Signatures[i][:], c.take(64))
	}
	if c.err != nil {
		return out, fmt.Errorf("decode signatures: %w", c.err)
	}

	if c.remaining() == 0 {
		return out, fmt.Errorf("decode transaction: empty message")
	}

	if c.peek()&0x80 != 0 {
		out.HasAddressTableLookups = true
		c.take(1) // version byte, not otherwise inspected
	}

	out.Message.Header.NumRequiredSignatures = c.u8()
	out.Message.Header.NumReadonlySignedAccounts = c.u8()
	out.Message.Header.NumReadonlyUnsignedAccounts = c.u8()

	keyCount := c.compactU16()
	out.Message.AccountKeys = make([]Pubkey, keyCount)
	for i := 0; i < keyCount; i++ {
		pk, err := PubkeyFromBytes(c.take(32))
		if err != nil {
			return out, fmt.Errorf("decode account key %d: %w", i, err)
		}
		out.Message.AccountKeys[i] = pk
	}

	copy(out.Message.RecentBlockhash[:], c.take(32))

	ixCount := c.compactU16()
	out.Message.Instructions = make([]CompiledInstruction, ixCount)
	for i := 0; i < ixCount; i++ {
		var ix CompiledInstruction
		ix.ProgramIDIndex = c.u8()
		accCount := c.compactU16()
		ix.AccountIndexes = append([]uint8(nil), c.take(accCount)...)
		dataLen := c.compactU16()
		ix.Data = append([]byte(nil), c.take(dataLen)...)
		out.Message.Instructions[i] = ix
	}

	if c.err != nil {
		return out, fmt.Errorf("decode message: %w", c.err)
	}

	if out.HasAddressTableLookups && c.remaining() > 0 {
		lookupCount := c.compactU16()
		for i := 0; i < lookupCount && c.err == nil; i++ {
			pk, err := PubkeyFromBytes(c.take(32))
			if err != nil {
				return out, fmt.Errorf("decode lookup table key %d: %w", i, err)
			}
			writableCount := c.compactU16()
			_ = c.take(writableCount)
			readonlyCount := c.compactU16()
			_ = c.take(readonlyCount)
			_ = pk
		}
	}

	return out, nil
}

// decodeCursor sequentially consumes raw[offset:] the same way
// internal/venueevents' borsh cursor does, sticky-erroring on short reads.
type decodeCursor struct {
	data   []byte
	offset int
	err    error
}

func (c *decodeCursor) remaining() int {
	return len(c.data) - c.offset
}

func (c *decodeCursor) peek() byte {
	if c.err != nil || c.remaining() < 1 {
		return 0
	}
	return c.data[c.offset]
}

func (c *decodeCursor) u8() byte {
	b := c.take(1)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

func (c *decodeCursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.offset+n > len(c.data) {
		c.err = fmt.Errorf("short buffer: need %d bytes, have %d", n, c.remaining())
		return nil
	}
	b := c.data[c.offset : c.offset+n]
	c.offset += n
	return b
}

func (c *decodeCursor) compactU16() int {
	var v int
	var shift uint
	for {
		b := c.take(1)
		if len(b) == 0 {
			return 0
		}
		v |= int(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			return v
		}
		shift += 7
		if shift > 21 {
			c.err = fmt.Errorf("compact-u16 overflow")
			return 0
		}
	}
}
