package solwire

import (
	"bytes"
	"testing"
)

func TestPubkeyBase58RoundTrip(t *testing.T) {
	kp, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	s := kp.Public.String()
	decoded, err := PubkeyFromBase58(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != kp.Public {
		t.Fatalf("round trip mismatch: got %x want %x", decoded, kp.Public)
	}
}

func TestFindProgramAddressDeterministic(t *testing.T) {
	program := MustPubkeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	seed := []byte("creator-vault")
	creator, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}

	pda1, bump1, err := FindProgramAddress([][]byte{seed, creator.Public.Bytes()}, program)
	if err != nil {
		t.Fatalf("find program address: %v", err)
	}
	pda2, bump2, err := FindProgramAddress([][]byte{seed, creator.Public.Bytes()}, program)
	if err != nil {
		t.Fatalf("find program address (second call): %v", err)
	}
	if pda1 != pda2 || bump1 != bump2 {
		t.Fatalf("PDA derivation is not deterministic: (%x,%d) vs (%x,%d)", pda1, bump1, pda2, bump2)
	}
	if isOnCurve(pda1) {
		t.Fatalf("derived PDA must not be a valid curve point")
	}
}

func TestMessageCompileOrdersFeePayerFirst(t *testing.T) {
	feePayer, _ := GenerateKeypair()
	other, _ := GenerateKeypair()
	program := MustPubkeyFromBase58("11111111111111111111111111111111")

	ix := NewInstruction(program, []AccountMeta{
		Signer(feePayer.Public, true),
		Readonly(other.Public),
	}, []byte{1, 2, 3})

	msg, err := CompileMessage(feePayer.Public, [32]byte{9}, []Instruction{ix})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if msg.AccountKeys[0] != feePayer.Public {
		t.Fatalf("fee payer must be account index 0")
	}
	if msg.Header.NumRequiredSignatures != 1 {
		t.Fatalf("expected 1 required signature, got %d", msg.Header.NumRequiredSignatures)
	}
}

func TestTransactionSignAndSerialize(t *testing.T) {
	feePayer, _ := GenerateKeypair()
	program := MustPubkeyFromBase58("11111111111111111111111111111111")
	ix := NewInstruction(program, []AccountMeta{Signer(feePayer.Public, true)}, []byte{7})

	msg, err := CompileMessage(feePayer.Public, [32]byte{1, 2, 3}, []Instruction{ix})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	tx, err := NewTransaction(msg, []*Keypair{feePayer})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(tx.Signatures) != 1 {
		t.Fatalf("expected 1 signature, got %d", len(tx.Signatures))
	}

	encoded := tx.Base64()
	if encoded == "" {
		t.Fatalf("expected non-empty base64 transaction")
	}

	raw := tx.Serialize()
	if !bytes.Contains(raw, msg.Serialize()) {
		t.Fatalf("serialized transaction must contain the serialized message")
	}
}
