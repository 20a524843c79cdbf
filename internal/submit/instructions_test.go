package submit

import (
	"encoding/binary"
	"testing"

	"github.com/shredstream-sniper/sniperkit/internal/classifier"
	"github.com/shredstream-sniper/sniperkit/internal/solwire"
)

func mustKey(t *testing.T, s string) solwire.Pubkey {
	t.Helper()
	pk, err := solwire.PubkeyFromBase58(s)
	if err != nil {
		t.Fatalf("pubkey %s: %v", s, err)
	}
	return pk
}

func TestBuyInstructionAccountOrder(t *testing.T) {
	signer := mustKey(t, "4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")
	mint := mustKey(t, "62qc2CNXwrYqQScmEdiZFFAnJR262PxWEuNQtxfafNgV")
	bonding := mustKey(t, "Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
	assocBonding := mustKey(t, "7uVmFk3SYJEgvD9unVPKzS19gSAg5b6CYzMP4er1HeKQ")
	assocUser := mustKey(t, "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	vault := mustKey(t, "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

	ix := buyInstruction(signer, mint, bonding, assocBonding, assocUser, vault, 1_000_000, 500_000_000)

	if ix.ProgramID != proxyProgramID {
		t.Fatalf("program id = %s, want proxy", ix.ProgramID)
	}
	if len(ix.Accounts) != 12 {
		t.Fatalf("accounts = %d, want 12", len(ix.Accounts))
	}

	want := []solwire.Pubkey{globalAccount, feeRecipient, mint, bonding, assocBonding, assocUser, signer, solwire.SystemProgramID, solwire.TokenProgramID, vault, eventAuthority, classifier.VenueProgramID}
	for i, w := range want {
		if ix.Accounts[i].Pubkey != w {
			t.Errorf("account[%d] = %s, want %s", i, ix.Accounts[i].Pubkey, w)
		}
	}
	if !ix.Accounts[6].IsSigner {
		t.Errorf("account[6] (signer) should be marked signer")
	}

	if len(ix.Data) != 24 {
		t.Fatalf("data len = %d, want 24", len(ix.Data))
	}
	var gotSel [8]byte
	copy(gotSel[:], ix.Data[:8])
	if gotSel != buySelector {
		t.Errorf("selector mismatch")
	}
	if got := binary.LittleEndian.Uint64(ix.Data[8:16]); got != 1_000_000 {
		t.Errorf("token amount = %d, want 1000000", got)
	}
	if got := binary.LittleEndian.Uint64(ix.Data[16:24]); got != 500_000_000 {
		t.Errorf("max sol cost = %d, want 500000000", got)
	}
}

func TestSellInstructionAccountOrder(t *testing.T) {
	signer := mustKey(t, "4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")
	mint := mustKey(t, "62qc2CNXwrYqQScmEdiZFFAnJR262PxWEuNQtxfafNgV")
	bonding := mustKey(t, "Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
	assocBonding := mustKey(t, "7uVmFk3SYJEgvD9unVPKzS19gSAg5b6CYzMP4er1HeKQ")
	assocUser := mustKey(t, "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	vault := mustKey(t, "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

	ix := sellInstruction(signer, mint, bonding, assocBonding, assocUser, vault, 42)

	// Sell swaps the creator-vault/token-program order relative to Buy.
	want := []solwire.Pubkey{globalAccount, feeRecipient, mint, bonding, assocBonding, assocUser, signer, solwire.SystemProgramID, vault, solwire.TokenProgramID, eventAuthority, classifier.VenueProgramID}
	if len(ix.Accounts) != len(want) {
		t.Fatalf("accounts = %d, want %d", len(ix.Accounts), len(want))
	}
	for i, w := range want {
		if ix.Accounts[i].Pubkey != w {
			t.Errorf("account[%d] = %s, want %s", i, ix.Accounts[i].Pubkey, w)
		}
	}

	if len(ix.Data) != 24 {
		t.Fatalf("data len = %d, want 24", len(ix.Data))
	}
	if got := binary.LittleEndian.Uint64(ix.Data[16:24]); got != 0 {
		t.Errorf("min_sol_receive = %d, want 0", got)
	}
}

func TestExpiryCheckInstruction(t *testing.T) {
	assocBonding := mustKey(t, "7uVmFk3SYJEgvD9unVPKzS19gSAg5b6CYzMP4er1HeKQ")
	bonding := mustKey(t, "Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
	creator := mustKey(t, "62qc2CNXwrYqQScmEdiZFFAnJR262PxWEuNQtxfafNgV")

	ix := expiryCheckInstruction(assocBonding, bonding, creator, 1000)
	if len(ix.Data) != 40 {
		t.Fatalf("data len = %d, want 40", len(ix.Data))
	}
	if got := binary.LittleEndian.Uint64(ix.Data[8:16]); got != 1001 {
		t.Errorf("expiry slot = %d, want 1001", got)
	}
	for _, b := range ix.Data[16:] {
		if b != 0 {
			t.Fatalf("expected zero min-balance/padding, found non-zero byte")
		}
	}
	if len(ix.Accounts) != 3 {
		t.Fatalf("accounts = %d, want 3", len(ix.Accounts))
	}
	for _, am := range ix.Accounts {
		if am.IsSigner || am.IsWritable {
			t.Errorf("expiry-check accounts must all be read-only non-signers")
		}
	}
}

func TestCreatorVaultIsStableAndOffCurve(t *testing.T) {
	creator := mustKey(t, "62qc2CNXwrYqQScmEdiZFFAnJR262PxWEuNQtxfafNgV")
	v1, err := creatorVault(creator)
	if err != nil {
		t.Fatalf("creatorVault: %v", err)
	}
	v2, err := creatorVault(creator)
	if err != nil {
		t.Fatalf("creatorVault: %v", err)
	}
	if v1 != v2 {
		t.Errorf("creatorVault is not deterministic")
	}
}

func TestBondingCurveForMintDerivesAssociatedAccount(t *testing.T) {
	mint := mustKey(t, "62qc2CNXwrYqQScmEdiZFFAnJR262PxWEuNQtxfafNgV")
	bonding, assoc, err := bondingCurveForMint(mint)
	if err != nil {
		t.Fatalf("bondingCurveForMint: %v", err)
	}
	if bonding.IsZero() || assoc.IsZero() {
		t.Fatalf("expected non-zero derived accounts")
	}
	wantAssoc, err := solwire.AssociatedTokenAddress(bonding, mint)
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	if assoc != wantAssoc {
		t.Errorf("assoc bonding curve mismatch")
	}
}

func TestTransferAndComputeBudgetInstructions(t *testing.T) {
	from := mustKey(t, "4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")
	to := mustKey(t, "62qc2CNXwrYqQScmEdiZFFAnJR262PxWEuNQtxfafNgV")

	tr := transferInstruction(from, to, 7_000_000)
	if tr.ProgramID != solwire.SystemProgramID {
		t.Fatalf("transfer program = %s, want system", tr.ProgramID)
	}
	if got := binary.LittleEndian.Uint32(tr.Data[0:4]); got != 2 {
		t.Errorf("transfer variant = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint64(tr.Data[4:12]); got != 7_000_000 {
		t.Errorf("transfer lamports = %d, want 7000000", got)
	}

	cu := setComputeUnitLimitInstruction(buyComputeUnitLimit)
	if cu.Data[0] != 2 {
		t.Errorf("compute budget variant = %d, want 2", cu.Data[0])
	}
	if got := binary.LittleEndian.Uint32(cu.Data[1:5]); got != buyComputeUnitLimit {
		t.Errorf("compute unit limit = %d, want %d", got, buyComputeUnitLimit)
	}
}
