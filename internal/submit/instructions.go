// Package submit constructs and fans out the buy and sell transactions
// described in spec §4.3/§4.4: a nonce-anchored buy through the venue's relay
// proxy, raced across two tip-paying relays, and a fresh-blockhash sell sent
// through the zero_slot relay alone, both over keep-alive HTTP. It implements internal/exitengine's ActionSink so the exit
// ladder never imports the submitter directly.
//
// Grounded on original_source/sniper/src/transaction/mod.rs (account
// ordering, instruction data layouts) and sniper/src/tx.rs (fan-out shape,
// tip placement, nonce re-read).
package submit

import (
	"encoding/binary"

	"github.com/shredstream-sniper/sniperkit/internal/classifier"
	"github.com/shredstream-sniper/sniperkit/internal/solwire"
)

// Well-known accounts the proxy-relayed Buy/Sell instructions address.
var (
	globalAccount  = solwire.MustPubkeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")
	feeRecipient   = solwire.MustPubkeyFromBase58("62qc2CNXwrYqQScmEdiZFFAnJR262PxWEuNQtxfafNgV")
	eventAuthority = solwire.MustPubkeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
	proxyProgramID = solwire.MustPubkeyFromBase58("7uVmFk3SYJEgvD9unVPKzS19gSAg5b6CYzMP4er1HeKQ")
)

// Instruction discriminators for the relay proxy's Buy/Sell/expiry-check
// entry points — distinct from classifier.ClassifyDiscriminator, which
// matches the venue program's own instructions directly off the wire.
var (
	buySelector    = [8]byte{82, 225, 119, 231, 78, 29, 45, 70}
	sellSelector   = [8]byte{83, 225, 119, 231, 78, 29, 45, 70}
	expirySelector = [8]byte{169, 134, 33, 62, 168, 2, 246, 176}
)

const (
	buyComputeUnitLimit  uint32 = 77_000
	sellComputeUnitLimit uint32 = 75_000
)

const creatorVaultSeed = "creator-vault"
const bondingCurveSeed = "bonding-curve"

// creatorVault derives the per-creator PDA the venue program collects its
// creator fee into.
func creatorVault(creator solwire.Pubkey) (solwire.Pubkey, error) {
	addr, _, err := solwire.FindProgramAddress([][]byte{[]byte(creatorVaultSeed), creator.Bytes()}, classifier.VenueProgramID)
	return addr, err
}

// bondingCurveForMint re-derives a mint's bonding-curve PDA and its
// associated token account, the two addresses the sell path needs that
// PositionState does not carry (spec §4.4 only hands the submitter mint,
// creator, and amount).
func bondingCurveForMint(mint solwire.Pubkey) (bondingCurve, assocBondingCurve solwire.Pubkey, err error) {
	bondingCurve, _, err = solwire.FindProgramAddress([][]byte{[]byte(bondingCurveSeed), mint.Bytes()}, classifier.VenueProgramID)
	if err != nil {
		return
	}
	assocBondingCurve, err = solwire.AssociatedTokenAddress(bondingCurve, mint)
	return
}

func advanceNonceInstruction(noncePubkey, authority solwire.Pubkey) solwire.Instruction {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, 4) // System Program AdvanceNonceAccount variant
	return solwire.NewInstruction(solwire.SystemProgramID, []solwire.AccountMeta{
		solwire.Writable(noncePubkey),
		solwire.Readonly(solwire.MustPubkeyFromBase58("SysvarRecentB1ockHashes11111111111111111111")),
		solwire.Signer(authority, false),
	}, data)
}

func transferInstruction(from, to solwire.Pubkey, lamports uint64) solwire.Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2) // System Program Transfer variant
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return solwire.NewInstruction(solwire.SystemProgramID, []solwire.AccountMeta{
		solwire.Signer(from, true),
		solwire.Writable(to),
	}, data)
}

func setComputeUnitLimitInstruction(units uint32) solwire.Instruction {
	data := make([]byte, 5)
	data[0] = 2 // ComputeBudgetInstruction::SetComputeUnitLimit variant
	binary.LittleEndian.PutUint32(data[1:5], units)
	return solwire.NewInstruction(solwire.ComputeBudgetProgramID, nil, data)
}

func createAtaIdempotentInstruction(payer, owner, mint, ata solwire.Pubkey) solwire.Instruction {
	return solwire.NewInstruction(solwire.AssociatedTokenProgramID, []solwire.AccountMeta{
		solwire.Signer(payer, true),
		solwire.Writable(ata),
		solwire.Readonly(owner),
		solwire.Readonly(mint),
		solwire.Readonly(solwire.SystemProgramID),
		solwire.Readonly(solwire.TokenProgramID),
	}, []byte{1}) // CreateIdempotent variant
}

func expiryCheckInstruction(assocBondingCurve, bondingCurve, creator solwire.Pubkey, createSlot uint64) solwire.Instruction {
	data := make([]byte, 0, 40)
	data = append(data, expirySelector[:]...)
	expirySlot := make([]byte, 8)
	binary.LittleEndian.PutUint64(expirySlot, createSlot+1)
	data = append(data, expirySlot...)
	data = append(data, make([]byte, 8)...)  // min_balance = 0
	data = append(data, make([]byte, 16)...) // padding
	return solwire.NewInstruction(proxyProgramID, []solwire.AccountMeta{
		solwire.Readonly(assocBondingCurve),
		solwire.Readonly(bondingCurve),
		solwire.Readonly(creator),
	}, data)
}

// buyInstruction builds the relay proxy's Buy entry point, spec §4.3 step 5:
// global, fee recipient, mint, bonding curve, assoc curve, user ATA, signer,
// system, token program, creator vault, event authority, venue program.
func buyInstruction(signer, mint, bondingCurve, assocBondingCurve, assocUser, creatorVaultPDA solwire.Pubkey, tokenAmount, maxSolCost uint64) solwire.Instruction {
	data := make([]byte, 0, 24)
	data = append(data, buySelector[:]...)
	amt := make([]byte, 8)
	binary.LittleEndian.PutUint64(amt, tokenAmount)
	data = append(data, amt...)
	cost := make([]byte, 8)
	binary.LittleEndian.PutUint64(cost, maxSolCost)
	data = append(data, cost...)

	return solwire.NewInstruction(proxyProgramID, []solwire.AccountMeta{
		solwire.Readonly(globalAccount),
		solwire.Writable(feeRecipient),
		solwire.Readonly(mint),
		solwire.Writable(bondingCurve),
		solwire.Writable(assocBondingCurve),
		solwire.Writable(assocUser),
		solwire.Signer(signer, true),
		solwire.Readonly(solwire.SystemProgramID),
		solwire.Readonly(solwire.TokenProgramID),
		solwire.Writable(creatorVaultPDA),
		solwire.Readonly(eventAuthority),
		solwire.Readonly(classifier.VenueProgramID),
	}, data)
}

// sellInstruction builds the relay proxy's Sell entry point, spec §4.4: the
// same account set as Buy but with token program and creator vault swapped
// in order, and min_sol_receive fixed at zero.
func sellInstruction(signer, mint, bondingCurve, assocBondingCurve, assocUser, creatorVaultPDA solwire.Pubkey, tokenAmount uint64) solwire.Instruction {
	data := make([]byte, 0, 24)
	data = append(data, sellSelector[:]...)
	amt := make([]byte, 8)
	binary.LittleEndian.PutUint64(amt, tokenAmount)
	data = append(data, amt...)
	data = append(data, make([]byte, 8)...) // min_sol_receive = 0

	return solwire.NewInstruction(proxyProgramID, []solwire.AccountMeta{
		solwire.Readonly(globalAccount),
		solwire.Writable(feeRecipient),
		solwire.Readonly(mint),
		solwire.Writable(bondingCurve),
		solwire.Writable(assocBondingCurve),
		solwire.Writable(assocUser),
		solwire.Signer(signer, true),
		solwire.Readonly(solwire.SystemProgramID),
		solwire.Writable(creatorVaultPDA),
		solwire.Readonly(solwire.TokenProgramID),
		solwire.Readonly(eventAuthority),
		solwire.Readonly(classifier.VenueProgramID),
	}, data)
}
