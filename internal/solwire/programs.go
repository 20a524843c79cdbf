package solwire

// Well-known system program addresses referenced when building instructions
// outside the venue program (account creation, token transfers, nonce
// advances).
var (
	SystemProgramID          = MustPubkeyFromBase58("11111111111111111111111111111111")
	TokenProgramID           = MustPubkeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID = MustPubkeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	ComputeBudgetProgramID   = MustPubkeyFromBase58("ComputeBudget111111111111111111111111111111")
	RentSysvarID             = MustPubkeyFromBase58("SysvarRent111111111111111111111111111111111")
)

// AssociatedTokenAddress derives the canonical associated-token-account
// address for owner holding mint, the same derivation
// spl-associated-token-account uses: PDA of [owner, tokenProgram, mint]
// under AssociatedTokenProgramID.
func AssociatedTokenAddress(owner, mint Pubkey) (Pubkey, error) {
	addr, _, err := FindProgramAddress([][]byte{
		owner.Bytes(),
		TokenProgramID.Bytes(),
		mint.Bytes(),
	}, AssociatedTokenProgramID)
	return addr, err
}
