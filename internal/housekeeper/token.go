package housekeeper

import "github.com/shredstream-sniper/sniperkit/internal/solwire"

// closeAccountDiscriminator is the SPL Token Program's CloseAccount
// instruction variant.
const closeAccountDiscriminator byte = 9

// closeAccountInstruction builds the SPL Token Program CloseAccount
// instruction: reclaims the rent of a zero-balance token account into
// destination, authorized by owner's signature.
func closeAccountInstruction(account, destination, owner solwire.Pubkey) solwire.Instruction {
	return solwire.NewInstruction(solwire.TokenProgramID,
		[]solwire.AccountMeta{
			solwire.Writable(account),
			solwire.Writable(destination),
			solwire.Signer(owner, false),
		},
		[]byte{closeAccountDiscriminator},
	)
}
