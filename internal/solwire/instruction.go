package solwire

// AccountMeta describes one account reference within an instruction, plus
// the signer/writable flags the message compiler needs to merge across every
// instruction in the transaction.
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

// Instruction is one venue or system instruction prior to compilation
// against a message's account-key table.
type Instruction struct {
	ProgramID Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// NewInstruction is a small constructor to keep call sites free of struct
// literals scattered across internal/submit.
func NewInstruction(programID Pubkey, accounts []AccountMeta, data []byte) Instruction {
	return Instruction{ProgramID: programID, Accounts: accounts, Data: data}
}

func meta(pk Pubkey, signer, writable bool) AccountMeta {
	return AccountMeta{Pubkey: pk, IsSigner: signer, IsWritable: writable}
}

// Signer returns a writable-or-not signer account meta.
func Signer(pk Pubkey, writable bool) AccountMeta { return meta(pk, true, writable) }

// Writable returns a non-signer writable account meta.
func Writable(pk Pubkey) AccountMeta { return meta(pk, false, true) }

// Readonly returns a non-signer read-only account meta.
func Readonly(pk Pubkey) AccountMeta { return meta(pk, false, false) }
