package housekeeper

import (
	"testing"

	"github.com/shredstream-sniper/sniperkit/internal/solwire"
)

func TestCloseAccountInstruction(t *testing.T) {
	account := mustKey(t, "11111111111111111111111111111112")
	destination := mustKey(t, "SysvarRent111111111111111111111111111111111")
	owner := mustKey(t, "ComputeBudget111111111111111111111111111111")

	ix := closeAccountInstruction(account, destination, owner)

	if ix.ProgramID != solwire.TokenProgramID {
		t.Fatalf("program id = %s, want token program", ix.ProgramID)
	}
	if len(ix.Data) != 1 || ix.Data[0] != closeAccountDiscriminator {
		t.Fatalf("data = %v, want single byte %d", ix.Data, closeAccountDiscriminator)
	}
	if len(ix.Accounts) != 3 {
		t.Fatalf("accounts = %d, want 3", len(ix.Accounts))
	}
	if ix.Accounts[0].Pubkey != account || !ix.Accounts[0].IsWritable || ix.Accounts[0].IsSigner {
		t.Errorf("account 0 = %+v, want writable non-signer %s", ix.Accounts[0], account)
	}
	if ix.Accounts[1].Pubkey != destination || !ix.Accounts[1].IsWritable || ix.Accounts[1].IsSigner {
		t.Errorf("account 1 = %+v, want writable non-signer %s", ix.Accounts[1], destination)
	}
	if ix.Accounts[2].Pubkey != owner || !ix.Accounts[2].IsSigner || ix.Accounts[2].IsWritable {
		t.Errorf("account 2 = %+v, want non-writable signer %s", ix.Accounts[2], owner)
	}
}

func mustKey(t *testing.T, s string) solwire.Pubkey {
	t.Helper()
	pk, err := solwire.PubkeyFromBase58(s)
	if err != nil {
		t.Fatalf("PubkeyFromBase58(%q): %v", s, err)
	}
	return pk
}
