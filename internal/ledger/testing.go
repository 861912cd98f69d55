package ledger

import "github.com/blocto/solana-go-sdk/common"

// SeedAccount is a test helper that writes an account directly when using the
// in-memory ledger.
func SeedAccount(l Ledger, acc Account) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.accounts[acc.Key] = acc.Clone()
	}
}

// SeedLamports is a test helper that funds a system-owned account.
func SeedLamports(l Ledger, key common.PublicKey, lamports uint64) {
	SeedAccount(l, Account{Key: key, Owner: common.SystemProgramID, Lamports: lamports})
}
