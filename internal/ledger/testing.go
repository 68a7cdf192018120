package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeedWallet provisions a wallet with an opening balance when using the
// in-memory ledger. Wallet provisioning is otherwise outside this core, so
// tests and development mode use this helper.
func SeedWallet(l Ledger, clientID string, balance decimal.Decimal) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.wallets[clientID] = &memoryWallet{id: uuid.NewString(), balance: balance}
	}
}
