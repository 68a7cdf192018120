package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memoryWallet struct {
	id      string
	balance decimal.Decimal
}

type inMemoryLedger struct {
	mu      sync.Mutex
	wallets map[string]*memoryWallet // keyed by client id
	entries []Entry                  // append order is chronological
	orders  map[string]Order
}

// NewInMemory creates a concurrency-safe in-memory ledger. It backs the unit
// tests and development mode when no database is configured.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		wallets: make(map[string]*memoryWallet),
		orders:  make(map[string]Order),
	}
}

func (l *inMemoryLedger) Credit(_ context.Context, clientID string, amount decimal.Decimal) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mutate(clientID, amount, EntryCredit, nil)
}

func (l *inMemoryLedger) Debit(_ context.Context, clientID string, amount decimal.Decimal) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mutate(clientID, amount, EntryDebit, nil)
}

func (l *inMemoryLedger) ReserveOrder(_ context.Context, clientID, orderID string, amount decimal.Decimal) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ref := orderID
	entry, err := l.mutate(clientID, amount, EntryOrder, &ref)
	if err != nil {
		return Entry{}, err
	}
	l.orders[orderID] = Order{
		ID:        orderID,
		ClientID:  clientID,
		Amount:    amount,
		Status:    OrderCreated,
		CreatedAt: entry.CreatedAt,
	}
	return entry, nil
}

// mutate implements the balance mutation protocol under the ledger mutex,
// which stands in for the row lock of the SQL backend.
func (l *inMemoryLedger) mutate(clientID string, amount decimal.Decimal, typ EntryType, referenceID *string) (Entry, error) {
	if amount.Sign() <= 0 {
		return Entry{}, ErrInvalidAmount
	}
	w, ok := l.wallets[clientID]
	if !ok {
		return Entry{}, ErrWalletNotFound
	}

	delta := amount
	if typ != EntryCredit {
		delta = amount.Neg()
	}
	newBalance := w.balance.Add(delta)
	if newBalance.Sign() < 0 {
		return Entry{}, ErrInsufficientBalance
	}
	w.balance = newBalance

	entry := Entry{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		WalletID:    w.id,
		Type:        typ,
		Amount:      amount,
		ReferenceID: referenceID,
		CreatedAt:   time.Now().UTC(),
	}
	l.entries = append(l.entries, entry)
	return entry, nil
}

func (l *inMemoryLedger) FinalizeOrder(_ context.Context, orderID, fulfillmentID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ord, ok := l.orders[orderID]
	if !ok || ord.Status != OrderCreated {
		return ErrOrderNotFound
	}
	ord.Status = OrderFulfilled
	ord.FulfillmentID = &fulfillmentID
	l.orders[orderID] = ord
	return nil
}

func (l *inMemoryLedger) FailOrder(_ context.Context, orderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ord, ok := l.orders[orderID]
	if !ok || ord.Status != OrderCreated {
		return ErrOrderNotFound
	}
	ord.Status = OrderFailed
	l.orders[orderID] = ord
	return nil
}

func (l *inMemoryLedger) Order(_ context.Context, orderID, clientID string) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ord, ok := l.orders[orderID]
	if !ok || ord.ClientID != clientID {
		return Order{}, ErrOrderNotFound
	}
	return ord, nil
}

func (l *inMemoryLedger) Balance(_ context.Context, clientID string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.wallets[clientID]
	if !ok {
		return decimal.Decimal{}, ErrWalletNotFound
	}
	return w.balance, nil
}

func (l *inMemoryLedger) History(_ context.Context, clientID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]Entry, 0, limit)
	for i := len(l.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		if l.entries[i].ClientID == clientID {
			entries = append(entries, l.entries[i])
		}
	}
	return entries, nil
}
