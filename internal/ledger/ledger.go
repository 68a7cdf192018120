package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount indicates a non-positive mutation amount. Detected
	// before any durable write.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrWalletNotFound occurs when the client identifier resolves to no wallet.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInsufficientBalance occurs when a debit-class mutation would drive
	// the wallet balance below zero. The enclosing transaction is rolled back
	// with no partial effect.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrOrderNotFound covers both a genuinely missing order and a lookup by a
	// client that does not own it, so cross-tenant probes cannot distinguish
	// the two.
	ErrOrderNotFound = errors.New("order not found")
)

// EntryType classifies a ledger entry. Credits add to the wallet balance,
// debits and orders subtract from it.
type EntryType string

const (
	EntryCredit EntryType = "credit"
	EntryDebit  EntryType = "debit"
	EntryOrder  EntryType = "order"
)

// Entry is an immutable record of one balance-affecting event. Once written
// it is never updated or deleted; the sum of signed entry amounts for a
// wallet always equals its current balance.
type Entry struct {
	ID          string
	ClientID    string
	WalletID    string
	Type        EntryType
	Amount      decimal.Decimal
	ReferenceID *string
	CreatedAt   time.Time
}

// Signed returns the entry amount with the sign it contributes to the wallet
// balance.
func (e Entry) Signed() decimal.Decimal {
	if e.Type == EntryCredit {
		return e.Amount
	}
	return e.Amount.Neg()
}

// OrderStatus tracks the order saga. "created" is the reserved state;
// "fulfilled" and "failed" are terminal.
type OrderStatus string

const (
	OrderCreated   OrderStatus = "created"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderFailed    OrderStatus = "failed"
)

// Order represents a client purchase that has reserved funds.
type Order struct {
	ID            string
	ClientID      string
	Amount        decimal.Decimal
	Status        OrderStatus
	FulfillmentID *string
	CreatedAt     time.Time
}

// DefaultHistoryLimit bounds history reads when the caller does not supply a
// limit.
const DefaultHistoryLimit = 50

// Ledger is the transactional engine behind wallets, ledger entries and
// orders. Every balance mutation locks the target wallet row for the duration
// of its transaction, so concurrent mutations on one wallet serialize while
// different wallets never block each other.
type Ledger interface {
	// Credit adds amount to the client's wallet and appends a credit entry.
	Credit(ctx context.Context, clientID string, amount decimal.Decimal) (Entry, error)

	// Debit subtracts amount from the client's wallet and appends a debit
	// entry. Fails with ErrInsufficientBalance rather than going negative.
	Debit(ctx context.Context, clientID string, amount decimal.Decimal) (Entry, error)

	// ReserveOrder performs the reservation leg of the order saga: the debit,
	// the order-typed ledger entry referencing orderID, and the order row in
	// status created, all committed as one transaction.
	ReserveOrder(ctx context.Context, clientID, orderID string, amount decimal.Decimal) (Entry, error)

	// FinalizeOrder moves a created order to fulfilled and records the
	// external fulfillment identifier.
	FinalizeOrder(ctx context.Context, orderID, fulfillmentID string) error

	// FailOrder moves a created order to failed. The reservation debit is
	// deliberately left in place.
	FailOrder(ctx context.Context, orderID string) error

	// Order returns the order only when it belongs to clientID.
	Order(ctx context.Context, orderID, clientID string) (Order, error)

	// Balance returns the wallet balance. Point-in-time read, no locking.
	Balance(ctx context.Context, clientID string) (decimal.Decimal, error)

	// History returns up to limit entries for the client, most recent first.
	History(ctx context.Context, clientID string, limit int) ([]Entry, error)
}
