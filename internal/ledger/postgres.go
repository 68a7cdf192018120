package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresLedger persists wallets, ledger entries and orders in PostgreSQL.
// Mutations lock the wallet row with SELECT ... FOR UPDATE so concurrent
// writers to one wallet queue behind each other for the life of the
// transaction.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Credit applies a positive balance delta.
func (l *PostgresLedger) Credit(ctx context.Context, clientID string, amount decimal.Decimal) (Entry, error) {
	return l.mutate(ctx, clientID, amount, EntryCredit, nil, nil)
}

// Debit applies a negative balance delta, rejecting overdrafts.
func (l *PostgresLedger) Debit(ctx context.Context, clientID string, amount decimal.Decimal) (Entry, error) {
	return l.mutate(ctx, clientID, amount, EntryDebit, nil, nil)
}

// ReserveOrder debits the wallet and inserts the order row in one
// transaction. The ledger entry references the order.
func (l *PostgresLedger) ReserveOrder(ctx context.Context, clientID, orderID string, amount decimal.Decimal) (Entry, error) {
	ref := orderID
	return l.mutate(ctx, clientID, amount, EntryOrder, &ref, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO orders (id, client_id, amount, status) VALUES ($1, $2, $3, $4)`,
			orderID, clientID, amount, OrderCreated)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
}

// mutate is the balance mutation protocol: lock the wallet row, read the
// balance under the lock, validate, write the new balance and append exactly
// one ledger entry, then commit. Any failure rolls the whole unit back.
// extra runs inside the same transaction after the entry insert.
func (l *PostgresLedger) mutate(ctx context.Context, clientID string, amount decimal.Decimal, typ EntryType, referenceID *string, extra func(pgx.Tx) error) (Entry, error) {
	if amount.Sign() <= 0 {
		return Entry{}, ErrInvalidAmount
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var walletID uuid.UUID
	var balance decimal.Decimal
	const lockQuery = `SELECT id, balance FROM wallets WHERE client_id = $1 FOR UPDATE`
	if err := tx.QueryRow(ctx, lockQuery, clientID).Scan(&walletID, &balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrWalletNotFound
		}
		return Entry{}, err
	}

	delta := amount
	if typ != EntryCredit {
		delta = amount.Neg()
	}
	newBalance := balance.Add(delta)
	if newBalance.Sign() < 0 {
		return Entry{}, ErrInsufficientBalance
	}

	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = $1 WHERE id = $2`, newBalance, walletID); err != nil {
		return Entry{}, fmt.Errorf("update balance: %w", err)
	}

	entry := Entry{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		WalletID:    walletID.String(),
		Type:        typ,
		Amount:      amount,
		ReferenceID: referenceID,
	}
	const insertEntry = `INSERT INTO ledger_entries (id, client_id, wallet_id, type, amount, reference_id)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`
	if err := tx.QueryRow(ctx, insertEntry,
		entry.ID, entry.ClientID, walletID, entry.Type, entry.Amount, entry.ReferenceID,
	).Scan(&entry.CreatedAt); err != nil {
		return Entry{}, fmt.Errorf("insert ledger entry: %w", err)
	}

	if extra != nil {
		if err := extra(tx); err != nil {
			return Entry{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// FinalizeOrder records the fulfillment identifier and moves the order to
// fulfilled. Only orders still in created transition.
func (l *PostgresLedger) FinalizeOrder(ctx context.Context, orderID, fulfillmentID string) error {
	return l.transitionOrder(ctx,
		`UPDATE orders SET status = $1, fulfillment_id = $2 WHERE id = $3 AND status = $4`,
		OrderFulfilled, fulfillmentID, orderID, OrderCreated)
}

// FailOrder moves the order to failed without touching the wallet.
func (l *PostgresLedger) FailOrder(ctx context.Context, orderID string) error {
	return l.transitionOrder(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`,
		OrderFailed, orderID, OrderCreated)
}

func (l *PostgresLedger) transitionOrder(ctx context.Context, query string, args ...any) error {
	tag, err := l.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Order fetches an order scoped to its owning client.
func (l *PostgresLedger) Order(ctx context.Context, orderID, clientID string) (Order, error) {
	const query = `SELECT id, client_id, amount, status, fulfillment_id, created_at
        FROM orders WHERE id = $1 AND client_id = $2`
	var ord Order
	err := l.db.QueryRow(ctx, query, orderID, clientID).Scan(
		&ord.ID, &ord.ClientID, &ord.Amount, &ord.Status, &ord.FulfillmentID, &ord.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	return ord, nil
}

// Balance reads the current wallet balance without locking.
func (l *PostgresLedger) Balance(ctx context.Context, clientID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := l.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE client_id = $1`, clientID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, ErrWalletNotFound
		}
		return decimal.Decimal{}, err
	}
	return balance, nil
}

// History returns the most recent entries for the client, newest first.
func (l *PostgresLedger) History(ctx context.Context, clientID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	const query = `SELECT id, client_id, wallet_id, type, amount, reference_id, created_at
        FROM ledger_entries WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := l.db.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var walletID uuid.UUID
		if err := rows.Scan(&e.ID, &e.ClientID, &walletID, &e.Type, &e.Amount, &e.ReferenceID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.WalletID = walletID.String()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
