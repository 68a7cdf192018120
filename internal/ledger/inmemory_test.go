package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func seeded(t *testing.T, clientID string, balance int64) Ledger {
	t.Helper()
	l := NewInMemory()
	SeedWallet(l, clientID, decimal.NewFromInt(balance))
	return l
}

func TestInMemoryLedger_CreditThenDebit(t *testing.T) {
	ctx := context.Background()
	l := seeded(t, "client-a", 0)

	if _, err := l.Credit(ctx, "client-a", decimal.NewFromInt(100)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	entry, err := l.Debit(ctx, "client-a", decimal.NewFromInt(40))
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if entry.Type != EntryDebit {
		t.Fatalf("expected debit entry, got %s", entry.Type)
	}
	if !entry.Amount.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected entry amount 40, got %s", entry.Amount)
	}

	balance, err := l.Balance(ctx, "client-a")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected balance 60, got %s", balance)
	}
}

func TestInMemoryLedger_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	l := seeded(t, "client-a", 100)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		if _, err := l.Credit(ctx, "client-a", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("credit %s: expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := l.Debit(ctx, "client-a", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("debit %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	if entries, _ := l.History(ctx, "client-a", 0); len(entries) != 0 {
		t.Fatalf("rejected mutations must leave no entries, got %d", len(entries))
	}
}

func TestInMemoryLedger_WalletNotFound(t *testing.T) {
	ctx := context.Background()
	l := NewInMemory()

	if _, err := l.Credit(ctx, "ghost", decimal.NewFromInt(10)); !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
	if _, err := l.Balance(ctx, "ghost"); !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestInMemoryLedger_DebitInsufficient(t *testing.T) {
	ctx := context.Background()
	l := seeded(t, "client-a", 30)

	if _, err := l.Debit(ctx, "client-a", decimal.NewFromInt(31)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	balance, _ := l.Balance(ctx, "client-a")
	if !balance.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("failed debit must not move balance, got %s", balance)
	}
	if entries, _ := l.History(ctx, "client-a", 0); len(entries) != 0 {
		t.Fatalf("failed debit must not append entries, got %d", len(entries))
	}
}

// Balance must always equal the signed sum of the client's ledger entries,
// including after rejected mutations.
func TestInMemoryLedger_BalanceMatchesEntries(t *testing.T) {
	ctx := context.Background()
	l := seeded(t, "client-a", 0)

	l.Credit(ctx, "client-a", decimal.NewFromInt(500))
	l.Debit(ctx, "client-a", decimal.NewFromInt(150))
	l.Credit(ctx, "client-a", decimal.NewFromInt(200))
	l.Debit(ctx, "client-a", decimal.NewFromInt(10_000)) // rejected
	l.ReserveOrder(ctx, "client-a", "order-1", decimal.NewFromInt(50))

	entries, err := l.History(ctx, "client-a", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Signed())
	}

	balance, _ := l.Balance(ctx, "client-a")
	if !balance.Equal(sum) {
		t.Fatalf("balance %s diverged from entry sum %s", balance, sum)
	}
	if !balance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected balance 500, got %s", balance)
	}
}

// N concurrent debits of a against balance N*a must all succeed; one extra
// concurrent debit must fail with ErrInsufficientBalance and the balance must
// never go negative.
func TestInMemoryLedger_ConcurrentDebits(t *testing.T) {
	ctx := context.Background()
	const workers = 16
	amount := decimal.NewFromInt(250)

	l := seeded(t, "client-a", int64(workers)*250)

	var wg sync.WaitGroup
	errs := make(chan error, workers+1)
	for i := 0; i <= workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Debit(ctx, "client-a", amount)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != workers || insufficient != 1 {
		t.Fatalf("expected %d successes and 1 rejection, got %d/%d", workers, successes, insufficient)
	}

	balance, _ := l.Balance(ctx, "client-a")
	if !balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", balance)
	}
	entries, _ := l.History(ctx, "client-a", workers+1)
	if len(entries) != workers {
		t.Fatalf("expected %d entries, got %d", workers, len(entries))
	}
}

func TestInMemoryLedger_HistoryOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	l := seeded(t, "client-a", 0)
	SeedWallet(l, "client-b", decimal.NewFromInt(100))

	for i := 1; i <= 5; i++ {
		if _, err := l.Credit(ctx, "client-a", decimal.NewFromInt(int64(i))); err != nil {
			t.Fatalf("credit %d: %v", i, err)
		}
	}
	l.Debit(ctx, "client-b", decimal.NewFromInt(7)) // other client, must not appear

	entries, err := l.History(ctx, "client-a", 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Most recent first: amounts 5, 4, 3.
	for i, want := range []int64{5, 4, 3} {
		if !entries[i].Amount.Equal(decimal.NewFromInt(want)) {
			t.Fatalf("entry %d: expected amount %d, got %s", i, want, entries[i].Amount)
		}
	}

	again, _ := l.History(ctx, "client-a", 3)
	for i := range entries {
		if entries[i].ID != again[i].ID {
			t.Fatalf("history is not a stable read at position %d", i)
		}
	}
}

func TestInMemoryLedger_ReserveOrderAtomicity(t *testing.T) {
	ctx := context.Background()
	l := seeded(t, "client-a", 60)

	// Reservation over balance: no order, no entry, no balance change.
	if _, err := l.ReserveOrder(ctx, "client-a", "order-big", decimal.NewFromInt(100)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if _, err := l.Order(ctx, "order-big", "client-a"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("failed reservation must not create an order, got %v", err)
	}
	balance, _ := l.Balance(ctx, "client-a")
	if !balance.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected balance 60, got %s", balance)
	}

	// Successful reservation: debit, order entry referencing the order, row in created.
	entry, err := l.ReserveOrder(ctx, "client-a", "order-1", decimal.NewFromInt(25))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if entry.Type != EntryOrder {
		t.Fatalf("expected order entry, got %s", entry.Type)
	}
	if entry.ReferenceID == nil || *entry.ReferenceID != "order-1" {
		t.Fatalf("entry must reference the order, got %v", entry.ReferenceID)
	}

	ord, err := l.Order(ctx, "order-1", "client-a")
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if ord.Status != OrderCreated {
		t.Fatalf("expected created, got %s", ord.Status)
	}
	balance, _ = l.Balance(ctx, "client-a")
	if !balance.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("expected balance 35, got %s", balance)
	}
}

func TestInMemoryLedger_OrderLifecycle(t *testing.T) {
	ctx := context.Background()
	l := seeded(t, "client-a", 100)

	l.ReserveOrder(ctx, "client-a", "order-1", decimal.NewFromInt(30))
	if err := l.FinalizeOrder(ctx, "order-1", "f-1"); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	ord, _ := l.Order(ctx, "order-1", "client-a")
	if ord.Status != OrderFulfilled || ord.FulfillmentID == nil || *ord.FulfillmentID != "f-1" {
		t.Fatalf("unexpected fulfilled order: %+v", ord)
	}

	// Terminal orders do not transition again.
	if err := l.FailOrder(ctx, "order-1"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected terminal order to reject transition, got %v", err)
	}

	l.ReserveOrder(ctx, "client-a", "order-2", decimal.NewFromInt(30))
	if err := l.FailOrder(ctx, "order-2"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	ord, _ = l.Order(ctx, "order-2", "client-a")
	if ord.Status != OrderFailed {
		t.Fatalf("expected failed, got %s", ord.Status)
	}
	// The reservation debit stays in place.
	balance, _ := l.Balance(ctx, "client-a")
	if !balance.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected balance 40, got %s", balance)
	}
}

func TestInMemoryLedger_OrderCrossClient(t *testing.T) {
	ctx := context.Background()
	l := seeded(t, "client-a", 100)
	SeedWallet(l, "client-b", decimal.NewFromInt(100))

	l.ReserveOrder(ctx, "client-a", "order-1", decimal.NewFromInt(10))

	if _, err := l.Order(ctx, "order-1", "client-b"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("cross-client lookup must look like absence, got %v", err)
	}
}

func TestInMemoryLedger_IndependentWallets(t *testing.T) {
	ctx := context.Background()
	l := NewInMemory()

	const wallets = 8
	for i := 0; i < wallets; i++ {
		SeedWallet(l, fmt.Sprintf("client-%d", i), decimal.NewFromInt(1_000))
	}

	var wg sync.WaitGroup
	for i := 0; i < wallets; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clientID := fmt.Sprintf("client-%d", i)
			for j := 0; j < 20; j++ {
				if _, err := l.Debit(ctx, clientID, decimal.NewFromInt(10)); err != nil {
					t.Errorf("debit %s: %v", clientID, err)
				}
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < wallets; i++ {
		balance, err := l.Balance(ctx, fmt.Sprintf("client-%d", i))
		if err != nil {
			t.Fatalf("balance %d: %v", i, err)
		}
		if !balance.Equal(decimal.NewFromInt(800)) {
			t.Fatalf("wallet %d: expected 800, got %s", i, balance)
		}
	}
}
