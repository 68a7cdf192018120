package wallet

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/soko-pay/soko_pay/internal/events"
	"github.com/soko-pay/soko_pay/internal/ledger"
)

// MaxHistoryLimit caps client-supplied history page sizes.
const MaxHistoryLimit = 200

// Service exposes wallet operations on top of the ledger. Every committed
// mutation is announced on the event publisher.
type Service struct {
	ledger    ledger.Ledger
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(l ledger.Ledger, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{ledger: l, publisher: publisher, logger: logger}
}

// Credit adds funds to the client's wallet.
func (s *Service) Credit(ctx context.Context, clientID string, amount decimal.Decimal) (ledger.Entry, error) {
	entry, err := s.ledger.Credit(ctx, clientID, amount)
	if err != nil {
		return ledger.Entry{}, err
	}
	s.announce(ctx, entry)
	return entry, nil
}

// Debit removes funds from the client's wallet.
func (s *Service) Debit(ctx context.Context, clientID string, amount decimal.Decimal) (ledger.Entry, error) {
	entry, err := s.ledger.Debit(ctx, clientID, amount)
	if err != nil {
		return ledger.Entry{}, err
	}
	s.announce(ctx, entry)
	return entry, nil
}

// Balance returns the wallet's current balance.
func (s *Service) Balance(ctx context.Context, clientID string) (decimal.Decimal, error) {
	return s.ledger.Balance(ctx, clientID)
}

// History returns the client's most recent ledger entries. Non-positive
// limits use the default page size; oversized limits are clamped.
func (s *Service) History(ctx context.Context, clientID string, limit int) ([]ledger.Entry, error) {
	if limit <= 0 {
		limit = ledger.DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.ledger.History(ctx, clientID, limit)
}

// announce publishes the entry event. Publish failures are logged and
// swallowed; the entry is already durable.
func (s *Service) announce(ctx context.Context, entry ledger.Entry) {
	event := events.EntryRecorded{
		EntryID:    entry.ID,
		ClientID:   entry.ClientID,
		Type:       string(entry.Type),
		Amount:     entry.Amount.String(),
		RecordedAt: entry.CreatedAt,
	}
	if entry.ReferenceID != nil {
		event.ReferenceID = *entry.ReferenceID
	}
	if err := s.publisher.EntryRecorded(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "event publish failed", "entry_id", entry.ID, "error", err)
	}
}
