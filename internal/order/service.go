package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/soko-pay/soko_pay/internal/events"
	"github.com/soko-pay/soko_pay/internal/fulfillment"
	"github.com/soko-pay/soko_pay/internal/ledger"
)

// PlaceResult reports the outcome of an order placement. Status is failed
// when fulfillment did not complete; the reservation stays charged either way.
type PlaceResult struct {
	OrderID       string
	FulfillmentID string
	Status        ledger.OrderStatus
}

// Service runs the order saga: reserve funds, call the fulfillment provider,
// then finalize or fail the order.
type Service struct {
	ledger    ledger.Ledger
	gateway   fulfillment.Gateway
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(l ledger.Ledger, gateway fulfillment.Gateway, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{ledger: l, gateway: gateway, publisher: publisher, logger: logger}
}

// Place reserves amount from the client's wallet and submits the order for
// fulfillment. The reservation commits before the provider is called, so the
// wallet row lock is never held across the network hop. A fulfillment failure
// marks the order failed and keeps the debit: err is nil and the caller reads
// the outcome from Status.
func (s *Service) Place(ctx context.Context, clientID string, amount decimal.Decimal) (PlaceResult, error) {
	orderID := uuid.NewString()

	entry, err := s.ledger.ReserveOrder(ctx, clientID, orderID, amount)
	if err != nil {
		return PlaceResult{}, err
	}
	s.announce(ctx, entry)

	res, err := s.gateway.Fulfill(ctx, fulfillment.Request{ClientID: clientID, OrderID: orderID})
	if err != nil {
		s.logger.WarnContext(ctx, "fulfillment failed",
			"order_id", orderID, "client_id", clientID, "error", err)
		if failErr := s.ledger.FailOrder(ctx, orderID); failErr != nil {
			return PlaceResult{}, fmt.Errorf("mark order failed: %w", failErr)
		}
		return PlaceResult{OrderID: orderID, Status: ledger.OrderFailed}, nil
	}

	if err := s.ledger.FinalizeOrder(ctx, orderID, res.FulfillmentID); err != nil {
		return PlaceResult{}, fmt.Errorf("finalize order: %w", err)
	}

	s.logger.InfoContext(ctx, "order fulfilled",
		"order_id", orderID, "client_id", clientID, "fulfillment_id", res.FulfillmentID)
	return PlaceResult{
		OrderID:       orderID,
		FulfillmentID: res.FulfillmentID,
		Status:        ledger.OrderFulfilled,
	}, nil
}

// Get returns the order when it belongs to clientID.
func (s *Service) Get(ctx context.Context, orderID, clientID string) (ledger.Order, error) {
	return s.ledger.Order(ctx, orderID, clientID)
}

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
