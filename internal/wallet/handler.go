package wallet

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/soko-pay/soko_pay/internal/ledger"
)

// Handler exposes wallet endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a wallet handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type mutationRequest struct {
	ClientID string `json:"client_id"`
	Amount   string `json:"amount"`
}

func (r mutationRequest) parse() (string, decimal.Decimal, error) {
	if _, err := uuid.Parse(r.ClientID); err != nil {
		return "", decimal.Decimal{}, errors.New("client_id must be a UUID")
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return "", decimal.Decimal{}, errors.New("amount must be a decimal number")
	}
	return r.ClientID, amount, nil
}

// Credit handles the admin top-up endpoint.
func (h *Handler) Credit(c *fiber.Ctx) error {
	return h.mutate(c, "credited", h.service.Credit)
}

// Debit handles the admin withdrawal endpoint.
func (h *Handler) Debit(c *fiber.Ctx) error {
	return h.mutate(c, "debited", h.service.Debit)
}

func (h *Handler) mutate(c *fiber.Ctx, verb string, op func(ctx context.Context, clientID string, amount decimal.Decimal) (ledger.Entry, error)) error {
	var req mutationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	clientID, amount, err := req.parse()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	entry, err := op(c.UserContext(), clientID, amount)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrWalletNotFound):
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		case errors.Is(err, ledger.ErrInsufficientBalance):
			return fiber.NewError(http.StatusBadRequest, "insufficient balance")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":  "wallet " + verb,
		"entry_id": entry.ID,
	})
}

// Balance returns the authenticated client's wallet balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	clientID, _ := c.Locals("client_id").(string)

	balance, err := h.service.Balance(c.UserContext(), clientID)
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"client_id": clientID,
		"balance":   balance.String(),
	})
}

type entryResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	ReferenceID string `json:"reference_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// History returns the client's most recent ledger entries.
func (h *Handler) History(c *fiber.Ctx) error {
	clientID, _ := c.Locals("client_id").(string)
	limit := c.QueryInt("limit")

	entries, err := h.service.History(c.UserContext(), clientID, limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		item := entryResponse{
			ID:        e.ID,
			Type:      string(e.Type),
			Amount:    e.Amount.String(),
			CreatedAt: e.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		}
		if e.ReferenceID != nil {
			item.ReferenceID = *e.ReferenceID
		}
		out = append(out, item)
	}

	return c.JSON(fiber.Map{
		"client_id": clientID,
		"entries":   out,
	})
}
