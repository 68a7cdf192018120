package order

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/soko-pay/soko_pay/internal/ledger"
)

// Handler exposes order endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an order handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type placeRequest struct {
	Amount string `json:"amount"`
}

// Place creates an order for the authenticated client.
func (h *Handler) Place(c *fiber.Ctx) error {
	clientID, _ := c.Locals("client_id").(string)

	var req placeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "amount must be a decimal number")
	}

	res, err := h.service.Place(c.UserContext(), clientID, amount)
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

	if res.Status == ledger.OrderFailed {
		// Funds were reserved but fulfillment did not complete.
		return c.Status(http.StatusAccepted).JSON(fiber.Map{
			"order_id": res.OrderID,
			"status":   res.Status,
			"note":     "order accepted but fulfillment failed",
		})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"order_id":       res.OrderID,
		"fulfillment_id": res.FulfillmentID,
		"status":         res.Status,
	})
}

// Get returns one of the client's orders.
func (h *Handler) Get(c *fiber.Ctx) error {
	clientID, _ := c.Locals("client_id").(string)
	orderID := c.Params("orderId")

	ord, err := h.service.Get(c.UserContext(), orderID, clientID)
	if err != nil {
		if errors.Is(err, ledger.ErrOrderNotFound) {
			return fiber.NewError(http.StatusNotFound, "order not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := fiber.Map{
		"order_id":   ord.ID,
		"amount":     ord.Amount.String(),
		"status":     ord.Status,
		"created_at": ord.CreatedAt,
	}
	if ord.FulfillmentID != nil {
		out["fulfillment_id"] = *ord.FulfillmentID
	}
	return c.JSON(out)
}
