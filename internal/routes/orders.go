package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soko-pay/soko_pay/internal/order"
)

// RegisterOrderRoutes wires order placement and lookup. Placement reserves
// funds before fulfillment, so it runs behind the idempotency middleware when
// a cache is available.
func RegisterOrderRoutes(r fiber.Router, h *order.Handler, idem fiber.Handler) {
	if idem != nil {
		r.Post("/orders", idem, h.Place)
	} else {
		r.Post("/orders", h.Place)
	}
	r.Get("/orders/:orderId", h.Get)
}
