package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soko-pay/soko_pay/internal/wallet"
)

// RegisterAdminWalletRoutes wires the operator-only balance mutations.
func RegisterAdminWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallet/credit", h.Credit)
	r.Post("/wallet/debit", h.Debit)
}

// RegisterWalletRoutes wires the client-facing read endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/wallet/balance", h.Balance)
	r.Get("/wallet/history", h.History)
}
