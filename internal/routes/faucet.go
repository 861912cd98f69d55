package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/editionmint/internal/faucet"
)

// RegisterFaucetRoutes wires airdrop and balance endpoints.
func RegisterFaucetRoutes(r fiber.Router, h *faucet.Handler, limit fiber.Handler) {
	r.Post("/faucet", limit, h.Airdrop)
	r.Get("/accounts/:address/balance", h.Balance)
}
