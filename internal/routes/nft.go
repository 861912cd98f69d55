package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/editionmint/internal/nft"
)

// RegisterNFTRoutes wires asset issuance and lookup endpoints. Issuing
// requests pass through issueLimit first.
func RegisterNFTRoutes(r fiber.Router, h *nft.Handler, issueLimit fiber.Handler) {
	group := r.Group("/nfts")
	group.Post("", issueLimit, h.Create)
	group.Post("/:mint/mint", issueLimit, h.Mint)
	group.Get("/:mint", h.Get)
	r.Get("/transactions/:signature", h.Receipt)
}
