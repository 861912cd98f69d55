package faucet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/editionmint/internal/cpi"
	"github.com/congo-pay/editionmint/internal/runtime"
)

// Handler exposes faucet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a faucet handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type airdropRequest struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
}

type balanceResponse struct {
	Address   string `json:"address"`
	Signature string `json:"signature,omitempty"`
	Balance   uint64 `json:"lamports"`
	Timestamp string `json:"timestamp"`
}

// Airdrop funds an address from the faucet account.
func (h *Handler) Airdrop(c *fiber.Ctx) error {
	var req airdropRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Airdrop(c.UserContext(), AirdropInput{Address: req.Address, Lamports: req.Lamports})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAddress), errors.Is(err, ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, runtime.ErrFaucetDisabled):
			return fiber.NewError(http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, cpi.ErrInsufficientFunds):
			return fiber.NewError(http.StatusServiceUnavailable, "faucet exhausted")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(toResponse(res))
}

// Balance returns the lamports held by an address.
func (h *Handler) Balance(c *fiber.Ctx) error {
	res, err := h.service.Balance(c.UserContext(), c.Params("address"))
	if err != nil {
		if errors.Is(err, ErrInvalidAddress) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(res))
}

func toResponse(res Result) balanceResponse {
	return balanceResponse{
		Address:   res.Address,
		Signature: res.Signature,
		Balance:   res.Balance,
		Timestamp: res.AsOf.Format(time.RFC3339Nano),
	}
}
