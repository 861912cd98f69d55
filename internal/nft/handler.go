package nft

import (
	"errors"
	"net/http"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/editionmint/internal/address"
	"github.com/congo-pay/editionmint/internal/ledger"
	"github.com/congo-pay/editionmint/internal/processor"
)

// Handler exposes NFT HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an NFT HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	URI    string `json:"uri"`
}

type createResponse struct {
	Mint      string `json:"mint"`
	Metadata  string `json:"metadata"`
	Signature string `json:"signature"`
}

type mintRequest struct {
	Wallet string `json:"wallet"`
}

type mintResponse struct {
	Mint      string `json:"mint"`
	Holder    string `json:"holder"`
	Edition   string `json:"edition"`
	Signature string `json:"signature"`
}

type metadataView struct {
	Address         string `json:"address"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	URI             string `json:"uri"`
	UpdateAuthority string `json:"update_authority"`
	IsMutable       bool   `json:"is_mutable"`
}

type editionView struct {
	Address   string  `json:"address"`
	Supply    uint64  `json:"supply"`
	MaxSupply *uint64 `json:"max_supply"`
}

type assetResponse struct {
	Mint            string        `json:"mint"`
	Stage           Stage         `json:"stage"`
	Supply          uint64        `json:"supply"`
	Decimals        uint8         `json:"decimals"`
	MintAuthority   *string       `json:"mint_authority"`
	FreezeAuthority *string       `json:"freeze_authority"`
	Metadata        *metadataView `json:"metadata"`
	Edition         *editionView  `json:"edition"`
}

type receiptResponse struct {
	Signature string   `json:"signature"`
	Status    string   `json:"status"`
	Error     string   `json:"error,omitempty"`
	Logs      []string `json:"logs"`
	CreatedAt string   `json:"created_at,omitempty"`
}

// Create issues a new asset owned by the service authority.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	out, err := h.service.Create(c.UserContext(), CreateInput{Name: req.Name, Symbol: req.Symbol, URI: req.URI})
	if err != nil {
		return failure(c, err, out.Signature)
	}
	return c.Status(http.StatusCreated).JSON(createResponse{
		Mint:      out.Mint.ToBase58(),
		Metadata:  out.Metadata.ToBase58(),
		Signature: out.Signature,
	})
}

// Mint issues the asset's single unit to the requested wallet.
func (h *Handler) Mint(c *fiber.Ctx) error {
	mint, err := address.Parse(c.Params("mint"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	var req mintRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	wallet, err := address.Parse(req.Wallet)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "wallet: "+err.Error())
	}
	out, err := h.service.Mint(c.UserContext(), MintInput{Mint: mint, Wallet: wallet})
	if err != nil {
		return failure(c, err, out.Signature)
	}
	return c.Status(http.StatusCreated).JSON(mintResponse{
		Mint:      out.Mint.ToBase58(),
		Holder:    out.Holder.ToBase58(),
		Edition:   out.Edition.ToBase58(),
		Signature: out.Signature,
	})
}

// Get returns the decoded asset state.
func (h *Handler) Get(c *fiber.Ctx) error {
	mint, err := address.Parse(c.Params("mint"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	asset, err := h.service.Asset(c.UserContext(), mint)
	if err != nil {
		return failure(c, err, "")
	}
	return c.Status(http.StatusOK).JSON(toAssetResponse(asset))
}

// Receipt returns a transaction receipt with its program logs.
func (h *Handler) Receipt(c *fiber.Ctx) error {
	receipt, err := h.service.Receipt(c.UserContext(), c.Params("signature"))
	if err != nil {
		return failure(c, err, "")
	}
	resp := receiptResponse{
		Signature: receipt.Signature,
		Status:    receipt.Status,
		Error:     receipt.Error,
		Logs:      receipt.Logs,
	}
	if !receipt.CreatedAt.IsZero() {
		resp.CreatedAt = receipt.CreatedAt.Format(time.RFC3339Nano)
	}
	if resp.Logs == nil {
		resp.Logs = []string{}
	}
	return c.Status(http.StatusOK).JSON(resp)
}

func toAssetResponse(a Asset) assetResponse {
	resp := assetResponse{
		Mint:            a.Mint.ToBase58(),
		Stage:           a.Stage,
		Supply:          a.Supply,
		Decimals:        a.Decimals,
		MintAuthority:   base58Ptr(a.MintAuthority),
		FreezeAuthority: base58Ptr(a.FreezeAuthority),
	}
	if a.Metadata != nil {
		resp.Metadata = &metadataView{
			Address:         a.MetadataAddress.ToBase58(),
			Name:            a.Metadata.Name,
			Symbol:          a.Metadata.Symbol,
			URI:             a.Metadata.URI,
			UpdateAuthority: a.Metadata.UpdateAuthority.ToBase58(),
			IsMutable:       a.Metadata.IsMutable,
		}
	}
	if a.Edition != nil {
		view := &editionView{Address: a.EditionAddress.ToBase58(), Supply: a.Edition.Supply}
		if limit, ok := a.Edition.Limit(); ok {
			view.MaxSupply = &limit
		}
		resp.Edition = view
	}
	return resp
}

func base58Ptr(key *common.PublicKey) *string {
	if key == nil {
		return nil
	}
	s := key.ToBase58()
	return &s
}

// StatusFor maps a service error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrAssetNotFound), errors.Is(err, ledger.ErrReceiptNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return http.StatusConflict
	}
	switch processor.Classify(err) {
	case processor.ClassDecoding, processor.ClassAccountShape:
		return http.StatusBadRequest
	case processor.ClassAuthority:
		return http.StatusForbidden
	case processor.ClassFunding:
		return http.StatusPaymentRequired
	case processor.ClassCollision, processor.ClassEdition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func failure(c *fiber.Ctx, err error, signature string) error {
	status := StatusFor(err)
	if signature == "" {
		return fiber.NewError(status, err.Error())
	}
	return c.Status(status).JSON(fiber.Map{
		"error":     err.Error(),
		"class":     processor.Classify(err),
		"signature": signature,
	})
}
