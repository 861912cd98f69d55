package nft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"github.com/congo-pay/editionmint/internal/address"
	"github.com/congo-pay/editionmint/internal/builder"
	"github.com/congo-pay/editionmint/internal/ledger"
	"github.com/congo-pay/editionmint/internal/notification"
	"github.com/congo-pay/editionmint/internal/programs"
)

var (
	// ErrAssetNotFound is returned when no mint exists at the address.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrInvalidInput flags request fields rejected before anything is sent.
	ErrInvalidInput = errors.New("invalid input")
)

// Stage describes how far an asset has progressed. Stages only move
// forward; StageEditionLocked is terminal.
type Stage string

const (
	StageUninitialized    Stage = "uninitialized"
	StageMintCreated      Stage = "mint_created"
	StageMetadataAttached Stage = "metadata_attached"
	StageIssued           Stage = "issued"
	StageEditionLocked    Stage = "edition_locked"
)

// Chain submits instructions and reads back state. Both the embedded
// runtime and the RPC cluster client satisfy it.
type Chain interface {
	Send(ctx context.Context, payer types.Account, signers []types.Account, ixs ...types.Instruction) (string, error)
	Account(ctx context.Context, key common.PublicKey) (ledger.Account, error)
	Receipt(ctx context.Context, signature string) (ledger.Receipt, error)
}

// Service issues single-edition NFTs through the minter program. The
// configured authority pays for every account and acts as mint and update
// authority.
type Service struct {
	chain     Chain
	programID common.PublicKey
	authority types.Account
	notifier  notification.Notifier
	logger    *slog.Logger
}

// NewService builds the NFT service.
func NewService(chain Chain, programID common.PublicKey, authority types.Account, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{chain: chain, programID: programID, authority: authority, notifier: notifier, logger: logger}
}

// CreateInput carries the metadata for a new asset. Values are recorded
// on chain verbatim, so leading or trailing whitespace is rejected rather
// than trimmed.
type CreateInput struct {
	Name   string
	Symbol string
	URI    string
}

// Created is the outcome of Create. Signature is set whenever a transaction
// was submitted, including failed ones.
type Created struct {
	Mint      common.PublicKey
	Metadata  common.PublicKey
	Signature string
}

// Create allocates a fresh mint and records its metadata.
func (s *Service) Create(ctx context.Context, input CreateInput) (Created, error) {
	for _, f := range [][2]string{{"name", input.Name}, {"symbol", input.Symbol}, {"uri", input.URI}} {
		if f[1] != strings.TrimSpace(f[1]) {
			return Created{}, fmt.Errorf("%w: %s has surrounding whitespace", ErrInvalidInput, f[0])
		}
	}
	if input.Name == "" || input.URI == "" {
		return Created{}, fmt.Errorf("%w: name and uri are required", ErrInvalidInput)
	}

	mint := types.NewAccount()
	metadata, err := address.MetadataAddress(mint.PublicKey)
	if err != nil {
		return Created{}, err
	}
	ix, err := builder.Create(builder.CreateParams{
		ProgramID:     s.programID,
		Mint:          mint.PublicKey,
		MintAuthority: s.authority.PublicKey,
		Payer:         s.authority.PublicKey,
		Name:          input.Name,
		Symbol:        input.Symbol,
		URI:           input.URI,
	})
	if err != nil {
		return Created{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	out := Created{Mint: mint.PublicKey, Metadata: metadata}
	out.Signature, err = s.chain.Send(ctx, s.authority, []types.Account{mint}, ix)
	if err != nil {
		return out, err
	}
	s.logger.Info("asset created", "mint", mint.PublicKey.ToBase58(), "signature", out.Signature)
	s.notify(ctx, notification.Message{
		Kind:        notification.KindAssetCreated,
		Destination: s.authority.PublicKey.ToBase58(),
		Mint:        mint.PublicKey.ToBase58(),
		Signature:   out.Signature,
		Body:        input.Name,
	})
	return out, nil
}

// MintInput names the asset and the wallet receiving its single unit.
type MintInput struct {
	Mint   common.PublicKey
	Wallet common.PublicKey
}

// Minted is the outcome of Mint.
type Minted struct {
	Mint      common.PublicKey
	Holder    common.PublicKey
	Edition   common.PublicKey
	Signature string
}

// Mint issues the single unit into the wallet's holder account and locks the
// supply behind a master edition.
func (s *Service) Mint(ctx context.Context, input MintInput) (Minted, error) {
	derived, err := address.Derive(input.Mint, input.Wallet)
	if err != nil {
		return Minted{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	ix, err := builder.Mint(builder.MintParams{
		ProgramID:     s.programID,
		Mint:          input.Mint,
		MintAuthority: s.authority.PublicKey,
		Payer:         s.authority.PublicKey,
		Wallet:        input.Wallet,
	})
	if err != nil {
		return Minted{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	out := Minted{Mint: input.Mint, Holder: derived.Holder, Edition: derived.Edition}
	out.Signature, err = s.chain.Send(ctx, s.authority, nil, ix)
	if err != nil {
		return out, err
	}
	s.logger.Info("edition minted", "mint", input.Mint.ToBase58(), "wallet", input.Wallet.ToBase58(), "signature", out.Signature)
	s.notify(ctx, notification.Message{
		Kind:        notification.KindEditionMinted,
		Destination: input.Wallet.ToBase58(),
		Mint:        input.Mint.ToBase58(),
		Signature:   out.Signature,
	})
	return out, nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("notification failed", "kind", msg.Kind, "mint", msg.Mint, "error", err)
	}
}

// Asset is the decoded on-chain view of one mint.
type Asset struct {
	Mint            common.PublicKey
	Stage           Stage
	Supply          uint64
	Decimals        uint8
	MintAuthority   *common.PublicKey
	FreezeAuthority *common.PublicKey
	Metadata        *programs.MetadataState
	MetadataAddress common.PublicKey
	Edition         *programs.EditionState
	EditionAddress  common.PublicKey
}

// Asset loads the mint with its metadata and edition records. A token
// program account that is allocated but not yet initialized reports
// StageUninitialized.
func (s *Service) Asset(ctx context.Context, mint common.PublicKey) (Asset, error) {
	acc, err := s.chain.Account(ctx, mint)
	if err != nil {
		return Asset{}, err
	}
	if !acc.Exists() || acc.Owner != address.TokenProgramID {
		return Asset{}, ErrAssetNotFound
	}
	state, err := programs.DecodeMint(acc.Data)
	if err != nil {
		return Asset{}, ErrAssetNotFound
	}

	out := Asset{Mint: mint, Stage: StageUninitialized, Supply: state.Supply, Decimals: state.Decimals}
	if key, ok := state.Authority(); ok {
		out.MintAuthority = &key
	}
	if key, ok := state.Freeze(); ok {
		out.FreezeAuthority = &key
	}

	if out.MetadataAddress, err = address.MetadataAddress(mint); err != nil {
		return Asset{}, err
	}
	md, err := s.chain.Account(ctx, out.MetadataAddress)
	if err != nil {
		return Asset{}, err
	}
	if md.Exists() && md.Owner == address.MetadataProgramID {
		if decoded, err := programs.DecodeMetadata(md.Data); err == nil {
			out.Metadata = &decoded
		}
	}

	if out.EditionAddress, err = address.EditionAddress(mint); err != nil {
		return Asset{}, err
	}
	ed, err := s.chain.Account(ctx, out.EditionAddress)
	if err != nil {
		return Asset{}, err
	}
	if ed.Exists() && ed.Owner == address.MetadataProgramID {
		if decoded, err := programs.DecodeEdition(ed.Data); err == nil {
			out.Edition = &decoded
		}
	}
	out.Stage = stageOf(state, out.Metadata, out.Edition)
	return out, nil
}

func stageOf(mint programs.MintState, md *programs.MetadataState, ed *programs.EditionState) Stage {
	switch {
	case !mint.IsInitialized:
		return StageUninitialized
	case ed != nil:
		return StageEditionLocked
	case mint.Supply > 0:
		return StageIssued
	case md != nil:
		return StageMetadataAttached
	default:
		return StageMintCreated
	}
}

// Receipt returns the recorded outcome of a transaction.
func (s *Service) Receipt(ctx context.Context, signature string) (ledger.Receipt, error) {
	return s.chain.Receipt(ctx, signature)
}
