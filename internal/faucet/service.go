package faucet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/common"

	"github.com/congo-pay/editionmint/internal/address"
	"github.com/congo-pay/editionmint/internal/ledger"
)

// DefaultMaxLamports caps a single airdrop at 2 SOL.
const DefaultMaxLamports uint64 = 2_000_000_000

var (
	// ErrInvalidAmount is returned for zero or over-limit requests.
	ErrInvalidAmount = errors.New("invalid airdrop amount")
	// ErrInvalidAddress is returned for malformed recipients.
	ErrInvalidAddress = errors.New("invalid address")
)

// Source pays out airdrops and exposes account balances.
type Source interface {
	Airdrop(ctx context.Context, to common.PublicKey, lamports uint64) (string, error)
	Account(ctx context.Context, key common.PublicKey) (ledger.Account, error)
}

// Service funds payer accounts on the local cluster.
type Service struct {
	source      Source
	maxLamports uint64
}

// NewService builds a faucet service. maxLamports of zero selects
// DefaultMaxLamports.
func NewService(source Source, maxLamports uint64) *Service {
	if maxLamports == 0 {
		maxLamports = DefaultMaxLamports
	}
	return &Service{source: source, maxLamports: maxLamports}
}

// AirdropInput captures a funding request.
type AirdropInput struct {
	Address  string
	Lamports uint64
}

// Result is the outcome of an airdrop or balance lookup.
type Result struct {
	Address   string
	Signature string
	Balance   uint64
	AsOf      time.Time
}

// Airdrop transfers lamports to the address and returns its new balance.
func (s *Service) Airdrop(ctx context.Context, input AirdropInput) (Result, error) {
	to, err := address.Parse(input.Address)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if input.Lamports == 0 || input.Lamports > s.maxLamports {
		return Result{}, fmt.Errorf("%w: must be between 1 and %d lamports", ErrInvalidAmount, s.maxLamports)
	}
	sig, err := s.source.Airdrop(ctx, to, input.Lamports)
	if err != nil {
		return Result{Address: input.Address, Signature: sig}, err
	}
	res, err := s.balance(ctx, to)
	if err != nil {
		return Result{}, err
	}
	res.Signature = sig
	return res, nil
}

// Balance returns the lamport balance of the address.
func (s *Service) Balance(ctx context.Context, addr string) (Result, error) {
	key, err := address.Parse(addr)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return s.balance(ctx, key)
}

func (s *Service) balance(ctx context.Context, key common.PublicKey) (Result, error) {
	acc, err := s.source.Account(ctx, key)
	if err != nil {
		return Result{}, err
	}
	return Result{Address: key.ToBase58(), Balance: acc.Lamports, AsOf: time.Now().UTC()}, nil
}
