package programs

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"

	"github.com/congo-pay/editionmint/internal/cpi"
)

// System allocates accounts and moves lamports between system accounts.
type System struct {
	c Context
}

// NewSystem binds the system program to an executing instruction.
func NewSystem(c Context) *System {
	return &System{c: c}
}

var _ cpi.SystemProgram = (*System)(nil)

// CreateAccount implements cpi.SystemProgram.
func (s *System) CreateAccount(ctx context.Context, p cpi.CreateAccountParams) error {
	if err := requireSigner(s.c, p.From, "funder"); err != nil {
		return err
	}
	if err := requireSigner(s.c, p.New, "new account"); err != nil {
		return err
	}
	target, err := s.c.Load(ctx, p.New)
	if err != nil {
		return err
	}
	if target.Exists() || !isVacant(target) {
		return fmt.Errorf("%w: %s", cpi.ErrAccountAlreadyInUse, p.New.ToBase58())
	}
	if p.Space > cpi.MaxPermittedDataLength {
		return fmt.Errorf("%w: space %d exceeds %d bytes", cpi.ErrInvalidAccountData, p.Space, cpi.MaxPermittedDataLength)
	}
	if !s.c.Rent().IsExempt(p.Lamports, p.Space) {
		return fmt.Errorf("%w: %d lamports for %d bytes", cpi.ErrInsufficientFundsForRent, p.Lamports, p.Space)
	}
	if err := s.debit(ctx, p.From, p.Lamports); err != nil {
		return err
	}

	target.Owner = p.Owner
	target.Lamports = p.Lamports
	target.Data = make([]byte, p.Space)
	if err := s.c.Store(ctx, target); err != nil {
		return err
	}
	s.c.Log("system: create account", "account", p.New.ToBase58(), "space", p.Space, "owner", p.Owner.ToBase58())
	return nil
}

// Transfer implements cpi.SystemProgram.
func (s *System) Transfer(ctx context.Context, p cpi.TransferParams) error {
	if err := requireSigner(s.c, p.From, "sender"); err != nil {
		return err
	}
	if p.From == p.To {
		_, err := s.c.Load(ctx, p.From)
		return err
	}
	if err := s.debit(ctx, p.From, p.Lamports); err != nil {
		return err
	}
	to, err := s.c.Load(ctx, p.To)
	if err != nil {
		return err
	}
	to.Lamports += p.Lamports
	if err := s.c.Store(ctx, to); err != nil {
		return err
	}
	s.c.Log("system: transfer", "from", p.From.ToBase58(), "to", p.To.ToBase58(), "lamports", p.Lamports)
	return nil
}

func (s *System) debit(ctx context.Context, key common.PublicKey, lamports uint64) error {
	from, err := s.c.Load(ctx, key)
	if err != nil {
		return err
	}
	if !isVacant(from) {
		return fmt.Errorf("%w: funder %s must be a system account", cpi.ErrInvalidAccountData, key.ToBase58())
	}
	if from.Lamports < lamports {
		return fmt.Errorf("%w: %s has %d, needs %d", cpi.ErrInsufficientFunds, key.ToBase58(), from.Lamports, lamports)
	}
	from.Lamports -= lamports
	return s.c.Store(ctx, from)
}

// System instruction indices of the wire format.
const (
	systemCreateAccount uint32 = 0
	systemTransfer      uint32 = 2
)

type systemCreateAccountData struct {
	Instruction uint32
	Lamports    uint64
	Space       uint64
	Owner       common.PublicKey
}

type systemTransferData struct {
	Instruction uint32
	Lamports    uint64
}

// ProcessSystemInstruction executes a top-level system instruction in its
// wire encoding. Only CreateAccount and Transfer are supported.
func ProcessSystemInstruction(ctx context.Context, sys cpi.SystemProgram, accounts []cpi.AccountInfo, data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: system instruction too short", cpi.ErrInvalidAccountData)
	}
	var tag struct{ Instruction uint32 }
	if err := borsh.Deserialize(&tag, data[:4]); err != nil {
		return fmt.Errorf("%w: %v", cpi.ErrInvalidAccountData, err)
	}
	if len(accounts) < 2 {
		return fmt.Errorf("%w: system instruction needs 2 accounts, got %d", cpi.ErrMissingAccount, len(accounts))
	}

	switch tag.Instruction {
	case systemCreateAccount:
		var args systemCreateAccountData
		if err := decodeFixed(data, 52, &args); err != nil {
			return err
		}
		return sys.CreateAccount(ctx, cpi.CreateAccountParams{
			From:     accounts[0].Key,
			New:      accounts[1].Key,
			Lamports: args.Lamports,
			Space:    args.Space,
			Owner:    args.Owner,
		})
	case systemTransfer:
		var args systemTransferData
		if err := decodeFixed(data, 12, &args); err != nil {
			return err
		}
		return sys.Transfer(ctx, cpi.TransferParams{
			From:     accounts[0].Key,
			To:       accounts[1].Key,
			Lamports: args.Lamports,
		})
	default:
		return fmt.Errorf("%w: unsupported system instruction %d", cpi.ErrInvalidAccountData, tag.Instruction)
	}
}
