package programs

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"

	"github.com/congo-pay/editionmint/internal/address"
	"github.com/congo-pay/editionmint/internal/cpi"
)

// AssociatedToken creates holder accounts at their derived addresses.
type AssociatedToken struct {
	c     Context
	token *Token
}

// NewAssociatedToken binds the associated token account program to an
// executing instruction.
func NewAssociatedToken(c Context) *AssociatedToken {
	return &AssociatedToken{c: c, token: NewToken(c)}
}

var _ cpi.AssociatedTokenProgram = (*AssociatedToken)(nil)

// Create implements cpi.AssociatedTokenProgram. A vacant account that already
// holds lamports is topped up to the rent-exempt minimum instead of failing.
func (a *AssociatedToken) Create(ctx context.Context, p cpi.CreateAssociatedAccountParams) error {
	if p.TokenProgram != common.TokenProgramID {
		return fmt.Errorf("%w: token program %s", cpi.ErrIncorrectProgramID, p.TokenProgram.ToBase58())
	}
	want, err := address.HolderAddress(p.Wallet, p.Mint)
	if err != nil {
		return err
	}
	if want != p.Account {
		return fmt.Errorf("%w: holder %s, expected %s", cpi.ErrInvalidSeeds, p.Account.ToBase58(), want.ToBase58())
	}
	if _, _, err := a.token.loadMint(ctx, p.Mint); err != nil {
		return err
	}

	target, err := a.c.Load(ctx, p.Account)
	if err != nil {
		return err
	}
	if err := allocate(ctx, a.c, p.Funder, target, common.TokenProgramID, make([]byte, cpi.HolderAccountSize)); err != nil {
		return err
	}
	if err := a.token.InitializeHolder(ctx, p.Account, p.Mint, p.Wallet); err != nil {
		return err
	}
	a.c.Log("associated token: create", "holder", p.Account.ToBase58(), "wallet", p.Wallet.ToBase58())
	return nil
}
