// Package programs implements the collaborators the minter invokes: the
// system, token, associated token account and metadata programs. Each one
// reads and writes ledger accounts through a Context supplied by the runtime
// and fails with the sentinel errors of package cpi.
package programs

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"

	"github.com/congo-pay/editionmint/internal/cpi"
	"github.com/congo-pay/editionmint/internal/ledger"
)

// Context is the executing instruction as a program sees it.
type Context interface {
	// Load returns the current state of key. Keys not passed to the
	// instruction fail with cpi.ErrMissingAccount.
	Load(ctx context.Context, key common.PublicKey) (ledger.Account, error)
	// Store replaces the state of acc.Key. Accounts not marked writable fail
	// with cpi.ErrReadonlyAccount.
	Store(ctx context.Context, acc ledger.Account) error
	IsSigner(key common.PublicKey) bool
	Rent() cpi.Rent
	Log(msg string, args ...any)
}

func requireSigner(c Context, key common.PublicKey, role string) error {
	if !c.IsSigner(key) {
		return fmt.Errorf("%w: %s %s", cpi.ErrMissingSignature, role, key.ToBase58())
	}
	return nil
}

// isVacant reports whether acc can still be allocated: owned by the system
// program with no data. It may already hold lamports.
func isVacant(acc ledger.Account) bool {
	return acc.Owner == common.SystemProgramID && len(acc.Data) == 0
}

// allocate funds target up to the rent-exempt minimum for len(data) from
// payer, then assigns it to owner with data. A prefunded vacant target is
// only topped up.
func allocate(ctx context.Context, c Context, payer common.PublicKey, target ledger.Account, owner common.PublicKey, data []byte) error {
	if !isVacant(target) {
		return fmt.Errorf("%w: %s", cpi.ErrAccountAlreadyInUse, target.Key.ToBase58())
	}
	need := c.Rent().MinimumBalance(uint64(len(data)))
	if target.Lamports < need {
		if err := requireSigner(c, payer, "payer"); err != nil {
			return err
		}
		src, err := c.Load(ctx, payer)
		if err != nil {
			return err
		}
		topUp := need - target.Lamports
		if src.Lamports < topUp {
			return fmt.Errorf("%w: payer has %d, needs %d", cpi.ErrInsufficientFunds, src.Lamports, topUp)
		}
		src.Lamports -= topUp
		if err := c.Store(ctx, src); err != nil {
			return err
		}
		target.Lamports = need
	}
	target.Owner = owner
	target.Data = data
	return c.Store(ctx, target)
}

func loadOwned(ctx context.Context, c Context, key, owner common.PublicKey) (ledger.Account, error) {
	acc, err := c.Load(ctx, key)
	if err != nil {
		return ledger.Account{}, err
	}
	if acc.Owner != owner {
		if isVacant(acc) {
			return ledger.Account{}, fmt.Errorf("%w: %s", cpi.ErrUninitializedAccount, key.ToBase58())
		}
		return ledger.Account{}, fmt.Errorf("%w: %s is owned by %s", cpi.ErrIncorrectProgramID, key.ToBase58(), acc.Owner.ToBase58())
	}
	return acc, nil
}
