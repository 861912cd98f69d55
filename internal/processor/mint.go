package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/congo-pay/editionmint/internal/address"
	"github.com/congo-pay/editionmint/internal/cpi"
)

// ErrHolderNotInitialized is returned under the strict holder check when a
// funded holder account is not a token account at the derived address.
var ErrHolderNotInitialized = errors.New("holder account funded but not initialized")

const (
	stepCreateHolder  = "create holder account"
	stepMintTo        = "mint to holder"
	stepCreateEdition = "create master edition"
)

const editionMaxSupply uint64 = 1

// Mint makes sure the holder account exists, issues exactly one unit into it
// and creates the master edition.
//
// The holder account is treated as existing when it holds lamports; its
// contents are not inspected unless the strict holder check is enabled.
//
// Creating the master edition reassigns the mint's mint and freeze
// authorities to the edition address (see cpi.MetadataProgram). No explicit
// revoke is issued here; after success no key can mint this asset again.
func (p *Processor) Mint(ctx context.Context, env cpi.Env, a MintAccounts) error {
	const instr = "mint"
	mint := a.Mint.Key
	authority := a.MintAuthority.Key

	if a.Holder.Lamports != 0 {
		env.Log("holder account exists", "holder", a.Holder.Key.ToBase58())
		if p.strictHolder {
			if err := verifyHolder(a); err != nil {
				return stepErr(instr, stepCreateHolder, err)
			}
		}
	} else {
		ata, err := env.AssociatedToken(a.AssociatedTokenProgram.Key)
		if err != nil {
			return stepErr(instr, stepCreateHolder, err)
		}
		env.Log("creating holder account", "holder", a.Holder.Key.ToBase58(), "wallet", a.Wallet.Key.ToBase58())
		err = ata.Create(ctx, cpi.CreateAssociatedAccountParams{
			Funder:       a.Payer.Key,
			Account:      a.Holder.Key,
			Wallet:       a.Wallet.Key,
			Mint:         mint,
			TokenProgram: a.TokenProgram.Key,
		})
		if err != nil {
			return stepErr(instr, stepCreateHolder, err)
		}
	}

	token, err := env.Token(a.TokenProgram.Key)
	if err != nil {
		return stepErr(instr, stepMintTo, err)
	}
	env.Log("minting to holder account", "holder", a.Holder.Key.ToBase58())
	err = token.MintTo(ctx, cpi.MintToParams{
		Mint:        mint,
		Destination: a.Holder.Key,
		Authority:   authority,
		Amount:      1,
	})
	if err != nil {
		return stepErr(instr, stepMintTo, err)
	}

	metadata, err := env.Metadata(a.MetadataProgram.Key)
	if err != nil {
		return stepErr(instr, stepCreateEdition, err)
	}
	env.Log("creating edition account", "edition", a.Edition.Key.ToBase58())
	maxSupply := editionMaxSupply
	err = metadata.CreateMasterEdition(ctx, cpi.CreateMasterEditionParams{
		Edition:         a.Edition.Key,
		Mint:            mint,
		UpdateAuthority: authority,
		MintAuthority:   authority,
		Payer:           a.Payer.Key,
		Metadata:        a.Metadata.Key,
		TokenProgram:    a.TokenProgram.Key,
		MaxSupply:       &maxSupply,
	})
	if err != nil {
		return stepErr(instr, stepCreateEdition, err)
	}

	env.Log("nft minted", "mint", mint.ToBase58(), "holder", a.Holder.Key.ToBase58())
	return nil
}

func verifyHolder(a MintAccounts) error {
	if a.Holder.Owner != a.TokenProgram.Key {
		return fmt.Errorf("%w: owner %s", ErrHolderNotInitialized, a.Holder.Owner.ToBase58())
	}
	want, err := address.HolderAddress(a.Wallet.Key, a.Mint.Key)
	if err != nil {
		return err
	}
	if want != a.Holder.Key {
		return fmt.Errorf("%w: expected %s", cpi.ErrInvalidSeeds, want.ToBase58())
	}
	return nil
}
