package processor

import (
	"context"

	"github.com/congo-pay/editionmint/internal/cpi"
	"github.com/congo-pay/editionmint/internal/instruction"
)

const (
	stepCreateMintAccount = "create mint account"
	stepInitializeMint    = "initialize mint"
	stepCreateMetadata    = "create metadata account"
)

// Create allocates the mint, initializes it with zero decimals and the
// supplied authority for both minting and freezing, then attaches a mutable
// metadata record whose update authority is the same key.
func (p *Processor) Create(ctx context.Context, env cpi.Env, a CreateAccounts, args instruction.Create) error {
	const instr = "create"
	mint := a.Mint.Key
	authority := a.MintAuthority.Key

	rent, err := env.Rent(a.Rent.Key)
	if err != nil {
		return stepErr(instr, stepCreateMintAccount, err)
	}
	system, err := env.System(a.SystemProgram.Key)
	if err != nil {
		return stepErr(instr, stepCreateMintAccount, err)
	}

	env.Log("creating mint account", "mint", mint.ToBase58())
	err = system.CreateAccount(ctx, cpi.CreateAccountParams{
		From:     a.Payer.Key,
		New:      mint,
		Lamports: rent.MinimumBalance(cpi.MintAccountSize),
		Space:    cpi.MintAccountSize,
		Owner:    a.TokenProgram.Key,
	})
	if err != nil {
		return stepErr(instr, stepCreateMintAccount, err)
	}

	token, err := env.Token(a.TokenProgram.Key)
	if err != nil {
		return stepErr(instr, stepInitializeMint, err)
	}
	env.Log("initializing mint account", "mint", mint.ToBase58())
	err = token.InitializeMint(ctx, cpi.InitializeMintParams{
		Mint:            mint,
		Decimals:        0,
		MintAuthority:   authority,
		FreezeAuthority: &authority,
	})
	if err != nil {
		return stepErr(instr, stepInitializeMint, err)
	}

	metadata, err := env.Metadata(a.MetadataProgram.Key)
	if err != nil {
		return stepErr(instr, stepCreateMetadata, err)
	}
	env.Log("creating metadata account", "metadata", a.Metadata.Key.ToBase58())
	err = metadata.CreateMetadataAccount(ctx, cpi.CreateMetadataParams{
		Metadata:                a.Metadata.Key,
		Mint:                    mint,
		MintAuthority:           authority,
		Payer:                   a.Payer.Key,
		UpdateAuthority:         authority,
		UpdateAuthorityIsSigner: true,
		Data: cpi.DataV2{
			Name:   args.Name,
			Symbol: args.Symbol,
			URI:    args.URI,
		},
		IsMutable: true,
	})
	if err != nil {
		return stepErr(instr, stepCreateMetadata, err)
	}

	env.Log("token mint created", "mint", mint.ToBase58())
	return nil
}
