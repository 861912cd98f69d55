package programs

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"

	"github.com/congo-pay/editionmint/internal/address"
	"github.com/congo-pay/editionmint/internal/cpi"
)

// Metadata owns metadata and master edition records.
type Metadata struct {
	c     Context
	token *Token
}

// NewMetadata binds the metadata program to an executing instruction.
func NewMetadata(c Context) *Metadata {
	return &Metadata{c: c, token: NewToken(c)}
}

var _ cpi.MetadataProgram = (*Metadata)(nil)

// CreateMetadataAccount implements cpi.MetadataProgram.
func (m *Metadata) CreateMetadataAccount(ctx context.Context, p cpi.CreateMetadataParams) error {
	want, err := address.MetadataAddress(p.Mint)
	if err != nil {
		return err
	}
	if want != p.Metadata {
		return fmt.Errorf("%w: metadata %s, expected %s", cpi.ErrInvalidSeeds, p.Metadata.ToBase58(), want.ToBase58())
	}
	if err := validateData(p.Data); err != nil {
		return err
	}

	_, mint, err := m.token.loadMint(ctx, p.Mint)
	if err != nil {
		return err
	}
	authority, ok := mint.Authority()
	if !ok {
		return fmt.Errorf("%w: mint %s", cpi.ErrMintAuthorityRevoked, p.Mint.ToBase58())
	}
	if authority != p.MintAuthority {
		return fmt.Errorf("%w: mint authority is %s", cpi.ErrAuthorityMismatch, authority.ToBase58())
	}
	if err := requireSigner(m.c, p.MintAuthority, "mint authority"); err != nil {
		return err
	}
	if p.UpdateAuthorityIsSigner {
		if err := requireSigner(m.c, p.UpdateAuthority, "update authority"); err != nil {
			return err
		}
	}

	target, err := m.c.Load(ctx, p.Metadata)
	if err != nil {
		return err
	}
	if !isVacant(target) {
		return fmt.Errorf("%w: metadata %s", cpi.ErrAlreadyInitialized, p.Metadata.ToBase58())
	}
	data, err := encode(MetadataState{
		Key:                  KeyMetadataV1,
		UpdateAuthority:      p.UpdateAuthority,
		Mint:                 p.Mint,
		Name:                 p.Data.Name,
		Symbol:               p.Data.Symbol,
		URI:                  p.Data.URI,
		SellerFeeBasisPoints: p.Data.SellerFeeBasisPoints,
		IsMutable:            p.IsMutable,
	})
	if err != nil {
		return err
	}
	if err := allocate(ctx, m.c, p.Payer, target, address.MetadataProgramID, data); err != nil {
		return err
	}
	m.c.Log("metadata: create metadata account", "metadata", p.Metadata.ToBase58(), "name", p.Data.Name)
	return nil
}

// CreateMasterEdition implements cpi.MetadataProgram. It moves the mint and
// freeze authorities of the mint to the edition account.
func (m *Metadata) CreateMasterEdition(ctx context.Context, p cpi.CreateMasterEditionParams) error {
	if p.TokenProgram != common.TokenProgramID {
		return fmt.Errorf("%w: token program %s", cpi.ErrIncorrectProgramID, p.TokenProgram.ToBase58())
	}
	d, err := address.Derive(p.Mint, common.PublicKey{})
	if err != nil {
		return err
	}
	if d.Edition != p.Edition {
		return fmt.Errorf("%w: edition %s, expected %s", cpi.ErrInvalidSeeds, p.Edition.ToBase58(), d.Edition.ToBase58())
	}
	if d.Metadata != p.Metadata {
		return fmt.Errorf("%w: metadata %s, expected %s", cpi.ErrInvalidSeeds, p.Metadata.ToBase58(), d.Metadata.ToBase58())
	}

	mdAcc, err := loadOwned(ctx, m.c, p.Metadata, address.MetadataProgramID)
	if err != nil {
		return err
	}
	md, err := DecodeMetadata(mdAcc.Data)
	if err != nil {
		return err
	}
	if md.Mint != p.Mint {
		return fmt.Errorf("%w: metadata %s describes %s", cpi.ErrMintMismatch, p.Metadata.ToBase58(), md.Mint.ToBase58())
	}
	if md.UpdateAuthority != p.UpdateAuthority {
		return fmt.Errorf("%w: update authority is %s", cpi.ErrAuthorityMismatch, md.UpdateAuthority.ToBase58())
	}
	if err := requireSigner(m.c, p.UpdateAuthority, "update authority"); err != nil {
		return err
	}

	target, err := m.c.Load(ctx, p.Edition)
	if err != nil {
		return err
	}
	if !isVacant(target) {
		return fmt.Errorf("%w: edition %s", cpi.ErrAlreadyInitialized, p.Edition.ToBase58())
	}

	_, mint, err := m.token.loadMint(ctx, p.Mint)
	if err != nil {
		return err
	}
	if mint.Decimals != 0 || mint.Supply != 1 {
		return fmt.Errorf("%w: decimals %d, supply %d", cpi.ErrEditionSupply, mint.Decimals, mint.Supply)
	}

	edition := EditionState{Key: KeyMasterEditionV2}
	if p.MaxSupply != nil {
		edition.HasMaxSupply, edition.MaxSupply = 1, *p.MaxSupply
	}
	data, err := encode(edition)
	if err != nil {
		return err
	}
	if err := allocate(ctx, m.c, p.Payer, target, address.MetadataProgramID, data); err != nil {
		return err
	}

	editionKey := p.Edition
	err = m.token.SetAuthority(ctx, SetAuthorityParams{
		Mint:    p.Mint,
		Kind:    AuthorityMintTokens,
		Current: p.MintAuthority,
		New:     &editionKey,
	})
	if err != nil {
		return err
	}
	if freeze, ok := mint.Freeze(); ok {
		err = m.token.SetAuthority(ctx, SetAuthorityParams{
			Mint:    p.Mint,
			Kind:    AuthorityFreezeAccount,
			Current: freeze,
			New:     &editionKey,
		})
		if err != nil {
			return err
		}
	}
	m.c.Log("metadata: create master edition", "edition", p.Edition.ToBase58(), "mint", p.Mint.ToBase58())
	return nil
}
