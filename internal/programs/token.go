package programs

import (
	"context"
	"fmt"
	"math"

	"github.com/blocto/solana-go-sdk/common"

	"github.com/congo-pay/editionmint/internal/cpi"
	"github.com/congo-pay/editionmint/internal/ledger"
)

// AuthorityKind selects which mint authority SetAuthority replaces.
type AuthorityKind uint8

const (
	AuthorityMintTokens AuthorityKind = iota
	AuthorityFreezeAccount
)

// SetAuthorityParams replaces one authority of Mint. Current must hold that
// authority and sign. A nil New revokes it.
type SetAuthorityParams struct {
	Mint    common.PublicKey
	Kind    AuthorityKind
	Current common.PublicKey
	New     *common.PublicKey
}

// Token owns mint records and holder accounts.
type Token struct {
	c Context
}

// NewToken binds the token program to an executing instruction.
func NewToken(c Context) *Token {
	return &Token{c: c}
}

var _ cpi.TokenProgram = (*Token)(nil)

// InitializeMint implements cpi.TokenProgram.
func (t *Token) InitializeMint(ctx context.Context, p cpi.InitializeMintParams) error {
	acc, err := t.c.Load(ctx, p.Mint)
	if err != nil {
		return err
	}
	if acc.Owner != common.TokenProgramID {
		return fmt.Errorf("%w: mint %s is owned by %s", cpi.ErrIncorrectProgramID, p.Mint.ToBase58(), acc.Owner.ToBase58())
	}
	state, err := DecodeMint(acc.Data)
	if err != nil {
		return err
	}
	if state.IsInitialized {
		return fmt.Errorf("%w: mint %s", cpi.ErrAlreadyInitialized, p.Mint.ToBase58())
	}
	if !t.c.Rent().IsExempt(acc.Lamports, uint64(len(acc.Data))) {
		return fmt.Errorf("%w: mint %s", cpi.ErrInsufficientFundsForRent, p.Mint.ToBase58())
	}

	state = MintState{
		MintAuthorityOption: 1,
		MintAuthority:       p.MintAuthority,
		Decimals:            p.Decimals,
		IsInitialized:       true,
	}
	if p.FreezeAuthority != nil {
		state.FreezeAuthorityOption = 1
		state.FreezeAuthority = *p.FreezeAuthority
	}
	if err := t.storeMint(ctx, acc, state); err != nil {
		return err
	}
	t.c.Log("token: initialize mint", "mint", p.Mint.ToBase58(), "decimals", p.Decimals)
	return nil
}

// MintTo implements cpi.TokenProgram.
func (t *Token) MintTo(ctx context.Context, p cpi.MintToParams) error {
	mintAcc, mint, err := t.loadMint(ctx, p.Mint)
	if err != nil {
		return err
	}
	authority, ok := mint.Authority()
	if !ok {
		return fmt.Errorf("%w: mint %s", cpi.ErrMintAuthorityRevoked, p.Mint.ToBase58())
	}
	if authority != p.Authority {
		return fmt.Errorf("%w: mint authority is %s", cpi.ErrAuthorityMismatch, authority.ToBase58())
	}
	if err := requireSigner(t.c, p.Authority, "mint authority"); err != nil {
		return err
	}

	destAcc, err := loadOwned(ctx, t.c, p.Destination, common.TokenProgramID)
	if err != nil {
		return err
	}
	holder, err := DecodeHolder(destAcc.Data)
	if err != nil {
		return err
	}
	switch holder.State {
	case HolderInitialized:
	case HolderUninitialized:
		return fmt.Errorf("%w: holder %s", cpi.ErrUninitializedAccount, p.Destination.ToBase58())
	default:
		return fmt.Errorf("%w: holder %s is frozen", cpi.ErrInvalidAccountData, p.Destination.ToBase58())
	}
	if holder.Mint != p.Mint {
		return fmt.Errorf("%w: holder %s belongs to %s", cpi.ErrMintMismatch, p.Destination.ToBase58(), holder.Mint.ToBase58())
	}
	if mint.Supply > math.MaxUint64-p.Amount || holder.Amount > math.MaxUint64-p.Amount {
		return cpi.ErrSupplyOverflow
	}

	mint.Supply += p.Amount
	holder.Amount += p.Amount
	if err := t.storeMint(ctx, mintAcc, mint); err != nil {
		return err
	}
	if err := t.storeHolder(ctx, destAcc, holder); err != nil {
		return err
	}
	t.c.Log("token: mint to", "mint", p.Mint.ToBase58(), "destination", p.Destination.ToBase58(), "amount", p.Amount)
	return nil
}

// SetAuthority replaces the mint or freeze authority of a mint.
func (t *Token) SetAuthority(ctx context.Context, p SetAuthorityParams) error {
	acc, mint, err := t.loadMint(ctx, p.Mint)
	if err != nil {
		return err
	}

	var current common.PublicKey
	var set bool
	switch p.Kind {
	case AuthorityMintTokens:
		current, set = mint.Authority()
	case AuthorityFreezeAccount:
		current, set = mint.Freeze()
	default:
		return fmt.Errorf("%w: authority kind %d", cpi.ErrInvalidAccountData, p.Kind)
	}
	if !set {
		return fmt.Errorf("%w: mint %s", cpi.ErrMintAuthorityRevoked, p.Mint.ToBase58())
	}
	if current != p.Current {
		return fmt.Errorf("%w: authority is %s", cpi.ErrAuthorityMismatch, current.ToBase58())
	}
	if err := requireSigner(t.c, p.Current, "current authority"); err != nil {
		return err
	}

	option, key := uint32(0), common.PublicKey{}
	if p.New != nil {
		option, key = 1, *p.New
	}
	switch p.Kind {
	case AuthorityMintTokens:
		mint.MintAuthorityOption, mint.MintAuthority = option, key
	case AuthorityFreezeAccount:
		mint.FreezeAuthorityOption, mint.FreezeAuthority = option, key
	}
	return t.storeMint(ctx, acc, mint)
}

// InitializeHolder writes a fresh holder record into an account already
// allocated to the token program.
func (t *Token) InitializeHolder(ctx context.Context, account, mint, owner common.PublicKey) error {
	if _, _, err := t.loadMint(ctx, mint); err != nil {
		return err
	}
	acc, err := loadOwned(ctx, t.c, account, common.TokenProgramID)
	if err != nil {
		return err
	}
	holder, err := DecodeHolder(acc.Data)
	if err != nil {
		return err
	}
	if holder.State != HolderUninitialized {
		return fmt.Errorf("%w: holder %s", cpi.ErrAlreadyInitialized, account.ToBase58())
	}
	if !t.c.Rent().IsExempt(acc.Lamports, uint64(len(acc.Data))) {
		return fmt.Errorf("%w: holder %s", cpi.ErrInsufficientFundsForRent, account.ToBase58())
	}
	return t.storeHolder(ctx, acc, HolderState{Mint: mint, Owner: owner, State: HolderInitialized})
}

func (t *Token) loadMint(ctx context.Context, key common.PublicKey) (ledger.Account, MintState, error) {
	acc, err := loadOwned(ctx, t.c, key, common.TokenProgramID)
	if err != nil {
		return ledger.Account{}, MintState{}, err
	}
	mint, err := DecodeMint(acc.Data)
	if err != nil {
		return ledger.Account{}, MintState{}, err
	}
	if !mint.IsInitialized {
		return ledger.Account{}, MintState{}, fmt.Errorf("%w: mint %s", cpi.ErrUninitializedAccount, key.ToBase58())
	}
	return acc, mint, nil
}

func (t *Token) storeMint(ctx context.Context, acc ledger.Account, m MintState) error {
	data, err := encode(m)
	if err != nil {
		return err
	}
	acc.Data = data
	return t.c.Store(ctx, acc)
}

func (t *Token) storeHolder(ctx context.Context, acc ledger.Account, h HolderState) error {
	data, err := encode(h)
	if err != nil {
		return err
	}
	acc.Data = data
	return t.c.Store(ctx, acc)
}
