package programs

import (
	"context"
	"errors"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"github.com/congo-pay/editionmint/internal/address"
	"github.com/congo-pay/editionmint/internal/cpi"
	"github.com/congo-pay/editionmint/internal/ledger"
)

// fakeContext is a flat account map where every key is reachable and
// writable unless listed in readonly.
type fakeContext struct {
	accounts map[common.PublicKey]ledger.Account
	signers  map[common.PublicKey]bool
	readonly map[common.PublicKey]bool
	logs     []string
}

func newFakeContext(signers ...common.PublicKey) *fakeContext {
	c := &fakeContext{
		accounts: make(map[common.PublicKey]ledger.Account),
		signers:  make(map[common.PublicKey]bool),
		readonly: make(map[common.PublicKey]bool),
	}
	for _, s := range signers {
		c.signers[s] = true
	}
	return c
}

func (c *fakeContext) Load(_ context.Context, key common.PublicKey) (ledger.Account, error) {
	acc, ok := c.accounts[key]
	if !ok {
		return ledger.Account{Key: key, Owner: common.SystemProgramID}, nil
	}
	return acc.Clone(), nil
}

func (c *fakeContext) Store(_ context.Context, acc ledger.Account) error {
	if c.readonly[acc.Key] {
		return cpi.ErrReadonlyAccount
	}
	c.accounts[acc.Key] = acc.Clone()
	return nil
}

func (c *fakeContext) IsSigner(key common.PublicKey) bool { return c.signers[key] }

func (c *fakeContext) Rent() cpi.Rent { return cpi.DefaultRent() }

func (c *fakeContext) Log(msg string, _ ...any) { c.logs = append(c.logs, msg) }

func (c *fakeContext) fund(key common.PublicKey, lamports uint64) {
	c.accounts[key] = ledger.Account{Key: key, Owner: common.SystemProgramID, Lamports: lamports}
}

func (c *fakeContext) lamports(key common.PublicKey) uint64 { return c.accounts[key].Lamports }

func newKey() common.PublicKey { return types.NewAccount().PublicKey }

type world struct {
	c                         *fakeContext
	mint, authority, payer    common.PublicKey
	wallet, holder            common.PublicKey
	metadataAddr, editionAddr common.PublicKey
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{mint: newKey(), authority: newKey(), payer: newKey(), wallet: newKey()}
	d, err := address.Derive(w.mint, w.wallet)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	w.holder, w.metadataAddr, w.editionAddr = d.Holder, d.Metadata, d.Edition
	w.c = newFakeContext(w.mint, w.authority, w.payer)
	w.c.fund(w.payer, 100_000_000)
	return w
}

func (w *world) createMint(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	err := NewSystem(w.c).CreateAccount(ctx, cpi.CreateAccountParams{
		From:     w.payer,
		New:      w.mint,
		Lamports: cpi.DefaultRent().MinimumBalance(cpi.MintAccountSize),
		Space:    cpi.MintAccountSize,
		Owner:    common.TokenProgramID,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	authority := w.authority
	err = NewToken(w.c).InitializeMint(ctx, cpi.InitializeMintParams{
		Mint: w.mint, MintAuthority: w.authority, FreezeAuthority: &authority,
	})
	if err != nil {
		t.Fatalf("initialize mint: %v", err)
	}
}

func (w *world) createMetadata(t *testing.T) {
	t.Helper()
	err := NewMetadata(w.c).CreateMetadataAccount(context.Background(), w.metadataParams(cpi.DataV2{Name: "Alpha", Symbol: "ALP", URI: "https://x"}))
	if err != nil {
		t.Fatalf("create metadata: %v", err)
	}
}

func (w *world) metadataParams(d cpi.DataV2) cpi.CreateMetadataParams {
	return cpi.CreateMetadataParams{
		Metadata: w.metadataAddr, Mint: w.mint, MintAuthority: w.authority, Payer: w.payer,
		UpdateAuthority: w.authority, UpdateAuthorityIsSigner: true, Data: d, IsMutable: true,
	}
}

func (w *world) createHolder(t *testing.T) {
	t.Helper()
	err := NewAssociatedToken(w.c).Create(context.Background(), cpi.CreateAssociatedAccountParams{
		Funder: w.payer, Account: w.holder, Wallet: w.wallet, Mint: w.mint, TokenProgram: common.TokenProgramID,
	})
	if err != nil {
		t.Fatalf("create holder: %v", err)
	}
}

func (w *world) mintOne() error {
	return NewToken(w.c).MintTo(context.Background(), cpi.MintToParams{
		Mint: w.mint, Destination: w.holder, Authority: w.authority, Amount: 1,
	})
}

func (w *world) editionParams() cpi.CreateMasterEditionParams {
	one := uint64(1)
	return cpi.CreateMasterEditionParams{
		Edition: w.editionAddr, Mint: w.mint, UpdateAuthority: w.authority, MintAuthority: w.authority,
		Payer: w.payer, Metadata: w.metadataAddr, TokenProgram: common.TokenProgramID, MaxSupply: &one,
	}
}

func (w *world) mintState(t *testing.T) MintState {
	t.Helper()
	m, err := DecodeMint(w.c.accounts[w.mint].Data)
	if err != nil {
		t.Fatalf("decode mint: %v", err)
	}
	return m
}

func TestMintAccountLayoutIsSPLSized(t *testing.T) {
	data, err := encode(MintState{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if uint64(len(data)) != cpi.MintAccountSize {
		t.Fatalf("mint layout is %d bytes, want %d", len(data), cpi.MintAccountSize)
	}
	data, err = encode(HolderState{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if uint64(len(data)) != cpi.HolderAccountSize {
		t.Fatalf("holder layout is %d bytes, want %d", len(data), cpi.HolderAccountSize)
	}
	data, err = encode(EditionState{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if uint64(len(data)) != EditionAccountSize {
		t.Fatalf("edition layout is %d bytes, want %d", len(data), EditionAccountSize)
	}
}

func TestCreateAccount_FundsAndAssigns(t *testing.T) {
	w := newWorld(t)
	w.createMint(t)

	acc := w.c.accounts[w.mint]
	if acc.Owner != common.TokenProgramID || acc.Lamports != 1_461_600 || len(acc.Data) != 82 {
		t.Fatalf("unexpected mint account %+v", acc)
	}
	if w.c.lamports(w.payer) != 100_000_000-1_461_600 {
		t.Fatalf("payer not debited, balance %d", w.c.lamports(w.payer))
	}
	m := w.mintState(t)
	if !m.IsInitialized || m.Decimals != 0 || m.Supply != 0 {
		t.Fatalf("unexpected mint state %+v", m)
	}
	if a, ok := m.Authority(); !ok || a != w.authority {
		t.Fatalf("mint authority not set")
	}
	if f, ok := m.Freeze(); !ok || f != w.authority {
		t.Fatalf("freeze authority not set")
	}
}

func TestCreateAccount_Failures(t *testing.T) {
	ctx := context.Background()

	w := newWorld(t)
	w.createMint(t)
	err := NewSystem(w.c).CreateAccount(ctx, cpi.CreateAccountParams{From: w.payer, New: w.mint, Lamports: 1_461_600, Space: 82, Owner: common.TokenProgramID})
	if !errors.Is(err, cpi.ErrAccountAlreadyInUse) {
		t.Fatalf("expected ErrAccountAlreadyInUse, got %v", err)
	}

	w = newWorld(t)
	w.c.fund(w.payer, 1_000)
	err = NewSystem(w.c).CreateAccount(ctx, cpi.CreateAccountParams{From: w.payer, New: w.mint, Lamports: 1_461_600, Space: 82, Owner: common.TokenProgramID})
	if !errors.Is(err, cpi.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	err = NewSystem(w.c).CreateAccount(ctx, cpi.CreateAccountParams{From: w.payer, New: w.mint, Lamports: 10, Space: 82, Owner: common.TokenProgramID})
	if !errors.Is(err, cpi.ErrInsufficientFundsForRent) {
		t.Fatalf("expected ErrInsufficientFundsForRent, got %v", err)
	}

	stranger := newKey()
	err = NewSystem(w.c).CreateAccount(ctx, cpi.CreateAccountParams{From: w.payer, New: stranger, Lamports: 1_461_600, Space: 82, Owner: common.TokenProgramID})
	if !errors.Is(err, cpi.ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
}

func TestCreateAccount_RejectsOversizedSpace(t *testing.T) {
	w := newWorld(t)
	for _, space := range []uint64{cpi.MaxPermittedDataLength + 1, 1 << 61} {
		err := NewSystem(w.c).CreateAccount(context.Background(), cpi.CreateAccountParams{
			From: w.payer, New: w.mint, Lamports: 890_880, Space: space, Owner: common.TokenProgramID,
		})
		if !errors.Is(err, cpi.ErrInvalidAccountData) {
			t.Fatalf("space %d: expected ErrInvalidAccountData, got %v", space, err)
		}
	}
	if w.c.lamports(w.payer) != 100_000_000 {
		t.Fatalf("payer debited on rejected allocation: %d", w.c.lamports(w.payer))
	}
	if _, ok := w.c.accounts[w.mint]; ok {
		t.Fatalf("rejected account was stored")
	}
}

func TestDecodeEdition_ClusterPadded(t *testing.T) {
	data, err := encode(EditionState{Key: KeyMasterEditionV2, HasMaxSupply: 1, MaxSupply: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	padded := append(data, make([]byte, 264)...)
	e, err := DecodeEdition(padded)
	if err != nil {
		t.Fatalf("decode 282-byte edition: %v", err)
	}
	if limit, ok := e.Limit(); !ok || limit != 1 || e.Supply != 0 {
		t.Fatalf("unexpected edition %+v", e)
	}
	if _, err := DecodeEdition(data[:EditionAccountSize-1]); !errors.Is(err, cpi.ErrInvalidAccountData) {
		t.Fatalf("expected short edition to fail, got %v", err)
	}
}

func TestDecodeMetadata_DropsNulPadding(t *testing.T) {
	data, err := encode(MetadataState{
		Key:    KeyMetadataV1,
		Name:   "Alpha" + string(make([]byte, MaxNameLength-5)),
		Symbol: "ALP" + string(make([]byte, MaxSymbolLength-3)),
		URI:    "https://x" + string(make([]byte, MaxURILength-9)),
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	md, err := DecodeMetadata(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if md.Name != "Alpha" || md.Symbol != "ALP" || md.URI != "https://x" {
		t.Fatalf("padding kept: %q %q %q", md.Name, md.Symbol, md.URI)
	}
}

func TestTransfer(t *testing.T) {
	w := newWorld(t)
	to := newKey()
	if err := NewSystem(w.c).Transfer(context.Background(), cpi.TransferParams{From: w.payer, To: to, Lamports: 500}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if w.c.lamports(to) != 500 || w.c.lamports(w.payer) != 100_000_000-500 {
		t.Fatalf("unexpected balances %d / %d", w.c.lamports(to), w.c.lamports(w.payer))
	}
	err := NewSystem(w.c).Transfer(context.Background(), cpi.TransferParams{From: to, To: w.payer, Lamports: 1})
	if !errors.Is(err, cpi.ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
}

func TestInitializeMint_Twice(t *testing.T) {
	w := newWorld(t)
	w.createMint(t)
	err := NewToken(w.c).InitializeMint(context.Background(), cpi.InitializeMintParams{Mint: w.mint, MintAuthority: w.authority})
	if !errors.Is(err, cpi.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestCreateMetadata(t *testing.T) {
	w := newWorld(t)
	w.createMint(t)
	before := w.c.lamports(w.payer)
	w.createMetadata(t)

	acc := w.c.accounts[w.metadataAddr]
	if acc.Owner != address.MetadataProgramID {
		t.Fatalf("metadata owned by %s", acc.Owner.ToBase58())
	}
	md, err := DecodeMetadata(acc.Data)
	if err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if md.Name != "Alpha" || md.Symbol != "ALP" || md.URI != "https://x" || !md.IsMutable || md.SellerFeeBasisPoints != 0 {
		t.Fatalf("unexpected metadata %+v", md)
	}
	if md.UpdateAuthority != w.authority || md.Mint != w.mint {
		t.Fatalf("unexpected metadata parties %+v", md)
	}
	rent := cpi.DefaultRent().MinimumBalance(uint64(len(acc.Data)))
	if acc.Lamports != rent || before-w.c.lamports(w.payer) != rent {
		t.Fatalf("metadata not funded by payer: lamports %d, rent %d", acc.Lamports, rent)
	}

	err = NewMetadata(w.c).CreateMetadataAccount(context.Background(), w.metadataParams(cpi.DataV2{Name: "again"}))
	if !errors.Is(err, cpi.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestCreateMetadata_Rejections(t *testing.T) {
	long := make([]byte, MaxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}

	w := newWorld(t)
	w.createMint(t)
	md := NewMetadata(w.c)
	ctx := context.Background()

	if err := md.CreateMetadataAccount(ctx, w.metadataParams(cpi.DataV2{Name: string(long)})); !errors.Is(err, cpi.ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata for long name, got %v", err)
	}
	if err := md.CreateMetadataAccount(ctx, w.metadataParams(cpi.DataV2{SellerFeeBasisPoints: 10001})); !errors.Is(err, cpi.ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata for fee, got %v", err)
	}

	p := w.metadataParams(cpi.DataV2{})
	p.Metadata = newKey()
	if err := md.CreateMetadataAccount(ctx, p); !errors.Is(err, cpi.ErrInvalidSeeds) {
		t.Fatalf("expected ErrInvalidSeeds, got %v", err)
	}

	p = w.metadataParams(cpi.DataV2{})
	p.MintAuthority = w.payer
	if err := md.CreateMetadataAccount(ctx, p); !errors.Is(err, cpi.ErrAuthorityMismatch) {
		t.Fatalf("expected ErrAuthorityMismatch, got %v", err)
	}

	delete(w.c.signers, w.authority)
	if err := md.CreateMetadataAccount(ctx, w.metadataParams(cpi.DataV2{})); !errors.Is(err, cpi.ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
}

func TestAssociatedToken_CreateAndTopUp(t *testing.T) {
	w := newWorld(t)
	w.createMint(t)
	w.createHolder(t)

	acc := w.c.accounts[w.holder]
	if acc.Owner != common.TokenProgramID || acc.Lamports != 2_039_280 || len(acc.Data) != 165 {
		t.Fatalf("unexpected holder account %+v", acc)
	}
	h, err := DecodeHolder(acc.Data)
	if err != nil {
		t.Fatalf("decode holder: %v", err)
	}
	if h.Mint != w.mint || h.Owner != w.wallet || h.State != HolderInitialized || h.Amount != 0 {
		t.Fatalf("unexpected holder state %+v", h)
	}

	// A second create collides with the initialized account.
	err = NewAssociatedToken(w.c).Create(context.Background(), cpi.CreateAssociatedAccountParams{
		Funder: w.payer, Account: w.holder, Wallet: w.wallet, Mint: w.mint, TokenProgram: common.TokenProgramID,
	})
	if !errors.Is(err, cpi.ErrAccountAlreadyInUse) {
		t.Fatalf("expected ErrAccountAlreadyInUse, got %v", err)
	}

	// A prefunded vacant address is topped up rather than rejected.
	w2 := newWorld(t)
	w2.createMint(t)
	w2.c.fund(w2.holder, 1_000)
	before := w2.c.lamports(w2.payer)
	w2.createHolder(t)
	if w2.c.lamports(w2.holder) != 2_039_280 || before-w2.c.lamports(w2.payer) != 2_039_280-1_000 {
		t.Fatalf("holder not topped up correctly")
	}
}

func TestAssociatedToken_WrongAddress(t *testing.T) {
	w := newWorld(t)
	w.createMint(t)
	err := NewAssociatedToken(w.c).Create(context.Background(), cpi.CreateAssociatedAccountParams{
		Funder: w.payer, Account: newKey(), Wallet: w.wallet, Mint: w.mint, TokenProgram: common.TokenProgramID,
	})
	if !errors.Is(err, cpi.ErrInvalidSeeds) {
		t.Fatalf("expected ErrInvalidSeeds, got %v", err)
	}
}

func TestMintTo(t *testing.T) {
	w := newWorld(t)
	w.createMint(t)
	w.createHolder(t)

	if err := w.mintOne(); err != nil {
		t.Fatalf("mint to: %v", err)
	}
	if m := w.mintState(t); m.Supply != 1 {
		t.Fatalf("expected supply 1, got %d", m.Supply)
	}
	h, _ := DecodeHolder(w.c.accounts[w.holder].Data)
	if h.Amount != 1 {
		t.Fatalf("expected holder amount 1, got %d", h.Amount)
	}

	err := NewToken(w.c).MintTo(context.Background(), cpi.MintToParams{Mint: w.mint, Destination: w.holder, Authority: w.payer, Amount: 1})
	if !errors.Is(err, cpi.ErrAuthorityMismatch) {
		t.Fatalf("expected ErrAuthorityMismatch, got %v", err)
	}
}

func TestMintTo_UninitializedDestination(t *testing.T) {
	w := newWorld(t)
	w.createMint(t)
	w.c.fund(w.holder, 5_000)

	if err := w.mintOne(); !errors.Is(err, cpi.ErrUninitializedAccount) {
		t.Fatalf("expected ErrUninitializedAccount, got %v", err)
	}
}

func TestMintTo_UnknownMint(t *testing.T) {
	w := newWorld(t)
	if err := w.mintOne(); !errors.Is(err, cpi.ErrUninitializedAccount) {
		t.Fatalf("expected ErrUninitializedAccount, got %v", err)
	}
}

func TestCreateMasterEdition_ReassignsAuthorities(t *testing.T) {
	w := newWorld(t)
	w.createMint(t)
	w.createMetadata(t)
	w.createHolder(t)
	if err := w.mintOne(); err != nil {
		t.Fatalf("mint to: %v", err)
	}

	if err := NewMetadata(w.c).CreateMasterEdition(context.Background(), w.editionParams()); err != nil {
		t.Fatalf("create master edition: %v", err)
	}

	ed, err := DecodeEdition(w.c.accounts[w.editionAddr].Data)
	if err != nil {
		t.Fatalf("decode edition: %v", err)
	}
	if limit, ok := ed.Limit(); !ok || limit != 1 || ed.Supply != 0 {
		t.Fatalf("unexpected edition %+v", ed)
	}
	m := w.mintState(t)
	if a, ok := m.Authority(); !ok || a != w.editionAddr {
		t.Fatalf("mint authority not moved to edition")
	}
	if f, ok := m.Freeze(); !ok || f != w.editionAddr {
		t.Fatalf("freeze authority not moved to edition")
	}

	if err := w.mintOne(); !errors.Is(err, cpi.ErrAuthorityMismatch) {
		t.Fatalf("second mint must fail with ErrAuthorityMismatch, got %v", err)
	}
	if err := NewMetadata(w.c).CreateMasterEdition(context.Background(), w.editionParams()); !errors.Is(err, cpi.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestCreateMasterEdition_RequiresSingleUnit(t *testing.T) {
	w := newWorld(t)
	w.createMint(t)
	w.createMetadata(t)

	err := NewMetadata(w.c).CreateMasterEdition(context.Background(), w.editionParams())
	if !errors.Is(err, cpi.ErrEditionSupply) {
		t.Fatalf("expected ErrEditionSupply, got %v", err)
	}
}

func TestStoreRespectsReadonly(t *testing.T) {
	w := newWorld(t)
	w.c.readonly[w.payer] = true
	err := NewSystem(w.c).Transfer(context.Background(), cpi.TransferParams{From: w.payer, To: newKey(), Lamports: 1})
	if !errors.Is(err, cpi.ErrReadonlyAccount) {
		t.Fatalf("expected ErrReadonlyAccount, got %v", err)
	}
}

func TestProcessSystemInstruction_Transfer(t *testing.T) {
	w := newWorld(t)
	to := newKey()
	data := []byte{2, 0, 0, 0, 0xe8, 0x03, 0, 0, 0, 0, 0, 0}
	accounts := []cpi.AccountInfo{{Key: w.payer, IsSigner: true, IsWritable: true}, {Key: to, IsWritable: true}}

	if err := ProcessSystemInstruction(context.Background(), NewSystem(w.c), accounts, data); err != nil {
		t.Fatalf("process transfer: %v", err)
	}
	if w.c.lamports(to) != 1_000 {
		t.Fatalf("expected 1000 lamports, got %d", w.c.lamports(to))
	}
	if err := ProcessSystemInstruction(context.Background(), NewSystem(w.c), accounts, []byte{9, 0, 0, 0}); !errors.Is(err, cpi.ErrInvalidAccountData) {
		t.Fatalf("expected ErrInvalidAccountData, got %v", err)
	}
}
