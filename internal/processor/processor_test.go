package processor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"github.com/congo-pay/editionmint/internal/address"
	"github.com/congo-pay/editionmint/internal/cpi"
	"github.com/congo-pay/editionmint/internal/instruction"
)

// recorder implements every collaborator and remembers calls in order.
type recorder struct {
	calls  []string
	failOn string
	failed error

	account     cpi.CreateAccountParams
	initMint    cpi.InitializeMintParams
	mintTo      cpi.MintToParams
	holder      cpi.CreateAssociatedAccountParams
	metadata    cpi.CreateMetadataParams
	edition     cpi.CreateMasterEditionParams
	logs        []string
	resolvedIDs []common.PublicKey
}

func (r *recorder) record(name string) error {
	r.calls = append(r.calls, name)
	if r.failOn == name {
		return r.failed
	}
	return nil
}

func (r *recorder) System(id common.PublicKey) (cpi.SystemProgram, error) {
	r.resolvedIDs = append(r.resolvedIDs, id)
	return r, nil
}

func (r *recorder) Token(id common.PublicKey) (cpi.TokenProgram, error) {
	r.resolvedIDs = append(r.resolvedIDs, id)
	return r, nil
}

func (r *recorder) AssociatedToken(id common.PublicKey) (cpi.AssociatedTokenProgram, error) {
	r.resolvedIDs = append(r.resolvedIDs, id)
	return r, nil
}

func (r *recorder) Metadata(id common.PublicKey) (cpi.MetadataProgram, error) {
	r.resolvedIDs = append(r.resolvedIDs, id)
	return r, nil
}

func (r *recorder) Rent(common.PublicKey) (cpi.Rent, error) { return cpi.DefaultRent(), nil }

func (r *recorder) Log(msg string, _ ...any) { r.logs = append(r.logs, msg) }

func (r *recorder) CreateAccount(_ context.Context, p cpi.CreateAccountParams) error {
	r.account = p
	return r.record("create_account")
}

func (r *recorder) Transfer(_ context.Context, _ cpi.TransferParams) error {
	return r.record("transfer")
}

func (r *recorder) InitializeMint(_ context.Context, p cpi.InitializeMintParams) error {
	r.initMint = p
	return r.record("initialize_mint")
}

func (r *recorder) MintTo(_ context.Context, p cpi.MintToParams) error {
	r.mintTo = p
	return r.record("mint_to")
}

func (r *recorder) Create(_ context.Context, p cpi.CreateAssociatedAccountParams) error {
	r.holder = p
	return r.record("create_holder")
}

func (r *recorder) CreateMetadataAccount(_ context.Context, p cpi.CreateMetadataParams) error {
	r.metadata = p
	return r.record("create_metadata")
}

func (r *recorder) CreateMasterEdition(_ context.Context, p cpi.CreateMasterEditionParams) error {
	r.edition = p
	return r.record("create_master_edition")
}

func newKey() common.PublicKey { return types.NewAccount().PublicKey }

func info(key common.PublicKey, writable, signer bool) cpi.AccountInfo {
	return cpi.AccountInfo{Key: key, Owner: address.SystemProgramID, IsWritable: writable, IsSigner: signer}
}

type fixture struct {
	mint, authority, payer, wallet common.PublicKey
	derived                        address.Derived
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{mint: newKey(), authority: newKey(), payer: newKey(), wallet: newKey()}
	d, err := address.Derive(f.mint, f.wallet)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	f.derived = d
	return f
}

func (f fixture) createAccounts() []cpi.AccountInfo {
	return []cpi.AccountInfo{
		info(f.derived.Metadata, true, false),
		info(f.mint, true, true),
		info(f.authority, false, true),
		info(f.payer, true, true),
		info(address.RentSysvarID, false, false),
		info(address.SystemProgramID, false, false),
		info(address.MetadataProgramID, false, false),
		info(address.TokenProgramID, false, false),
	}
}

func (f fixture) mintAccounts() []cpi.AccountInfo {
	return []cpi.AccountInfo{
		info(f.derived.Holder, true, false),
		info(address.AssociatedTokenProgramID, false, false),
		info(f.derived.Edition, true, false),
		info(f.derived.Metadata, true, false),
		info(f.mint, true, false),
		info(f.authority, false, true),
		info(f.payer, true, true),
		info(address.RentSysvarID, false, false),
		info(address.SystemProgramID, false, false),
		info(address.MetadataProgramID, false, false),
		info(address.TokenProgramID, false, false),
		info(f.wallet, false, false),
	}
}

func encode(t *testing.T, req instruction.Request) []byte {
	t.Helper()
	data, err := instruction.Encode(req)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func equalCalls(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestProcessCreate_CallsCollaboratorsInOrder(t *testing.T) {
	f := newFixture(t)
	env := &recorder{}
	data := encode(t, instruction.Create{Name: "Alpha", Symbol: "ALP", URI: "https://x/a.json"})

	if err := New().Process(context.Background(), env, address.DefaultProgramID, f.createAccounts(), data); err != nil {
		t.Fatalf("process create: %v", err)
	}

	want := []string{"create_account", "initialize_mint", "create_metadata"}
	if !equalCalls(env.calls, want) {
		t.Fatalf("calls %v, want %v", env.calls, want)
	}
	if env.account.Lamports != 1_461_600 || env.account.Space != 82 {
		t.Fatalf("unexpected mint allocation %+v", env.account)
	}
	if env.account.Owner != address.TokenProgramID || env.account.From != f.payer || env.account.New != f.mint {
		t.Fatalf("unexpected mint allocation parties %+v", env.account)
	}
	if env.initMint.Decimals != 0 || env.initMint.MintAuthority != f.authority {
		t.Fatalf("unexpected initialize mint %+v", env.initMint)
	}
	if env.initMint.FreezeAuthority == nil || *env.initMint.FreezeAuthority != f.authority {
		t.Fatalf("freeze authority must equal mint authority")
	}
	md := env.metadata
	if md.Data.Name != "Alpha" || md.Data.Symbol != "ALP" || md.Data.URI != "https://x/a.json" {
		t.Fatalf("metadata fields not forwarded: %+v", md.Data)
	}
	if md.Data.SellerFeeBasisPoints != 0 || !md.IsMutable || !md.UpdateAuthorityIsSigner {
		t.Fatalf("unexpected metadata flags %+v", md)
	}
	if md.UpdateAuthority != f.authority || md.Payer != f.payer || md.Metadata != f.derived.Metadata {
		t.Fatalf("unexpected metadata parties %+v", md)
	}
}

func TestProcessMint_CreatesHolderWhenUnfunded(t *testing.T) {
	f := newFixture(t)
	env := &recorder{}

	if err := New().Process(context.Background(), env, address.DefaultProgramID, f.mintAccounts(), encode(t, instruction.Mint{})); err != nil {
		t.Fatalf("process mint: %v", err)
	}

	want := []string{"create_holder", "mint_to", "create_master_edition"}
	if !equalCalls(env.calls, want) {
		t.Fatalf("calls %v, want %v", env.calls, want)
	}
	if env.holder.Wallet != f.wallet || env.holder.Account != f.derived.Holder || env.holder.Funder != f.payer {
		t.Fatalf("unexpected holder params %+v", env.holder)
	}
	if env.mintTo.Amount != 1 || env.mintTo.Destination != f.derived.Holder || env.mintTo.Authority != f.authority {
		t.Fatalf("unexpected mint_to %+v", env.mintTo)
	}
	if env.edition.MaxSupply == nil || *env.edition.MaxSupply != 1 {
		t.Fatalf("edition max supply must be 1")
	}
	if env.edition.Edition != f.derived.Edition || env.edition.Metadata != f.derived.Metadata {
		t.Fatalf("unexpected edition params %+v", env.edition)
	}
}

func TestProcessMint_SkipsHolderCreationWhenFunded(t *testing.T) {
	f := newFixture(t)
	env := &recorder{}
	accounts := f.mintAccounts()
	accounts[0].Lamports = 2_039_280

	if err := New().Process(context.Background(), env, address.DefaultProgramID, accounts, encode(t, instruction.Mint{})); err != nil {
		t.Fatalf("process mint: %v", err)
	}
	want := []string{"mint_to", "create_master_edition"}
	if !equalCalls(env.calls, want) {
		t.Fatalf("calls %v, want %v", env.calls, want)
	}
}

func TestProcessMint_StrictHolderCheck(t *testing.T) {
	f := newFixture(t)
	accounts := f.mintAccounts()
	accounts[0].Lamports = 1

	env := &recorder{}
	err := New(WithStrictHolderCheck()).Process(context.Background(), env, address.DefaultProgramID, accounts, encode(t, instruction.Mint{}))
	if !errors.Is(err, ErrHolderNotInitialized) {
		t.Fatalf("expected ErrHolderNotInitialized, got %v", err)
	}
	if len(env.calls) != 0 {
		t.Fatalf("no collaborator may run, got %v", env.calls)
	}

	accounts[0].Owner = address.TokenProgramID
	env = &recorder{}
	if err := New(WithStrictHolderCheck()).Process(context.Background(), env, address.DefaultProgramID, accounts, encode(t, instruction.Mint{})); err != nil {
		t.Fatalf("token-owned holder should pass: %v", err)
	}
}

func TestProcess_RejectsBeforeAnyCall(t *testing.T) {
	f := newFixture(t)
	dropSigner := f.createAccounts()
	dropSigner[2].IsSigner = false
	readonlyMint := f.mintAccounts()
	readonlyMint[4].IsWritable = false

	cases := []struct {
		name     string
		accounts []cpi.AccountInfo
		data     []byte
		class    Class
	}{
		{"empty payload", f.createAccounts(), nil, ClassDecoding},
		{"unknown discriminant", f.createAccounts(), []byte{7}, ClassDecoding},
		{"create with too few accounts", f.createAccounts()[:7], encode(t, instruction.Create{}), ClassAccountShape},
		{"create with mint layout", f.mintAccounts(), encode(t, instruction.Create{}), ClassAccountShape},
		{"mint with create layout", f.createAccounts(), encode(t, instruction.Mint{}), ClassAccountShape},
		{"authority not signing", dropSigner, encode(t, instruction.Create{}), ClassAccountShape},
		{"mint not writable", readonlyMint, encode(t, instruction.Mint{}), ClassAccountShape},
	}
	for _, tc := range cases {
		env := &recorder{}
		err := New().Process(context.Background(), env, address.DefaultProgramID, tc.accounts, tc.data)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if got := Classify(err); got != tc.class {
			t.Fatalf("%s: class %q, want %q (%v)", tc.name, got, tc.class, err)
		}
		if len(env.calls) != 0 {
			t.Fatalf("%s: collaborators called: %v", tc.name, env.calls)
		}
	}
}

func TestProcess_StopsAtFailingStep(t *testing.T) {
	f := newFixture(t)
	env := &recorder{failOn: "initialize_mint", failed: fmt.Errorf("boom: %w", cpi.ErrAlreadyInitialized)}
	err := New().Process(context.Background(), env, address.DefaultProgramID, f.createAccounts(), encode(t, instruction.Create{Name: "a"}))

	var se *StepError
	if !errors.As(err, &se) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if se.Instruction != "create" || se.Step != stepInitializeMint {
		t.Fatalf("unexpected step error %+v", se)
	}
	if Classify(err) != ClassCollision {
		t.Fatalf("expected collision class, got %q", Classify(err))
	}
	if !equalCalls(env.calls, []string{"create_account", "initialize_mint"}) {
		t.Fatalf("metadata must not run after failure, calls %v", env.calls)
	}
}

func TestClassify(t *testing.T) {
	cases := map[error]Class{
		nil:                         ClassNone,
		cpi.ErrMissingSignature:     ClassAuthority,
		cpi.ErrMintAuthorityRevoked: ClassAuthority,
		cpi.ErrInsufficientFunds:    ClassFunding,
		cpi.ErrAccountAlreadyInUse:  ClassCollision,
		cpi.ErrEditionSupply:        ClassEdition,
		cpi.ErrInvalidSeeds:         ClassAccountShape,
		errors.New("other"):         ClassUnknown,
	}
	for err, want := range cases {
		if got := Classify(err); got != want {
			t.Fatalf("Classify(%v) = %q, want %q", err, got, want)
		}
	}
}
