// Package cpi describes the subsystems the minter invokes across program
// boundaries: the system program (account allocation and rent), the token
// program (mint state and balances), the associated token account program
// and the metadata program (descriptive records and editions).
//
// Every call is synchronous. A call either completes or returns an error, and
// a failed call aborts the whole transaction it runs in.
package cpi

import (
	"context"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/token"
)

// Account sizes the token program enforces.
const (
	MintAccountSize   = uint64(token.MintAccountSize)
	HolderAccountSize = uint64(token.TokenAccountSize)
)

// AccountInfo is the view of one instruction account at invocation time.
type AccountInfo struct {
	Key        common.PublicKey
	Owner      common.PublicKey
	Lamports   uint64
	IsSigner   bool
	IsWritable bool
}

// Env resolves collaborators by the program account the caller supplied. A
// program id that does not name the expected subsystem fails with
// ErrIncorrectProgramID.
type Env interface {
	System(programID common.PublicKey) (SystemProgram, error)
	Token(programID common.PublicKey) (TokenProgram, error)
	AssociatedToken(programID common.PublicKey) (AssociatedTokenProgram, error)
	Metadata(programID common.PublicKey) (MetadataProgram, error)
	Rent(sysvar common.PublicKey) (Rent, error)
	Log(msg string, args ...any)
}

// CreateAccountParams allocates New with Space zeroed bytes owned by Owner,
// funded with Lamports taken from From. Both From and New must sign.
type CreateAccountParams struct {
	From     common.PublicKey
	New      common.PublicKey
	Lamports uint64
	Space    uint64
	Owner    common.PublicKey
}

// TransferParams moves Lamports from a signing system account to To.
type TransferParams struct {
	From     common.PublicKey
	To       common.PublicKey
	Lamports uint64
}

// SystemProgram allocates accounts and moves lamports.
type SystemProgram interface {
	CreateAccount(ctx context.Context, p CreateAccountParams) error
	Transfer(ctx context.Context, p TransferParams) error
}

// InitializeMintParams turns an allocated account into a mint.
type InitializeMintParams struct {
	Mint            common.PublicKey
	Decimals        uint8
	MintAuthority   common.PublicKey
	FreezeAuthority *common.PublicKey
}

// MintToParams issues Amount new units of Mint into Destination. Authority
// must equal the mint authority and sign.
type MintToParams struct {
	Mint        common.PublicKey
	Destination common.PublicKey
	Authority   common.PublicKey
	Amount      uint64
}

// TokenProgram owns mint records and holder accounts.
type TokenProgram interface {
	InitializeMint(ctx context.Context, p InitializeMintParams) error
	MintTo(ctx context.Context, p MintToParams) error
}

// CreateAssociatedAccountParams creates the holder account of Wallet for
// Mint at Account, which must equal the derived associated address.
type CreateAssociatedAccountParams struct {
	Funder       common.PublicKey
	Account      common.PublicKey
	Wallet       common.PublicKey
	Mint         common.PublicKey
	TokenProgram common.PublicKey
}

// AssociatedTokenProgram creates holder accounts at derived addresses.
type AssociatedTokenProgram interface {
	Create(ctx context.Context, p CreateAssociatedAccountParams) error
}

// DataV2 is the descriptive payload of a metadata record. Creators,
// collection and uses are always absent for records this minter writes.
type DataV2 struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
}

// CreateMetadataParams creates the metadata record of Mint. MintAuthority
// must be the mint's current authority and sign.
type CreateMetadataParams struct {
	Metadata                common.PublicKey
	Mint                    common.PublicKey
	MintAuthority           common.PublicKey
	Payer                   common.PublicKey
	UpdateAuthority         common.PublicKey
	UpdateAuthorityIsSigner bool
	Data                    DataV2
	IsMutable               bool
}

// CreateMasterEditionParams creates the master edition of Mint.
type CreateMasterEditionParams struct {
	Edition         common.PublicKey
	Mint            common.PublicKey
	UpdateAuthority common.PublicKey
	MintAuthority   common.PublicKey
	Payer           common.PublicKey
	Metadata        common.PublicKey
	TokenProgram    common.PublicKey
	MaxSupply       *uint64
}

// MetadataProgram owns metadata and edition records.
type MetadataProgram interface {
	CreateMetadataAccount(ctx context.Context, p CreateMetadataParams) error

	// CreateMasterEdition requires the mint to hold exactly one unit with
	// zero decimals. On success the mint's mint authority and freeze
	// authority both equal Edition, so no key can issue or freeze the
	// asset again. Callers rely on this post-condition to cap supply.
	CreateMasterEdition(ctx context.Context, p CreateMasterEditionParams) error
}
