package processor

import (
	"fmt"

	"github.com/congo-pay/editionmint/internal/cpi"
)

// privilege is the minimum access an account position requires. A key that
// repeats in the list carries the union of its privileges, so extra access
// is accepted.
type privilege struct {
	name     string
	writable bool
	signer   bool
}

var createLayout = []privilege{
	{name: "metadata", writable: true},
	{name: "mint", writable: true, signer: true},
	{name: "mint authority", signer: true},
	{name: "payer", writable: true, signer: true},
	{name: "rent sysvar"},
	{name: "system program"},
	{name: "metadata program"},
	{name: "token program"},
}

var mintLayout = []privilege{
	{name: "holder", writable: true},
	{name: "associated token program"},
	{name: "edition", writable: true},
	{name: "metadata", writable: true},
	{name: "mint", writable: true},
	{name: "mint authority", signer: true},
	{name: "payer", writable: true, signer: true},
	{name: "rent sysvar"},
	{name: "system program"},
	{name: "metadata program"},
	{name: "token program"},
	{name: "wallet"},
}

func checkLayout(kind string, layout []privilege, accounts []cpi.AccountInfo) error {
	if len(accounts) != len(layout) {
		return fmt.Errorf("%w: %s expects %d accounts, got %d", ErrAccountShape, kind, len(layout), len(accounts))
	}
	for i, p := range layout {
		acc := accounts[i]
		if p.signer && !acc.IsSigner {
			return fmt.Errorf("%w: %s account %d (%s) must sign", ErrAccountShape, kind, i, p.name)
		}
		if p.writable && !acc.IsWritable {
			return fmt.Errorf("%w: %s account %d (%s) must be writable", ErrAccountShape, kind, i, p.name)
		}
	}
	return nil
}

// CreateAccounts names the positional accounts of a create request.
type CreateAccounts struct {
	Metadata        cpi.AccountInfo
	Mint            cpi.AccountInfo
	MintAuthority   cpi.AccountInfo
	Payer           cpi.AccountInfo
	Rent            cpi.AccountInfo
	SystemProgram   cpi.AccountInfo
	MetadataProgram cpi.AccountInfo
	TokenProgram    cpi.AccountInfo
}

// ParseCreateAccounts validates count and privileges and names each position.
func ParseCreateAccounts(accounts []cpi.AccountInfo) (CreateAccounts, error) {
	if err := checkLayout("create", createLayout, accounts); err != nil {
		return CreateAccounts{}, err
	}
	return CreateAccounts{
		Metadata:        accounts[0],
		Mint:            accounts[1],
		MintAuthority:   accounts[2],
		Payer:           accounts[3],
		Rent:            accounts[4],
		SystemProgram:   accounts[5],
		MetadataProgram: accounts[6],
		TokenProgram:    accounts[7],
	}, nil
}

// MintAccounts names the positional accounts of a mint request.
type MintAccounts struct {
	Holder                 cpi.AccountInfo
	AssociatedTokenProgram cpi.AccountInfo
	Edition                cpi.AccountInfo
	Metadata               cpi.AccountInfo
	Mint                   cpi.AccountInfo
	MintAuthority          cpi.AccountInfo
	Payer                  cpi.AccountInfo
	Rent                   cpi.AccountInfo
	SystemProgram          cpi.AccountInfo
	MetadataProgram        cpi.AccountInfo
	TokenProgram           cpi.AccountInfo
	Wallet                 cpi.AccountInfo
}

// ParseMintAccounts validates count and privileges and names each position.
func ParseMintAccounts(accounts []cpi.AccountInfo) (MintAccounts, error) {
	if err := checkLayout("mint", mintLayout, accounts); err != nil {
		return MintAccounts{}, err
	}
	return MintAccounts{
		Holder:                 accounts[0],
		AssociatedTokenProgram: accounts[1],
		Edition:                accounts[2],
		Metadata:               accounts[3],
		Mint:                   accounts[4],
		MintAuthority:          accounts[5],
		Payer:                  accounts[6],
		Rent:                   accounts[7],
		SystemProgram:          accounts[8],
		MetadataProgram:        accounts[9],
		TokenProgram:           accounts[10],
		Wallet:                 accounts[11],
	}, nil
}
