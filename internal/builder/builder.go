// Package builder assembles minter instructions with the account order and
// privileges the program expects.
package builder

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"github.com/congo-pay/editionmint/internal/address"
	"github.com/congo-pay/editionmint/internal/instruction"
)

// CreateParams describes a create request.
type CreateParams struct {
	ProgramID     common.PublicKey
	Mint          common.PublicKey
	MintAuthority common.PublicKey
	Payer         common.PublicKey
	Name          string
	Symbol        string
	URI           string
}

// MintParams describes a mint request.
type MintParams struct {
	ProgramID     common.PublicKey
	Mint          common.PublicKey
	MintAuthority common.PublicKey
	Payer         common.PublicKey
	Wallet        common.PublicKey
}

// Create returns the create instruction. The mint key must sign the
// enclosing transaction.
func Create(p CreateParams) (types.Instruction, error) {
	md, err := address.MetadataAddress(p.Mint)
	if err != nil {
		return types.Instruction{}, err
	}
	data, err := instruction.Encode(instruction.Create{Name: p.Name, Symbol: p.Symbol, URI: p.URI})
	if err != nil {
		return types.Instruction{}, fmt.Errorf("build create: %w", err)
	}
	return types.Instruction{
		ProgramID: p.ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: md, IsSigner: false, IsWritable: true},
			{PubKey: p.Mint, IsSigner: true, IsWritable: true},
			{PubKey: p.MintAuthority, IsSigner: true, IsWritable: false},
			{PubKey: p.Payer, IsSigner: true, IsWritable: true},
			{PubKey: address.RentSysvarID, IsSigner: false, IsWritable: false},
			{PubKey: address.SystemProgramID, IsSigner: false, IsWritable: false},
			{PubKey: address.MetadataProgramID, IsSigner: false, IsWritable: false},
			{PubKey: address.TokenProgramID, IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}

// Mint returns the mint instruction for the wallet's derived holder account.
func Mint(p MintParams) (types.Instruction, error) {
	d, err := address.Derive(p.Mint, p.Wallet)
	if err != nil {
		return types.Instruction{}, err
	}
	data, err := instruction.Encode(instruction.Mint{})
	if err != nil {
		return types.Instruction{}, fmt.Errorf("build mint: %w", err)
	}
	return types.Instruction{
		ProgramID: p.ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: d.Holder, IsSigner: false, IsWritable: true},
			{PubKey: address.AssociatedTokenProgramID, IsSigner: false, IsWritable: false},
			{PubKey: d.Edition, IsSigner: false, IsWritable: true},
			{PubKey: d.Metadata, IsSigner: false, IsWritable: true},
			{PubKey: p.Mint, IsSigner: false, IsWritable: true},
			{PubKey: p.MintAuthority, IsSigner: true, IsWritable: false},
			{PubKey: p.Payer, IsSigner: true, IsWritable: true},
			{PubKey: address.RentSysvarID, IsSigner: false, IsWritable: false},
			{PubKey: address.SystemProgramID, IsSigner: false, IsWritable: false},
			{PubKey: address.MetadataProgramID, IsSigner: false, IsWritable: false},
			{PubKey: address.TokenProgramID, IsSigner: false, IsWritable: false},
			{PubKey: p.Wallet, IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}
