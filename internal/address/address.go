package address

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/mr-tron/base58"
)

// Well-known program and sysvar identities the minter composes.
var (
	SystemProgramID          = common.PublicKeyFromString("11111111111111111111111111111111")
	TokenProgramID           = common.PublicKeyFromString("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID = common.PublicKeyFromString("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	MetadataProgramID        = common.PublicKeyFromString("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
	RentSysvarID             = common.PublicKeyFromString("SysvarRent111111111111111111111111111111111")

	// DefaultProgramID is the address the minter program is deployed at
	// unless PROGRAM_ID overrides it.
	DefaultProgramID = common.PublicKeyFromString("48rXmSB6NfPUBuQodNpDojvTX6XzYAv7btiqZBexMWQe")
)

const (
	metadataSeed = "metadata"
	editionSeed  = "edition"

	keyLength = 32
)

// MetadataAddress derives the metadata record address for a mint.
func MetadataAddress(mint common.PublicKey) (common.PublicKey, error) {
	addr, err := token_metadata.GetTokenMetaPubkey(mint)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("derive metadata address: %w", err)
	}
	return addr, nil
}

// EditionAddress derives the master edition address for a mint.
func EditionAddress(mint common.PublicKey) (common.PublicKey, error) {
	addr, err := token_metadata.GetMasterEdition(mint)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("derive edition address: %w", err)
	}
	return addr, nil
}

// HolderAddress derives the associated token account of wallet for mint.
func HolderAddress(wallet, mint common.PublicKey) (common.PublicKey, error) {
	addr, _, err := common.FindAssociatedTokenAddress(wallet, mint)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("derive holder address: %w", err)
	}
	return addr, nil
}

// MetadataSeeds returns the seeds the metadata program derives records from.
// The edition record appends the "edition" suffix.
func MetadataSeeds(mint common.PublicKey, edition bool) [][]byte {
	seeds := [][]byte{[]byte(metadataSeed), MetadataProgramID.Bytes(), mint.Bytes()}
	if edition {
		seeds = append(seeds, []byte(editionSeed))
	}
	return seeds
}

// Derived bundles every address computable from a mint key, optionally for
// one holder wallet.
type Derived struct {
	Mint     common.PublicKey
	Metadata common.PublicKey
	Edition  common.PublicKey
	Holder   common.PublicKey
}

// Derive computes the metadata and edition addresses for mint and, when
// wallet is non-zero, the holder account.
func Derive(mint, wallet common.PublicKey) (Derived, error) {
	d := Derived{Mint: mint}
	var err error
	if d.Metadata, err = MetadataAddress(mint); err != nil {
		return Derived{}, err
	}
	if d.Edition, err = EditionAddress(mint); err != nil {
		return Derived{}, err
	}
	if wallet != (common.PublicKey{}) {
		if d.Holder, err = HolderAddress(wallet, mint); err != nil {
			return Derived{}, err
		}
	}
	return d, nil
}

// Parse decodes a base58 address and rejects anything that is not 32 bytes.
func Parse(s string) (common.PublicKey, error) {
	if s == "" {
		return common.PublicKey{}, fmt.Errorf("address is required")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(raw) != keyLength {
		return common.PublicKey{}, fmt.Errorf("invalid address %q: want %d bytes, got %d", s, keyLength, len(raw))
	}
	return common.PublicKeyFromBytes(raw), nil
}
