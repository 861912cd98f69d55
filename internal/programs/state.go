package programs

import (
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"

	"github.com/congo-pay/editionmint/internal/cpi"
)

// Metadata program account discriminators.
const (
	KeyMasterEditionV2 uint8 = 6
	KeyMetadataV1      uint8 = 4
)

// Holder account states.
const (
	HolderUninitialized uint8 = iota
	HolderInitialized
	HolderFrozen
)

// Metadata field limits enforced on create.
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
	MaxFeeBasisPts  = 10000
)

// MintState is the token program's mint record. Optional keys are stored
// as a u32 tag followed by the key so the encoding is always 82 bytes.
type MintState struct {
	MintAuthorityOption   uint32
	MintAuthority         common.PublicKey
	Supply                uint64
	Decimals              uint8
	IsInitialized         bool
	FreezeAuthorityOption uint32
	FreezeAuthority       common.PublicKey
}

// Authority returns the mint authority and whether one is set.
func (m MintState) Authority() (common.PublicKey, bool) {
	return m.MintAuthority, m.MintAuthorityOption == 1
}

// Freeze returns the freeze authority and whether one is set.
func (m MintState) Freeze() (common.PublicKey, bool) {
	return m.FreezeAuthority, m.FreezeAuthorityOption == 1
}

// HolderState is the token program's holder account record, 165 bytes.
type HolderState struct {
	Mint                 common.PublicKey
	Owner                common.PublicKey
	Amount               uint64
	DelegateOption       uint32
	Delegate             common.PublicKey
	State                uint8
	IsNativeOption       uint32
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption uint32
	CloseAuthority       common.PublicKey
}

// MetadataState is the metadata program's descriptive record for one mint.
type MetadataState struct {
	Key                  uint8
	UpdateAuthority      common.PublicKey
	Mint                 common.PublicKey
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	HasCreators          uint8
	PrimarySaleHappened  bool
	IsMutable            bool
}

// EditionState is the master edition record. Supply counts printed copies.
type EditionState struct {
	Key          uint8
	Supply       uint64
	HasMaxSupply uint8
	MaxSupply    uint64
}

// Limit returns the maximum number of prints and whether a limit is set.
func (e EditionState) Limit() (uint64, bool) {
	return e.MaxSupply, e.HasMaxSupply == 1
}

func encode(v any) ([]byte, error) {
	data, err := borsh.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return data, nil
}

func decodeFixed(data []byte, size uint64, v any) error {
	if uint64(len(data)) != size {
		return fmt.Errorf("%w: want %d bytes, got %d", cpi.ErrInvalidAccountData, size, len(data))
	}
	if err := borsh.Deserialize(v, data); err != nil {
		return fmt.Errorf("%w: %v", cpi.ErrInvalidAccountData, err)
	}
	return nil
}

// DecodeMint parses a mint record.
func DecodeMint(data []byte) (MintState, error) {
	var m MintState
	if err := decodeFixed(data, cpi.MintAccountSize, &m); err != nil {
		return MintState{}, err
	}
	return m, nil
}

// DecodeHolder parses a holder account record.
func DecodeHolder(data []byte) (HolderState, error) {
	var h HolderState
	if err := decodeFixed(data, cpi.HolderAccountSize, &h); err != nil {
		return HolderState{}, err
	}
	return h, nil
}

// DecodeMetadata parses a metadata record. Clusters store name, symbol and
// uri NUL padded to their maximum length; the padding is dropped.
func DecodeMetadata(data []byte) (MetadataState, error) {
	var m MetadataState
	if len(data) == 0 {
		return MetadataState{}, cpi.ErrUninitializedAccount
	}
	if err := borsh.Deserialize(&m, data); err != nil {
		return MetadataState{}, fmt.Errorf("%w: %v", cpi.ErrInvalidAccountData, err)
	}
	if m.Key != KeyMetadataV1 {
		return MetadataState{}, fmt.Errorf("%w: metadata key %d", cpi.ErrInvalidAccountData, m.Key)
	}
	m.Name = strings.TrimRight(m.Name, "\x00")
	m.Symbol = strings.TrimRight(m.Symbol, "\x00")
	m.URI = strings.TrimRight(m.URI, "\x00")
	return m, nil
}

// EditionAccountSize is the encoded length of an EditionState. Accounts
// allocated by a cluster carry zero padding after it.
const EditionAccountSize uint64 = 18

// DecodeEdition parses a master edition record from the leading
// EditionAccountSize bytes of data.
func DecodeEdition(data []byte) (EditionState, error) {
	var e EditionState
	if uint64(len(data)) < EditionAccountSize {
		return EditionState{}, fmt.Errorf("%w: want at least %d bytes, got %d", cpi.ErrInvalidAccountData, EditionAccountSize, len(data))
	}
	if err := decodeFixed(data[:EditionAccountSize], EditionAccountSize, &e); err != nil {
		return EditionState{}, err
	}
	if e.Key != KeyMasterEditionV2 {
		return EditionState{}, fmt.Errorf("%w: edition key %d", cpi.ErrInvalidAccountData, e.Key)
	}
	return e, nil
}

func validateData(d cpi.DataV2) error {
	switch {
	case len(d.Name) > MaxNameLength:
		return fmt.Errorf("%w: name exceeds %d bytes", cpi.ErrInvalidMetadata, MaxNameLength)
	case len(d.Symbol) > MaxSymbolLength:
		return fmt.Errorf("%w: symbol exceeds %d bytes", cpi.ErrInvalidMetadata, MaxSymbolLength)
	case len(d.URI) > MaxURILength:
		return fmt.Errorf("%w: uri exceeds %d bytes", cpi.ErrInvalidMetadata, MaxURILength)
	case d.SellerFeeBasisPoints > MaxFeeBasisPts:
		return fmt.Errorf("%w: seller fee exceeds %d basis points", cpi.ErrInvalidMetadata, MaxFeeBasisPts)
	}
	return nil
}
