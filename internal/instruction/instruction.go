// Package instruction defines the minter's request payload: a one byte
// discriminant followed by the Borsh encoding of the variant's arguments.
package instruction

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/near/borsh-go"
)

// Kind is the leading discriminant of an encoded request.
type Kind uint8

const (
	KindCreate Kind = iota
	KindMint
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindMint:
		return "mint"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ErrInvalidInstruction is returned for any payload that does not decode to
// exactly one known request.
var ErrInvalidInstruction = errors.New("invalid instruction data")

// Request is implemented by Create and Mint.
type Request interface {
	Kind() Kind
}

// Create establishes the mint and attaches its metadata.
type Create struct {
	Name   string
	Symbol string
	URI    string
}

// Kind implements Request.
func (Create) Kind() Kind { return KindCreate }

// Mint issues the single unit and locks the edition.
type Mint struct{}

// Kind implements Request.
func (Mint) Kind() Kind { return KindMint }

// Encode serializes req into its wire form.
func Encode(req Request) ([]byte, error) {
	switch r := req.(type) {
	case Create:
		body, err := borsh.Serialize(r)
		if err != nil {
			return nil, fmt.Errorf("encode create: %w", err)
		}
		return append([]byte{byte(KindCreate)}, body...), nil
	case *Create:
		return Encode(*r)
	case Mint, *Mint:
		return []byte{byte(KindMint)}, nil
	default:
		return nil, fmt.Errorf("encode: unsupported request %T", req)
	}
}

// Decode parses data into a Create or Mint. Trailing bytes are rejected.
func Decode(data []byte) (Request, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidInstruction)
	}
	kind, body := Kind(data[0]), data[1:]
	switch kind {
	case KindCreate:
		return decodeCreate(body)
	case KindMint:
		if len(body) != 0 {
			return nil, fmt.Errorf("%w: %d trailing bytes after mint", ErrInvalidInstruction, len(body))
		}
		return Mint{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown discriminant %d", ErrInvalidInstruction, data[0])
	}
}

const createFields = 3

func decodeCreate(body []byte) (Create, error) {
	// Bound every length prefix before handing the body to borsh so a
	// hostile prefix cannot force a large allocation.
	off := 0
	for i := 0; i < createFields; i++ {
		if len(body)-off < 4 {
			return Create{}, fmt.Errorf("%w: truncated string length", ErrInvalidInstruction)
		}
		n := int(binary.LittleEndian.Uint32(body[off:]))
		off += 4
		if n > len(body)-off {
			return Create{}, fmt.Errorf("%w: string length %d exceeds payload", ErrInvalidInstruction, n)
		}
		if !utf8.Valid(body[off : off+n]) {
			return Create{}, fmt.Errorf("%w: string is not valid utf-8", ErrInvalidInstruction)
		}
		off += n
	}
	if off != len(body) {
		return Create{}, fmt.Errorf("%w: %d trailing bytes after create", ErrInvalidInstruction, len(body)-off)
	}

	var args Create
	if err := borsh.Deserialize(&args, body); err != nil {
		return Create{}, fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	return args, nil
}
