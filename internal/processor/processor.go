// Package processor is the minter program: it decodes a request and runs the
// create or mint orchestration against the collaborators resolved from env.
package processor

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"

	"github.com/congo-pay/editionmint/internal/cpi"
	"github.com/congo-pay/editionmint/internal/instruction"
)

// Processor dispatches requests to the create and mint handlers. It holds no
// state between requests.
type Processor struct {
	strictHolder bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithStrictHolderCheck makes the mint handler verify that a funded holder
// account is a token account at the derived address instead of trusting a
// nonzero balance.
func WithStrictHolderCheck() Option {
	return func(p *Processor) { p.strictHolder = true }
}

// New constructs a Processor.
func New(opts ...Option) *Processor {
	p := &Processor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process decodes data and invokes exactly one handler. Decoding and account
// validation happen before any collaborator call.
func (p *Processor) Process(ctx context.Context, env cpi.Env, _ common.PublicKey, accounts []cpi.AccountInfo, data []byte) error {
	req, err := instruction.Decode(data)
	if err != nil {
		return err
	}

	switch r := req.(type) {
	case instruction.Create:
		accs, err := ParseCreateAccounts(accounts)
		if err != nil {
			return err
		}
		return p.Create(ctx, env, accs, r)
	case instruction.Mint:
		accs, err := ParseMintAccounts(accounts)
		if err != nil {
			return err
		}
		return p.Mint(ctx, env, accs)
	default:
		return fmt.Errorf("%w: unhandled request %s", instruction.ErrInvalidInstruction, req.Kind())
	}
}
