package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blocto/solana-go-sdk/common"

	"github.com/congo-pay/editionmint/internal/address"
	"github.com/congo-pay/editionmint/internal/cpi"
	"github.com/congo-pay/editionmint/internal/ledger"
	"github.com/congo-pay/editionmint/internal/programs"
)

// invocation is one instruction executing inside a ledger transaction. It
// resolves collaborators for the program and gives them access to exactly
// the accounts the instruction declared.
type invocation struct {
	tx       ledger.Tx
	rent     cpi.Rent
	signers  map[common.PublicKey]bool
	writable map[common.PublicKey]bool
	declared map[common.PublicKey]bool
	logs     *[]string
	logger   *slog.Logger
	// before holds the lamports each touched account had when first loaded
	// in this transaction, for the balance check at commit.
	before map[common.PublicKey]uint64
}

var (
	_ cpi.Env          = envView{}
	_ programs.Context = (*invocation)(nil)
)

func (inv *invocation) System(id common.PublicKey) (cpi.SystemProgram, error) {
	if id != address.SystemProgramID {
		return nil, fmt.Errorf("%w: %s is not the system program", cpi.ErrIncorrectProgramID, id.ToBase58())
	}
	return programs.NewSystem(inv), nil
}

func (inv *invocation) Token(id common.PublicKey) (cpi.TokenProgram, error) {
	if id != address.TokenProgramID {
		return nil, fmt.Errorf("%w: %s is not the token program", cpi.ErrIncorrectProgramID, id.ToBase58())
	}
	return programs.NewToken(inv), nil
}

func (inv *invocation) AssociatedToken(id common.PublicKey) (cpi.AssociatedTokenProgram, error) {
	if id != address.AssociatedTokenProgramID {
		return nil, fmt.Errorf("%w: %s is not the associated token program", cpi.ErrIncorrectProgramID, id.ToBase58())
	}
	return programs.NewAssociatedToken(inv), nil
}

func (inv *invocation) Metadata(id common.PublicKey) (cpi.MetadataProgram, error) {
	if id != address.MetadataProgramID {
		return nil, fmt.Errorf("%w: %s is not the metadata program", cpi.ErrIncorrectProgramID, id.ToBase58())
	}
	return programs.NewMetadata(inv), nil
}

func (inv *invocation) Rent() cpi.Rent { return inv.rent }

func (inv *invocation) rentSysvar(sysvar common.PublicKey) (cpi.Rent, error) {
	if sysvar != address.RentSysvarID {
		return cpi.Rent{}, fmt.Errorf("%w: %s is not the rent sysvar", cpi.ErrInvalidAccountData, sysvar.ToBase58())
	}
	return inv.rent, nil
}

func (inv *invocation) IsSigner(key common.PublicKey) bool { return inv.signers[key] }

func (inv *invocation) Load(ctx context.Context, key common.PublicKey) (ledger.Account, error) {
	if !inv.declared[key] {
		return ledger.Account{}, fmt.Errorf("%w: %s", cpi.ErrMissingAccount, key.ToBase58())
	}
	acc, err := inv.tx.Get(ctx, key)
	if err != nil {
		return ledger.Account{}, err
	}
	if _, seen := inv.before[key]; !seen {
		inv.before[key] = acc.Lamports
	}
	return acc, nil
}

func (inv *invocation) Store(ctx context.Context, acc ledger.Account) error {
	if !inv.writable[acc.Key] {
		return fmt.Errorf("%w: %s", cpi.ErrReadonlyAccount, acc.Key.ToBase58())
	}
	if _, seen := inv.before[acc.Key]; !seen {
		return fmt.Errorf("%w: %s stored before load", cpi.ErrInvalidAccountData, acc.Key.ToBase58())
	}
	return inv.tx.Put(ctx, acc)
}

func (inv *invocation) Log(msg string, args ...any) {
	line := msg
	for i := 0; i+1 < len(args); i += 2 {
		line += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	*inv.logs = append(*inv.logs, line)
	inv.logger.Debug(msg, args...)
}

// envView adapts an invocation to cpi.Env, whose Rent takes the sysvar key
// while programs.Context's Rent takes none.
type envView struct{ *invocation }

func (e envView) Rent(sysvar common.PublicKey) (cpi.Rent, error) { return e.rentSysvar(sysvar) }
