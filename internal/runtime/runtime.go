// Package runtime executes signed transactions against the account ledger:
// it verifies signatures, serializes writers through account locks, runs
// each instruction's program inside one ledger transaction and records a
// receipt for every executed transaction.
package runtime

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/congo-pay/editionmint/internal/address"
	"github.com/congo-pay/editionmint/internal/cpi"
	"github.com/congo-pay/editionmint/internal/ledger"
	"github.com/congo-pay/editionmint/internal/logging"
	"github.com/congo-pay/editionmint/internal/programs"
)

var (
	// ErrUnknownProgram is returned when an instruction targets an address
	// with no registered program.
	ErrUnknownProgram = errors.New("program not found")
	// ErrBlockhashNotFound is returned for a blockhash outside the recent window.
	ErrBlockhashNotFound = errors.New("blockhash not found")
	// ErrUnbalancedTransaction is returned when executed instructions would
	// create or destroy lamports.
	ErrUnbalancedTransaction = errors.New("sum of account balances changed")
	// ErrFaucetDisabled is returned by Airdrop when no faucet is configured.
	ErrFaucetDisabled = errors.New("faucet disabled")
)

// recentBlockhashes is how many slots a blockhash stays valid.
const recentBlockhashes = 150

// Program executes instructions addressed to its program id.
type Program interface {
	Process(ctx context.Context, env cpi.Env, programID common.PublicKey, accounts []cpi.AccountInfo, data []byte) error
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(ctx context.Context, env cpi.Env, programID common.PublicKey, accounts []cpi.AccountInfo, data []byte) error

// Process implements Program.
func (f ProgramFunc) Process(ctx context.Context, env cpi.Env, programID common.PublicKey, accounts []cpi.AccountInfo, data []byte) error {
	return f(ctx, env, programID, accounts, data)
}

// InstructionError reports which instruction aborted a transaction.
type InstructionError struct {
	Index   int
	Program common.PublicKey
	Err     error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d (%s): %v", e.Index, e.Program.ToBase58(), e.Err)
}

func (e *InstructionError) Unwrap() error { return e.Err }

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. Program log lines are emitted at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

// WithRegistry registers runtime metrics with reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(r *Runtime) { r.registry = reg }
}

// WithRent overrides the rent parameters.
func WithRent(rent cpi.Rent) Option {
	return func(r *Runtime) { r.rent = rent }
}

// WithFaucet makes Airdrop pay out of faucet's system account.
func WithFaucet(faucet types.Account) Option {
	return func(r *Runtime) { r.faucet = &faucet }
}

// Runtime is a single-node executor. It is safe for concurrent use;
// transactions with disjoint writable accounts run in parallel.
type Runtime struct {
	ledger   ledger.Ledger
	programs map[common.PublicKey]Program
	locks    *lockTable
	rent     cpi.Rent
	logger   *slog.Logger
	registry prometheus.Registerer
	metrics  metrics
	faucet   *types.Account

	mu          sync.RWMutex
	slot        uint64
	blockhashes []string
}

// New builds a runtime over l with the system program registered.
func New(l ledger.Ledger, opts ...Option) *Runtime {
	r := &Runtime{
		ledger:   l,
		programs: make(map[common.PublicKey]Program),
		locks:    newLockTable(),
		rent:     cpi.DefaultRent(),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.metrics.init(r.registry)

	genesis := sha256.Sum256([]byte("editionmint genesis"))
	r.blockhashes = []string{base58.Encode(genesis[:])}

	r.Register(address.SystemProgramID, ProgramFunc(func(ctx context.Context, env cpi.Env, id common.PublicKey, accounts []cpi.AccountInfo, data []byte) error {
		sys, err := env.System(id)
		if err != nil {
			return err
		}
		return programs.ProcessSystemInstruction(ctx, sys, accounts, data)
	}))
	return r
}

// Register installs p at programID, replacing any previous program.
func (r *Runtime) Register(programID common.PublicKey, p Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[programID] = p
}

func (r *Runtime) program(id common.PublicKey) (Program, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.programs[id]
	return p, ok
}

// LatestBlockhash returns the blockhash new transactions should reference.
func (r *Runtime) LatestBlockhash() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.blockhashes[len(r.blockhashes)-1]
}

// Slot returns the number of committed transactions.
func (r *Runtime) Slot() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slot
}

func (r *Runtime) isRecent(blockhash string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.blockhashes {
		if h == blockhash {
			return true
		}
	}
	return false
}

func (r *Runtime) advance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slot++
	prev, _ := base58.Decode(r.blockhashes[len(r.blockhashes)-1])
	next := sha256.Sum256(append(prev, byte(r.slot), byte(r.slot>>8), byte(r.slot>>16), byte(r.slot>>24)))
	r.blockhashes = append(r.blockhashes, base58.Encode(next[:]))
	if len(r.blockhashes) > recentBlockhashes {
		r.blockhashes = r.blockhashes[len(r.blockhashes)-recentBlockhashes:]
	}
	r.metrics.slot.Set(float64(r.slot))
}

// Account returns the committed state of key.
func (r *Runtime) Account(ctx context.Context, key common.PublicKey) (ledger.Account, error) {
	return r.ledger.Account(ctx, key)
}

// Receipt returns the recorded outcome of a transaction.
func (r *Runtime) Receipt(ctx context.Context, signature string) (ledger.Receipt, error) {
	return r.ledger.Receipt(ctx, signature)
}

// Send signs ixs with payer and signers against the latest blockhash and
// submits them as one transaction. When execution fails the signature is
// still returned so the failed receipt can be looked up.
func (r *Runtime) Send(ctx context.Context, payer types.Account, signers []types.Account, ixs ...types.Instruction) (string, error) {
	tx := NewTransaction(payer.PublicKey, r.LatestBlockhash(), ixs...)
	if err := tx.Sign(append([]types.Account{payer}, signers...)...); err != nil {
		return "", err
	}
	receipt, err := r.Submit(ctx, tx)
	return receipt.Signature, err
}

// Submit verifies and executes tx. A transaction that fails during execution
// leaves every account unchanged, gets a failed receipt and returns an
// *InstructionError. Transactions rejected before execution get no receipt.
func (r *Runtime) Submit(ctx context.Context, tx *Transaction) (ledger.Receipt, error) {
	if err := tx.Verify(); err != nil {
		return ledger.Receipt{}, err
	}
	if !r.isRecent(tx.RecentBlockhash) {
		return ledger.Receipt{}, fmt.Errorf("%w: %q", ErrBlockhashNotFound, tx.RecentBlockhash)
	}
	for i, ix := range tx.Instructions {
		if _, ok := r.program(ix.ProgramID); !ok {
			return ledger.Receipt{}, &InstructionError{Index: i, Program: ix.ProgramID, Err: ErrUnknownProgram}
		}
	}

	writable := tx.Writable()
	waitStart := time.Now()
	if err := r.locks.acquire(ctx, writable); err != nil {
		return ledger.Receipt{}, err
	}
	defer r.locks.release(writable)
	r.metrics.lockWait.Observe(time.Since(waitStart).Seconds())

	sig := tx.ID()
	if _, err := r.ledger.Receipt(ctx, sig); err == nil {
		return ledger.Receipt{}, ledger.ErrDuplicateTransaction
	} else if !errors.Is(err, ledger.ErrReceiptNotFound) {
		return ledger.Receipt{}, err
	}

	start := time.Now()
	logs, execErr := r.execute(ctx, tx)
	r.metrics.transactionDuration.Observe(time.Since(start).Seconds())

	receipt := ledger.Receipt{Signature: sig, Status: ledger.ReceiptCommitted, Logs: logs, CreatedAt: time.Now().UTC()}
	if execErr != nil {
		receipt.Status = ledger.ReceiptFailed
		receipt.Error = execErr.Error()
		r.logger.Info("transaction failed", "signature", sig, "error", execErr)
	} else {
		r.advance()
		r.logger.Debug("transaction committed", "signature", sig, "instructions", len(tx.Instructions))
	}
	r.metrics.transactionsTotal.WithLabelValues(receipt.Status).Inc()

	if err := r.ledger.RecordReceipt(ctx, receipt); err != nil {
		r.logger.Error("record receipt", "signature", sig, "error", err)
		if execErr == nil {
			return receipt, fmt.Errorf("record receipt: %w", err)
		}
	}
	return receipt, execErr
}

func (r *Runtime) execute(ctx context.Context, tx *Transaction) ([]string, error) {
	ltx, err := r.ledger.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer ltx.Rollback(ctx) // nolint:errcheck

	signers := keySet(tx.Signers())
	writable := keySet(tx.Writable())
	before := make(map[common.PublicKey]uint64)
	var logs []string

	// The fee payer is touched by every transaction.
	if _, err := r.loadTracked(ctx, ltx, before, tx.FeePayer); err != nil {
		return logs, err
	}

	for i, ix := range tx.Instructions {
		program, _ := r.program(ix.ProgramID)
		label := ix.ProgramID.ToBase58()
		logs = append(logs, fmt.Sprintf("Program %s invoke [1]", label))

		inv := &invocation{
			tx:       ltx,
			rent:     r.rent,
			signers:  signers,
			writable: writable,
			declared: make(map[common.PublicKey]bool, len(ix.Accounts)),
			logs:     &logs,
			logger:   r.logger,
			before:   before,
		}
		infos := make([]cpi.AccountInfo, 0, len(ix.Accounts))
		for _, m := range ix.Accounts {
			inv.declared[m.PubKey] = true
		}
		for _, m := range ix.Accounts {
			acc, err := inv.Load(ctx, m.PubKey)
			if err != nil {
				return logs, &InstructionError{Index: i, Program: ix.ProgramID, Err: err}
			}
			infos = append(infos, cpi.AccountInfo{
				Key:        m.PubKey,
				Owner:      acc.Owner,
				Lamports:   acc.Lamports,
				IsSigner:   signers[m.PubKey],
				IsWritable: writable[m.PubKey],
			})
		}

		if err := program.Process(ctx, envView{inv}, ix.ProgramID, infos, ix.Data); err != nil {
			logs = append(logs, fmt.Sprintf("Program %s failed: %v", label, err))
			r.metrics.instructionsTotal.WithLabelValues(label, "failure").Inc()
			return logs, &InstructionError{Index: i, Program: ix.ProgramID, Err: err}
		}
		logs = append(logs, fmt.Sprintf("Program %s success", label))
		r.metrics.instructionsTotal.WithLabelValues(label, "success").Inc()
	}

	if err := checkBalance(ctx, ltx, before); err != nil {
		return logs, err
	}
	if err := ltx.Commit(ctx); err != nil {
		return logs, fmt.Errorf("commit: %w", err)
	}
	return logs, nil
}

func (r *Runtime) loadTracked(ctx context.Context, ltx ledger.Tx, before map[common.PublicKey]uint64, key common.PublicKey) (ledger.Account, error) {
	acc, err := ltx.Get(ctx, key)
	if err != nil {
		return ledger.Account{}, err
	}
	if _, seen := before[key]; !seen {
		before[key] = acc.Lamports
	}
	return acc, nil
}

func checkBalance(ctx context.Context, ltx ledger.Tx, before map[common.PublicKey]uint64) error {
	var was, is uint64
	for key, lamports := range before {
		acc, err := ltx.Get(ctx, key)
		if err != nil {
			return err
		}
		was += lamports
		is += acc.Lamports
	}
	if was != is {
		return fmt.Errorf("%w: before %d, after %d", ErrUnbalancedTransaction, was, is)
	}
	return nil
}

func keySet(keys []common.PublicKey) map[common.PublicKey]bool {
	set := make(map[common.PublicKey]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// Genesis credits key with lamports outside of any transaction. It is meant
// for bootstrapping a faucet or test payers and never creates lamports for
// an account that already exists.
func (r *Runtime) Genesis(ctx context.Context, key common.PublicKey, lamports uint64) error {
	keys := []common.PublicKey{key}
	if err := r.locks.acquire(ctx, keys); err != nil {
		return err
	}
	defer r.locks.release(keys)

	ltx, err := r.ledger.Begin(ctx)
	if err != nil {
		return err
	}
	defer ltx.Rollback(ctx) // nolint:errcheck

	acc, err := ltx.Get(ctx, key)
	if err != nil {
		return err
	}
	if acc.Exists() {
		return nil
	}
	acc.Lamports = lamports
	if err := ltx.Put(ctx, acc); err != nil {
		return err
	}
	return ltx.Commit(ctx)
}

// Airdrop transfers lamports from the faucet to the address and returns the
// transfer's signature.
func (r *Runtime) Airdrop(ctx context.Context, to common.PublicKey, lamports uint64) (string, error) {
	if r.faucet == nil {
		return "", ErrFaucetDisabled
	}
	ix := system.Transfer(system.TransferParam{
		From:   r.faucet.PublicKey,
		To:     to,
		Amount: lamports,
	})
	sig, err := r.Send(ctx, *r.faucet, nil, ix)
	if err != nil {
		return sig, err
	}
	r.metrics.airdropLamports.Add(float64(lamports))
	return sig, nil
}
