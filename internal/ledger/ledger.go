package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/blocto/solana-go-sdk/common"
)

var (
	// ErrDuplicateTransaction indicates a receipt already exists for the
	// signature, so the transaction must not be executed again.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrReceiptNotFound is returned when no transaction with the signature
	// was ever recorded.
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrTxClosed is returned when a transaction is used after Commit or Rollback.
	ErrTxClosed = errors.New("ledger transaction closed")
)

const (
	// ReceiptCommitted marks a transaction whose writes were applied.
	ReceiptCommitted = "committed"
	// ReceiptFailed marks a transaction that was rolled back.
	ReceiptFailed = "failed"
)

// Account is the stored state of one address. An address with no lamports
// does not exist; reading it yields an empty account owned by the system
// program.
type Account struct {
	Key      common.PublicKey
	Owner    common.PublicKey
	Lamports uint64
	Data     []byte
}

// Exists reports whether the account is live.
func (a Account) Exists() bool {
	return a.Lamports != 0
}

// Clone returns a copy that shares no memory with a.
func (a Account) Clone() Account {
	if a.Data != nil {
		a.Data = append([]byte(nil), a.Data...)
	}
	return a
}

// Receipt captures the outcome of one executed transaction.
type Receipt struct {
	Signature string
	Status    string
	Error     string
	Logs      []string
	CreatedAt time.Time
}

// Tx is an isolated view of the account store. Writes become visible to
// other readers only after Commit. Rollback after Commit is a no-op.
type Tx interface {
	Get(ctx context.Context, key common.PublicKey) (Account, error)
	Put(ctx context.Context, acc Account) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Ledger defines the contract implemented by account store backends.
type Ledger interface {
	Account(ctx context.Context, key common.PublicKey) (Account, error)
	Begin(ctx context.Context) (Tx, error)
	RecordReceipt(ctx context.Context, r Receipt) error
	Receipt(ctx context.Context, signature string) (Receipt, error)
}

func emptyAccount(key common.PublicKey) Account {
	return Account{Key: key, Owner: common.SystemProgramID}
}
