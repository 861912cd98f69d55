package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/common"
)

type inMemoryLedger struct {
	mu       sync.RWMutex
	accounts map[common.PublicKey]Account
	receipts map[string]Receipt
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and local development.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		accounts: make(map[common.PublicKey]Account),
		receipts: make(map[string]Receipt),
	}
}

func (l *inMemoryLedger) Account(_ context.Context, key common.PublicKey) (Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.load(key), nil
}

func (l *inMemoryLedger) load(key common.PublicKey) Account {
	acc, ok := l.accounts[key]
	if !ok {
		return emptyAccount(key)
	}
	return acc.Clone()
}

func (l *inMemoryLedger) Begin(_ context.Context) (Tx, error) {
	return &inMemoryTx{ledger: l, writes: make(map[common.PublicKey]Account)}, nil
}

func (l *inMemoryLedger) RecordReceipt(_ context.Context, r Receipt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.receipts[r.Signature]; exists {
		return ErrDuplicateTransaction
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.Logs = append([]string(nil), r.Logs...)
	l.receipts[r.Signature] = r
	return nil
}

func (l *inMemoryLedger) Receipt(_ context.Context, signature string) (Receipt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.receipts[signature]
	if !ok {
		return Receipt{}, ErrReceiptNotFound
	}
	return r, nil
}

// inMemoryTx buffers writes in an overlay and applies them on Commit.
// Callers serialize conflicting writers; the overlay only provides atomicity.
type inMemoryTx struct {
	ledger *inMemoryLedger
	writes map[common.PublicKey]Account
	closed bool
}

func (t *inMemoryTx) Get(_ context.Context, key common.PublicKey) (Account, error) {
	if t.closed {
		return Account{}, ErrTxClosed
	}
	if acc, ok := t.writes[key]; ok {
		return acc.Clone(), nil
	}
	t.ledger.mu.RLock()
	defer t.ledger.mu.RUnlock()
	return t.ledger.load(key), nil
}

func (t *inMemoryTx) Put(_ context.Context, acc Account) error {
	if t.closed {
		return ErrTxClosed
	}
	t.writes[acc.Key] = acc.Clone()
	return nil
}

func (t *inMemoryTx) Commit(_ context.Context) error {
	if t.closed {
		return ErrTxClosed
	}
	t.closed = true

	t.ledger.mu.Lock()
	defer t.ledger.mu.Unlock()
	for key, acc := range t.writes {
		if !acc.Exists() {
			delete(t.ledger.accounts, key)
			continue
		}
		t.ledger.accounts[key] = acc
	}
	return nil
}

func (t *inMemoryTx) Rollback(_ context.Context) error {
	t.closed = true
	t.writes = nil
	return nil
}
