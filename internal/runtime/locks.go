package runtime

import (
	"context"
	"sync"

	"github.com/blocto/solana-go-sdk/common"
)

// lockTable hands out exclusive locks on writable accounts. A transaction
// takes all of its locks at once or waits, so two transactions can never
// hold overlapping subsets and deadlock.
type lockTable struct {
	mu     sync.Mutex
	cond   *sync.Cond
	locked map[common.PublicKey]struct{}
}

func newLockTable() *lockTable {
	t := &lockTable{locked: make(map[common.PublicKey]struct{})}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// acquire blocks until every key is free, then marks them all held. It
// returns ctx.Err() if ctx ends first.
func (t *lockTable) acquire(ctx context.Context, keys []common.PublicKey) error {
	stop := context.AfterFunc(ctx, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.cond.Broadcast()
	})
	defer stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	for !t.free(keys) {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.cond.Wait()
	}
	for _, k := range keys {
		t.locked[k] = struct{}{}
	}
	return nil
}

func (t *lockTable) free(keys []common.PublicKey) bool {
	for _, k := range keys {
		if _, held := t.locked[k]; held {
			return false
		}
	}
	return true
}

func (t *lockTable) release(keys []common.PublicKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range keys {
		delete(t.locked, k)
	}
	t.cond.Broadcast()
}

func (t *lockTable) held() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locked)
}
