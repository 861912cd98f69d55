package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// PostgresLedger persists accounts and receipts in PostgreSQL. Each Tx is a
// database transaction; rows are locked FOR UPDATE on first read.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Account returns the committed state of key.
func (l *PostgresLedger) Account(ctx context.Context, key common.PublicKey) (Account, error) {
	const query = `SELECT owner, lamports, data FROM accounts WHERE address = $1`
	return scanAccount(key, l.db.QueryRow(ctx, query, key.ToBase58()))
}

// Begin opens a database transaction.
func (l *PostgresLedger) Begin(ctx context.Context) (Tx, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	return &postgresTx{tx: tx}, nil
}

// RecordReceipt stores the outcome of a transaction once per signature.
func (l *PostgresLedger) RecordReceipt(ctx context.Context, r Receipt) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	logs := r.Logs
	if logs == nil {
		logs = []string{}
	}
	_, err := l.db.Exec(ctx, `INSERT INTO receipts (signature, status, error, logs, created_at)
        VALUES ($1, $2, $3, $4, $5)`, r.Signature, r.Status, r.Error, logs, r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateTransaction
		}
		return err
	}
	return nil
}

// Receipt loads the receipt recorded for signature.
func (l *PostgresLedger) Receipt(ctx context.Context, signature string) (Receipt, error) {
	const query = `SELECT signature, status, error, logs, created_at FROM receipts WHERE signature = $1`
	var r Receipt
	err := l.db.QueryRow(ctx, query, signature).Scan(&r.Signature, &r.Status, &r.Error, &r.Logs, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Receipt{}, ErrReceiptNotFound
		}
		return Receipt{}, err
	}
	return r, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Get(ctx context.Context, key common.PublicKey) (Account, error) {
	const query = `SELECT owner, lamports, data FROM accounts WHERE address = $1 FOR UPDATE`
	return scanAccount(key, t.tx.QueryRow(ctx, query, key.ToBase58()))
}

func (t *postgresTx) Put(ctx context.Context, acc Account) error {
	if !acc.Exists() {
		_, err := t.tx.Exec(ctx, `DELETE FROM accounts WHERE address = $1`, acc.Key.ToBase58())
		return err
	}
	if acc.Lamports > math.MaxInt64 {
		return fmt.Errorf("account %s: lamports %d exceed storage range", acc.Key.ToBase58(), acc.Lamports)
	}
	data := acc.Data
	if data == nil {
		data = []byte{}
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO accounts (address, owner, lamports, data, updated_at)
        VALUES ($1, $2, $3, $4, now())
        ON CONFLICT (address) DO UPDATE
        SET owner = EXCLUDED.owner, lamports = EXCLUDED.lamports, data = EXCLUDED.data, updated_at = now()`,
		acc.Key.ToBase58(), acc.Owner.ToBase58(), int64(acc.Lamports), data)
	return err
}

func (t *postgresTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return ErrTxClosed
		}
		return err
	}
	return nil
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

func scanAccount(key common.PublicKey, row pgx.Row) (Account, error) {
	var (
		owner    string
		lamports int64
		data     []byte
	)
	if err := row.Scan(&owner, &lamports, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return emptyAccount(key), nil
		}
		return Account{}, err
	}
	return Account{
		Key:      key,
		Owner:    common.PublicKeyFromString(owner),
		Lamports: uint64(lamports),
		Data:     data,
	}, nil
}
