// Package cluster submits minter transactions to a remote Solana cluster over
// JSON-RPC, for deployments where the program runs on a real validator
// instead of the embedded runtime.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"

	"github.com/congo-pay/editionmint/internal/ledger"
	"github.com/congo-pay/editionmint/internal/logging"
)

// DefaultEndpoint is used when no RPC URL is configured.
const DefaultEndpoint = rpc.DevnetRPCEndpoint

// Client talks to one RPC endpoint.
type Client struct {
	rpc    *client.Client
	logger *slog.Logger
}

// New returns a client for endpoint, falling back to devnet when empty.
func New(endpoint string, logger *slog.Logger) *Client {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{rpc: client.NewClient(endpoint), logger: logger}
}

// Send signs ixs with payer and signers against the cluster's latest
// blockhash and submits them as one transaction.
func (c *Client) Send(ctx context.Context, payer types.Account, signers []types.Account, ixs ...types.Instruction) (string, error) {
	latest, err := c.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("cluster: get latest blockhash: %w", err)
	}
	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: append([]types.Account{payer}, signers...),
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        payer.PublicKey,
			RecentBlockhash: latest.Blockhash,
			Instructions:    ixs,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("cluster: build transaction: %w", err)
	}
	sig, err := c.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("cluster: send transaction: %w", err)
	}
	c.logger.Info("transaction submitted", "signature", sig, "instructions", len(ixs))
	return sig, nil
}

// Account fetches the current state of key. Missing accounts come back
// empty, matching the embedded ledger.
func (c *Client) Account(ctx context.Context, key common.PublicKey) (ledger.Account, error) {
	info, err := c.rpc.GetAccountInfo(ctx, key.ToBase58())
	if err != nil {
		if isNotFound(err) {
			return ledger.Account{Key: key, Owner: common.SystemProgramID}, nil
		}
		return ledger.Account{}, fmt.Errorf("cluster: get account %s: %w", key.ToBase58(), err)
	}
	if info.Lamports == 0 {
		return ledger.Account{Key: key, Owner: common.SystemProgramID}, nil
	}
	return ledger.Account{Key: key, Owner: info.Owner, Lamports: info.Lamports, Data: info.Data}, nil
}

// Receipt reports the cluster's view of a submitted transaction. Logs are
// not fetched.
func (c *Client) Receipt(ctx context.Context, signature string) (ledger.Receipt, error) {
	status, err := c.rpc.GetSignatureStatus(ctx, signature)
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("cluster: get signature status: %w", err)
	}
	if status == nil {
		return ledger.Receipt{}, ledger.ErrReceiptNotFound
	}
	receipt := ledger.Receipt{Signature: signature, Status: ledger.ReceiptCommitted}
	if status.Err != nil {
		receipt.Status = ledger.ReceiptFailed
		receipt.Error = fmt.Sprint(status.Err)
	}
	return receipt, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "could not find account") ||
		strings.Contains(msg, "account does not exist")
}
