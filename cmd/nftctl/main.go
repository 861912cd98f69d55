// Command nftctl derives minter addresses, manages keypairs, issues assets
// against an RPC cluster and migrates the ledger schema.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/congo-pay/editionmint/internal/logging"
)

type globalOptions struct {
	LogLevel string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "nftctl",
		Short:         "Operate the single-edition NFT minter",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.LogLevel, "log-level", "warn", "log level for diagnostics written to stderr")

	logger := func() *slog.Logger { return logging.NewWithWriter(opts.LogLevel, os.Stderr) }

	cmd.AddCommand(
		newDeriveCommand(),
		newKeygenCommand(),
		newHashKeyCommand(),
		newCreateCommand(logger),
		newMintCommand(logger),
		newAssetCommand(logger),
		newMigrateCommand(),
	)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
