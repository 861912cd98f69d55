package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/spf13/cobra"

	"github.com/congo-pay/editionmint/internal/address"
	"github.com/congo-pay/editionmint/internal/keys"
	"github.com/congo-pay/editionmint/internal/middleware"
)

type deriveCmdOptions struct {
	Mint   string
	Wallet string
	Seeds  bool
}

func newDeriveCommand() *cobra.Command {
	opts := &deriveCmdOptions{}

	cmd := &cobra.Command{
		Use:     "derive",
		Short:   "Print the metadata, edition and holder addresses for a mint",
		Example: `nftctl derive --mint <MINT> --wallet <WALLET>`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mint, err := address.Parse(opts.Mint)
			if err != nil {
				return fmt.Errorf("--mint: %w", err)
			}
			out := cmd.OutOrStdout()
			if opts.Seeds {
				if err := printSeeds(out, mint); err != nil {
					return err
				}
			}
			if opts.Wallet == "" {
				md, err := address.MetadataAddress(mint)
				if err != nil {
					return err
				}
				ed, err := address.EditionAddress(mint)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "metadata: %s\nedition:  %s\n", md.ToBase58(), ed.ToBase58())
				return nil
			}
			wallet, err := address.Parse(opts.Wallet)
			if err != nil {
				return fmt.Errorf("--wallet: %w", err)
			}
			d, err := address.Derive(mint, wallet)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "metadata: %s\nedition:  %s\nholder:   %s\n", d.Metadata.ToBase58(), d.Edition.ToBase58(), d.Holder.ToBase58())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Mint, "mint", "", "mint address (base58)")
	flags.StringVar(&opts.Wallet, "wallet", "", "wallet whose holder account to derive")
	flags.BoolVar(&opts.Seeds, "seeds", false, "also print the metadata program seeds and bumps")
	_ = cmd.MarkFlagRequired("mint")

	return cmd
}

func printSeeds(w io.Writer, mint common.PublicKey) error {
	for _, edition := range []bool{false, true} {
		seeds := address.MetadataSeeds(mint, edition)
		_, bump, err := common.FindProgramAddress(seeds, address.MetadataProgramID)
		if err != nil {
			return err
		}
		parts := make([]string, 0, len(seeds))
		for _, s := range seeds {
			if len(s) == common.PublicKeyLength {
				parts = append(parts, common.PublicKeyFromBytes(s).ToBase58())
			} else {
				parts = append(parts, fmt.Sprintf("%q", s))
			}
		}
		label := "metadata"
		if edition {
			label = "edition"
		}
		fmt.Fprintf(w, "%s seeds: [%s] bump %d\n", label, strings.Join(parts, ", "), bump)
	}
	return nil
}

type keygenCmdOptions struct {
	Path string
}

func newKeygenCommand() *cobra.Command {
	opts := &keygenCmdOptions{}

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a keypair file in the Solana CLI format",
		RunE: func(cmd *cobra.Command, _ []string) error {
			acc := types.NewAccount()
			if err := keys.Save(opts.Path, acc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Public key: %s\nKeypair saved at %s\n", acc.PublicKey.ToBase58(), opts.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Path, "out", "data/authority.json", "path to write the keypair to; existing files are never replaced")

	return cmd
}

func newHashKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key [KEY]",
		Short: "Print the API_KEY_HASH value for an API key read from the argument or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read key: %w", err)
				}
				key = strings.TrimSpace(line)
			}
			if key == "" {
				return fmt.Errorf("api key is empty")
			}
			hash, err := middleware.HashAPIKey(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func parseProgramID(s string) (common.PublicKey, error) {
	if s == "" {
		return address.DefaultProgramID, nil
	}
	id, err := address.Parse(s)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("--program-id: %w", err)
	}
	return id, nil
}
