package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/congo-pay/editionmint/internal/address"
	"github.com/congo-pay/editionmint/internal/cluster"
	"github.com/congo-pay/editionmint/internal/keys"
	"github.com/congo-pay/editionmint/internal/nft"
	"github.com/congo-pay/editionmint/internal/notification"
)

type clusterOptions struct {
	RPC       string
	Keypair   string
	ProgramID string
}

func (o *clusterOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.RPC, "rpc", cluster.DefaultEndpoint, "RPC endpoint of the target cluster")
	flags.StringVar(&o.Keypair, "keypair", "data/authority.json", "keypair that pays and signs as mint authority")
	flags.StringVar(&o.ProgramID, "program-id", "", "address the minter program is deployed at")
}

func (o *clusterOptions) service(logger *slog.Logger) (*nft.Service, error) {
	programID, err := parseProgramID(o.ProgramID)
	if err != nil {
		return nil, err
	}
	authority, err := keys.Load(o.Keypair)
	if err != nil {
		return nil, err
	}
	return nft.NewService(cluster.New(o.RPC, logger), programID, authority, notification.NewLoggerNotifier(logger), logger), nil
}

type createCmdOptions struct {
	clusterOptions
	Name   string
	Symbol string
	URI    string
}

func newCreateCommand(logger func() *slog.Logger) *cobra.Command {
	opts := &createCmdOptions{}

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a mint and its metadata",
		Example: `nftctl create --name "Sunrise" --symbol SUN --uri https://example.com/sunrise.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.service(logger())
			if err != nil {
				return err
			}
			out, err := svc.Create(cmd.Context(), nft.CreateInput{Name: opts.Name, Symbol: opts.Symbol, URI: opts.URI})
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{
				"mint":      out.Mint.ToBase58(),
				"metadata":  out.Metadata.ToBase58(),
				"signature": out.Signature,
			})
		},
	}

	opts.bind(cmd)
	flags := cmd.Flags()
	flags.StringVar(&opts.Name, "name", "", "asset name, at most 32 bytes")
	flags.StringVar(&opts.Symbol, "symbol", "", "asset symbol, at most 10 bytes")
	flags.StringVar(&opts.URI, "uri", "", "off-chain metadata uri, at most 200 bytes")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("uri")

	return cmd
}

type mintCmdOptions struct {
	clusterOptions
	Mint   string
	Wallet string
}

func newMintCommand(logger func() *slog.Logger) *cobra.Command {
	opts := &mintCmdOptions{}

	cmd := &cobra.Command{
		Use:     "mint",
		Short:   "Mint the single unit of an asset into a wallet and record its master edition",
		Example: `nftctl mint --mint <MINT> --wallet <WALLET>`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mint, err := address.Parse(opts.Mint)
			if err != nil {
				return fmt.Errorf("--mint: %w", err)
			}
			wallet, err := address.Parse(opts.Wallet)
			if err != nil {
				return fmt.Errorf("--wallet: %w", err)
			}
			svc, err := opts.service(logger())
			if err != nil {
				return err
			}
			out, err := svc.Mint(cmd.Context(), nft.MintInput{Mint: mint, Wallet: wallet})
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{
				"mint":      out.Mint.ToBase58(),
				"holder":    out.Holder.ToBase58(),
				"edition":   out.Edition.ToBase58(),
				"signature": out.Signature,
			})
		},
	}

	opts.bind(cmd)
	flags := cmd.Flags()
	flags.StringVar(&opts.Mint, "mint", "", "mint address")
	flags.StringVar(&opts.Wallet, "wallet", "", "wallet receiving the unit")
	_ = cmd.MarkFlagRequired("mint")
	_ = cmd.MarkFlagRequired("wallet")

	return cmd
}

type assetCmdOptions struct {
	clusterOptions
}

func newAssetCommand(logger func() *slog.Logger) *cobra.Command {
	opts := &assetCmdOptions{}

	cmd := &cobra.Command{
		Use:   "asset MINT",
		Short: "Show the decoded mint, metadata and edition of an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := address.Parse(args[0])
			if err != nil {
				return err
			}
			svc, err := opts.service(logger())
			if err != nil {
				return err
			}
			asset, err := svc.Asset(cmd.Context(), mint)
			if err != nil {
				return err
			}
			view := map[string]any{
				"mint":     asset.Mint.ToBase58(),
				"stage":    asset.Stage,
				"supply":   asset.Supply,
				"decimals": asset.Decimals,
			}
			if asset.MintAuthority != nil {
				view["mint_authority"] = asset.MintAuthority.ToBase58()
			}
			if asset.Metadata != nil {
				view["name"] = asset.Metadata.Name
				view["symbol"] = asset.Metadata.Symbol
				view["uri"] = asset.Metadata.URI
			}
			if asset.Edition != nil {
				view["edition"] = asset.EditionAddress.ToBase58()
			}
			return printJSON(cmd, view)
		},
	}

	opts.bind(cmd)
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
