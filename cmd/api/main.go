package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "go.uber.org/automaxprocs"

	"github.com/congo-pay/editionmint/internal/cluster"
	"github.com/congo-pay/editionmint/internal/config"
	"github.com/congo-pay/editionmint/internal/faucet"
	"github.com/congo-pay/editionmint/internal/infra"
	"github.com/congo-pay/editionmint/internal/keys"
	"github.com/congo-pay/editionmint/internal/logging"
	"github.com/congo-pay/editionmint/internal/nft"
	"github.com/congo-pay/editionmint/internal/notification"
	"github.com/congo-pay/editionmint/internal/processor"
	"github.com/congo-pay/editionmint/internal/routes"
	"github.com/congo-pay/editionmint/internal/runtime"
	"github.com/congo-pay/editionmint/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	accounts, db, err := infra.OpenLedger(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("open ledger", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	}

	authority, created, err := keys.LoadOrCreate(cfg.AuthorityKeypair)
	if err != nil {
		logger.Error("load authority keypair", "error", err)
		os.Exit(1)
	}
	if created {
		logger.Info("generated authority keypair", "path", cfg.AuthorityKeypair, "address", authority.PublicKey.ToBase58())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger, Gatherer: registry}

	notifiers := notification.Fanout{notification.NewLoggerNotifier(logger)}
	if cache != nil {
		notifiers = append(notifiers, notification.NewRedisNotifier(cache, ""))
	}

	var chain nft.Chain
	if cfg.SolanaRPCURL != "" {
		logger.Info("issuing against remote cluster", "rpc", cfg.SolanaRPCURL, "program", cfg.ProgramID.ToBase58())
		chain = cluster.New(cfg.SolanaRPCURL, logger)
	} else {
		faucetKey, _, err := keys.LoadOrCreate(cfg.FaucetKeypair)
		if err != nil {
			logger.Error("load faucet keypair", "error", err)
			os.Exit(1)
		}
		rt := runtime.New(accounts,
			runtime.WithLogger(logger),
			runtime.WithRegistry(registry),
			runtime.WithFaucet(faucetKey),
		)
		var opts []processor.Option
		if cfg.StrictHolderCheck {
			opts = append(opts, processor.WithStrictHolderCheck())
		}
		rt.Register(cfg.ProgramID, processor.New(opts...))
		for _, acc := range []types.Account{authority, faucetKey} {
			if err := rt.Genesis(ctx, acc.PublicKey, cfg.GenesisLamports); err != nil {
				logger.Error("genesis", "address", acc.PublicKey.ToBase58(), "error", err)
				os.Exit(1)
			}
		}
		chain = rt
		deps.Faucet = faucet.NewService(rt, cfg.FaucetMaxLamports)
		deps.Slot = rt.Slot
	}
	deps.NFTs = nft.NewService(chain, cfg.ProgramID, authority, notifiers, logger)

	srv, err := server.New(deps)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
