package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/common"

	"github.com/congo-pay/editionmint/internal/address"
)

const (
	defaultAppName          = "EditionMint"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultAuthorityKeypair = "data/authority.json"
	defaultFaucetKeypair    = "data/faucet.json"
	defaultGenesisLamports  = 500_000_000_000
	defaultMintRateLimit    = 30
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// ProgramID is the address the minter program is registered at.
	ProgramID common.PublicKey
	// AuthorityKeypair pays for accounts and signs as mint authority.
	AuthorityKeypair string
	// FaucetKeypair funds airdrops on the embedded cluster.
	FaucetKeypair string
	// GenesisLamports seeds the authority and faucet accounts on first boot.
	GenesisLamports   uint64
	FaucetMaxLamports uint64
	APIKeyHash        string
	MintRateLimit     int
	// SolanaRPCURL switches issuance to a remote cluster when set.
	SolanaRPCURL      string
	StrictHolderCheck bool
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           getEnv("APP_ENV", defaultAppEnv),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		ShutdownPeriod:   defaultShutdownDelay,
		IdempotencyTTL:   defaultIdempotencyTTL,
		ProgramID:        address.DefaultProgramID,
		AuthorityKeypair: getEnv("AUTHORITY_KEYPAIR", defaultAuthorityKeypair),
		FaucetKeypair:    getEnv("FAUCET_KEYPAIR", defaultFaucetKeypair),
		GenesisLamports:  defaultGenesisLamports,
		APIKeyHash:       os.Getenv("API_KEY_HASH"),
		MintRateLimit:    defaultMintRateLimit,
		SolanaRPCURL:     os.Getenv("SOLANA_RPC_URL"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("PROGRAM_ID"); v != "" {
		if cfg.ProgramID, err = address.Parse(v); err != nil {
			return Config{}, fmt.Errorf("invalid PROGRAM_ID: %w", err)
		}
	}
	if v := os.Getenv("GENESIS_LAMPORTS"); v != "" {
		if cfg.GenesisLamports, err = strconv.ParseUint(v, 10, 64); err != nil {
			return Config{}, fmt.Errorf("invalid GENESIS_LAMPORTS: %w", err)
		}
	}
	if v := os.Getenv("FAUCET_MAX_LAMPORTS"); v != "" {
		if cfg.FaucetMaxLamports, err = strconv.ParseUint(v, 10, 64); err != nil {
			return Config{}, fmt.Errorf("invalid FAUCET_MAX_LAMPORTS: %w", err)
		}
	}
	if v := os.Getenv("MINT_RATE_LIMIT_PER_MIN"); v != "" {
		if cfg.MintRateLimit, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("invalid MINT_RATE_LIMIT_PER_MIN: %w", err)
		}
	}
	if v := os.Getenv("STRICT_HOLDER_CHECK"); v != "" {
		if cfg.StrictHolderCheck, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("invalid STRICT_HOLDER_CHECK: %w", err)
		}
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.APIKeyHash == "" {
			return Config{}, fmt.Errorf("API_KEY_HASH must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether Postgres, Redis and the API key may be omitted.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func durationEnv(secondsVar, durationVar string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsVar, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationVar, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
