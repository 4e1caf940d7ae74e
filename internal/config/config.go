package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig is loaded once at startup from the environment. Write paths
// tolerate a missing contract address by degrading to no-ops, so only the
// RPC endpoint (directly or via a network profile) is required here.
type AppConfig struct {
	Network       string // chain profile name, e.g. "sepolia"
	ChainsFile    string // optional profile override file
	RPCURL        string
	WSURL         string

	ContractAddress string
	AccountAddress  string

	WalletAPIURL string
	WalletAPIKey string
	RelayURL     string

	RedisURL    string
	DatabaseURL string

	FallbackScanMax int
	InviteScanMax   int
	SyncInterval    time.Duration
	InviteInterval  time.Duration

	RequireStrongAuth bool
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Network:           "sepolia",
		FallbackScanMax:   64,
		InviteScanMax:     25,
		SyncInterval:      time.Second,
		InviteInterval:    5 * time.Second,
		RequireStrongAuth: true,
	}

	if v := strings.TrimSpace(os.Getenv("TTT_NETWORK")); v != "" {
		cfg.Network = v
	}
	cfg.ChainsFile = strings.TrimSpace(os.Getenv("TTT_CHAINS_FILE"))
	cfg.RPCURL = strings.TrimSpace(os.Getenv("STARKNET_RPC_URL"))
	cfg.WSURL = strings.TrimSpace(os.Getenv("STARKNET_WS_URL"))

	cfg.ContractAddress = strings.TrimSpace(os.Getenv("TTT_CONTRACT_ADDRESS"))
	cfg.AccountAddress = strings.TrimSpace(os.Getenv("ACCOUNT_ADDRESS"))

	cfg.WalletAPIURL = strings.TrimSpace(os.Getenv("WALLET_API_URL"))
	cfg.WalletAPIKey = strings.TrimSpace(os.Getenv("WALLET_API_KEY"))
	cfg.RelayURL = strings.TrimSpace(os.Getenv("RELAY_EXECUTE_URL"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("TTT_FALLBACK_SCAN_MAX")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FallbackScanMax = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("TTT_INVITE_SCAN_MAX")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.InviteScanMax = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("TTT_SYNC_INTERVAL_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 100 {
			cfg.SyncInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("TTT_INVITE_INTERVAL_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 500 {
			cfg.InviteInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("TTT_REQUIRE_STRONG_AUTH")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RequireStrongAuth = b
		}
	}

	if cfg.Network == "" && cfg.RPCURL == "" {
		return nil, errors.New("either TTT_NETWORK or STARKNET_RPC_URL must be set")
	}
	return cfg, nil
}

// HasWallet reports whether the custodial wallet backend is configured.
func (c *AppConfig) HasWallet() bool { return c != nil && c.WalletAPIURL != "" }

// HasRelay reports whether the external relay backend is configured.
func (c *AppConfig) HasRelay() bool { return c != nil && c.RelayURL != "" }
