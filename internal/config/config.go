package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"staking_hub/internal/domain/entity"
	"staking_hub/internal/pkg/utils"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server    ServerConfig               `yaml:"server"`
	Logging   LoggingConfig              `yaml:"logging"`
	Wallet    WalletConfig               `yaml:"wallet"`
	Networks  []entity.NetworkDescriptor `yaml:"networks"`
	Transfer  TransferConfig             `yaml:"transfer"`
	Explorer  ExplorerConfig             `yaml:"explorer"`
	OKX       OKXConfig                  `yaml:"okx"`
	OpenOcean OpenOceanConfig            `yaml:"openOcean"`
	PaintSwap PaintSwapConfig            `yaml:"paintSwap"`
	KV        KVConfig                   `yaml:"kv"`
	Payment   PaymentConfig              `yaml:"payment"`
	Cache     CacheConfig                `yaml:"cache"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string   `yaml:"port"`
	ReadTimeout  int      `yaml:"readTimeout"`
	WriteTimeout int      `yaml:"writeTimeout"`
	IdleTimeout  int      `yaml:"idleTimeout"`
	AllowOrigins []string `yaml:"allowOrigins"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// WalletProviderConfig describes one JSON-RPC reachable wallet provider.
type WalletProviderConfig struct {
	ID               string   `yaml:"id"`
	RPCURL           string   `yaml:"rpcURL"`
	FallbackURLs     []string `yaml:"fallbackURLs"`
	PollIntervalMs   int64    `yaml:"pollIntervalMs"`
	RequestTimeoutMs int64    `yaml:"requestTimeoutMs"`
}

// WalletConfig holds the wallet connection manager configuration.
type WalletConfig struct {
	DefaultProvider string                 `yaml:"defaultProvider"`
	Providers       []WalletProviderConfig `yaml:"providers"`
	EventBufferSize int                    `yaml:"eventBufferSize"`
	TargetChainID   uint64                 `yaml:"targetChainId"`
	AutoConnect     bool                   `yaml:"autoConnect"`
}

// TransferConfig holds the NFT transfer service configuration.
type TransferConfig struct {
	GasBufferPercent int   `yaml:"gasBufferPercent"`
	PacingDelayMs    int64 `yaml:"pacingDelayMs"`
	MaxBulkItems     int   `yaml:"maxBulkItems"`
}

// ExplorerConfig holds the configuration of the direct chain RPC reader.
type ExplorerConfig struct {
	RPCURL          string `yaml:"rpcURL"`
	ChainID         uint64 `yaml:"chainId"`
	TimeoutMs       int64  `yaml:"timeoutMs"`
	CacheTTLSeconds int    `yaml:"cacheTTLSeconds"`
}

// OKXConfig holds the OKX DEX aggregator configuration. Credentials come from the environment only.
type OKXConfig struct {
	BaseURL              string  `yaml:"baseURL"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	DefaultChainID       string  `yaml:"defaultChainId"`
	RequestsPerSecond    float64 `yaml:"requestsPerSecond"`
	APIKey               string  `yaml:"-"`
	SecretKey            string  `yaml:"-"`
	Passphrase           string  `yaml:"-"`
	ProjectID            string  `yaml:"-"`
}

// Configured reports whether all credentials required for signing are present.
func (c OKXConfig) Configured() bool {
	return c.APIKey != "" && c.SecretKey != "" && c.Passphrase != ""
}

// OpenOceanConfig holds the OpenOcean aggregator configuration.
type OpenOceanConfig struct {
	BaseURL              string `yaml:"baseURL"`
	Chain                string `yaml:"chain"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	APIKey               string `yaml:"-"`
}

// PaintSwapConfig holds the PaintSwap marketplace API configuration.
type PaintSwapConfig struct {
	BaseURL              string `yaml:"baseURL"`
	PageSize             int    `yaml:"pageSize"`
	MaxPages             int    `yaml:"maxPages"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// KVConfig holds the optional REST key-value store used for stats.
type KVConfig struct {
	URL                  string `yaml:"-"`
	Token                string `yaml:"-"`
	StatsKey             string `yaml:"statsKey"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// Enabled reports whether the remote store is configured.
func (c KVConfig) Enabled() bool {
	return c.URL != "" && c.Token != ""
}

// PaymentConfig holds the payment verification configuration.
type PaymentConfig struct {
	ReceiverAddress string `yaml:"receiverAddress"`
	MinAmountWei    string `yaml:"minAmountWei"`
}

// CacheConfig holds configuration for caching.
type CacheConfig struct {
	DefaultExpirationMinutes int `yaml:"defaultExpirationMinutes"`
	CleanupIntervalMinutes   int `yaml:"cleanupIntervalMinutes"`
}

// LoadConfig loads configuration from a YAML file and overlays the environment.
// A missing file is not an error: defaults and environment values are used.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
			return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
		}
	case os.IsNotExist(err):
		logrus.Warnf("Config file %s not found, using defaults and environment", path)
	default:
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnv(&cfg, os.Getenv)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	cfg.OKX.APIKey = getenv("OKX_API_KEY")
	cfg.OKX.SecretKey = getenv("OKX_SECRET_KEY")
	cfg.OKX.Passphrase = getenv("OKX_API_PASSPHRASE")
	cfg.OKX.ProjectID = getenv("OKX_PROJECT_ID")
	cfg.OpenOcean.APIKey = getenv("OPENOCEAN_API_KEY")
	cfg.KV.URL = strings.TrimRight(getenv("KV_REST_API_URL"), "/")
	cfg.KV.Token = getenv("KV_REST_API_TOKEN")
	if v := getenv("PAYMENT_RECEIVER_ADDRESS"); v != "" {
		cfg.Payment.ReceiverAddress = v
	}
	if v := getenv("PORT"); v != "" {
		cfg.Server.Port = ":" + strings.TrimPrefix(v, ":")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		// bulk transfers pace one item per second
		cfg.Server.WriteTimeout = 300
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if len(cfg.Wallet.Providers) == 0 {
		cfg.Wallet.Providers = []WalletProviderConfig{{ID: "frame", RPCURL: "http://127.0.0.1:1248"}}
		logrus.Infof("No wallet providers configured, defaulting to %s", cfg.Wallet.Providers[0].RPCURL)
	}
	for i := range cfg.Wallet.Providers {
		p := &cfg.Wallet.Providers[i]
		if p.ID == "" {
			p.ID = fmt.Sprintf("provider-%d", i)
		}
		if p.PollIntervalMs <= 0 {
			p.PollIntervalMs = 2000
		}
		if p.RequestTimeoutMs <= 0 {
			p.RequestTimeoutMs = 120000 // wallet prompts wait for the user
		}
	}
	if cfg.Wallet.DefaultProvider == "" {
		cfg.Wallet.DefaultProvider = cfg.Wallet.Providers[0].ID
	}
	if cfg.Wallet.EventBufferSize <= 0 {
		cfg.Wallet.EventBufferSize = 16
	}
	if cfg.Wallet.TargetChainID == 0 {
		cfg.Wallet.TargetChainID = 146
	}

	if cfg.Transfer.GasBufferPercent <= 0 {
		cfg.Transfer.GasBufferPercent = 20
	}
	if cfg.Transfer.PacingDelayMs <= 0 {
		cfg.Transfer.PacingDelayMs = 1000
	}
	if cfg.Transfer.MaxBulkItems <= 0 {
		cfg.Transfer.MaxBulkItems = 50
	}

	if cfg.Explorer.RPCURL == "" {
		cfg.Explorer.RPCURL = "https://rpc.soniclabs.com"
	}
	if cfg.Explorer.ChainID == 0 {
		cfg.Explorer.ChainID = cfg.Wallet.TargetChainID
	}
	if cfg.Explorer.TimeoutMs <= 0 {
		cfg.Explorer.TimeoutMs = 10000
	}
	if cfg.Explorer.CacheTTLSeconds <= 0 {
		cfg.Explorer.CacheTTLSeconds = 30
	}

	if cfg.OKX.BaseURL == "" {
		cfg.OKX.BaseURL = "https://web3.okx.com"
	}
	cfg.OKX.BaseURL = strings.TrimRight(cfg.OKX.BaseURL, "/")
	if cfg.OKX.RequestTimeoutMillis <= 0 {
		cfg.OKX.RequestTimeoutMillis = 10000
	}
	if cfg.OKX.DefaultChainID == "" {
		cfg.OKX.DefaultChainID = "146"
	}
	// negative disables the client-side throttle
	if cfg.OKX.RequestsPerSecond == 0 {
		cfg.OKX.RequestsPerSecond = 1
	}

	if cfg.OpenOcean.BaseURL == "" {
		cfg.OpenOcean.BaseURL = "https://open-api-pro.openocean.finance"
	}
	cfg.OpenOcean.BaseURL = strings.TrimRight(cfg.OpenOcean.BaseURL, "/")
	if cfg.OpenOcean.Chain == "" {
		cfg.OpenOcean.Chain = "sonic"
	}
	if cfg.OpenOcean.RequestTimeoutMillis <= 0 {
		cfg.OpenOcean.RequestTimeoutMillis = 10000
	}

	if cfg.PaintSwap.BaseURL == "" {
		cfg.PaintSwap.BaseURL = "https://api.paintswap.finance"
	}
	cfg.PaintSwap.BaseURL = strings.TrimRight(cfg.PaintSwap.BaseURL, "/")
	if cfg.PaintSwap.PageSize <= 0 {
		cfg.PaintSwap.PageSize = 100
	}
	if cfg.PaintSwap.MaxPages <= 0 {
		cfg.PaintSwap.MaxPages = 10
	}
	if cfg.PaintSwap.RequestTimeoutMillis <= 0 {
		cfg.PaintSwap.RequestTimeoutMillis = 10000
	}

	if cfg.KV.StatsKey == "" {
		cfg.KV.StatsKey = "staking-hub:stats"
	}
	if cfg.KV.RequestTimeoutMillis <= 0 {
		cfg.KV.RequestTimeoutMillis = 5000
	}

	if cfg.Cache.DefaultExpirationMinutes <= 0 {
		cfg.Cache.DefaultExpirationMinutes = 5
	}
	if cfg.Cache.CleanupIntervalMinutes <= 0 {
		cfg.Cache.CleanupIntervalMinutes = 10
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Wallet.Providers))
	for _, p := range c.Wallet.Providers {
		if p.RPCURL == "" {
			return fmt.Errorf("wallet provider %q has no rpcURL", p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate wallet provider id %q", p.ID)
		}
		seen[p.ID] = true
	}
	if !seen[c.Wallet.DefaultProvider] {
		return fmt.Errorf("default wallet provider %q is not configured", c.Wallet.DefaultProvider)
	}
	for _, n := range c.Networks {
		if n.ChainID == 0 || len(n.RPCURLs) == 0 {
			return fmt.Errorf("network %q needs chainId and at least one rpc url", n.Name)
		}
	}
	if c.Payment.ReceiverAddress != "" && !utils.IsValidAddress(c.Payment.ReceiverAddress) {
		return fmt.Errorf("invalid payment receiver address %q", c.Payment.ReceiverAddress)
	}
	return nil
}

