package client

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"staking_hub/internal/app/port"
	"staking_hub/internal/config"
	"staking_hub/internal/pkg/logger"
)

// WalletProviderRegistry implements port.WalletProviderRegistry.
type WalletProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]port.WalletProvider
	defaultID string
}

// NewWalletProviderRegistry creates an empty registry with the given default wallet id.
func NewWalletProviderRegistry(defaultID string) *WalletProviderRegistry {
	return &WalletProviderRegistry{
		providers: make(map[string]port.WalletProvider),
		defaultID: defaultID,
	}
}

// NewWalletProviderRegistryFromConfig dials every configured provider. A provider
// that cannot be dialed is logged and skipped; the hub degrades to "no provider".
func NewWalletProviderRegistryFromConfig(
	cfg *config.Config,
	loggerInfo func(msg string, args ...any),
	loggerError func(msg string, args ...any),
) *WalletProviderRegistry {
	r := NewWalletProviderRegistry(cfg.Wallet.DefaultProvider)
	for _, pc := range cfg.Wallet.Providers {
		p, err := NewRPCWalletProvider(pc, logger.NewSlogAdapter("WalletProvider"))
		if err != nil {
			loggerError("Failed to create wallet provider", "provider", pc.ID, "error", err)
			continue
		}
		r.Register(p)
		loggerInfo("Wallet provider registered", "provider", pc.ID, "url", pc.RPCURL)
	}
	return r
}

// Register adds or replaces a provider.
func (r *WalletProviderRegistry) Register(p port.WalletProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Get implements port.WalletProviderRegistry.
func (r *WalletProviderRegistry) Get(walletID string) (port.WalletProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[walletID]
	return p, ok
}

// Default implements port.WalletProviderRegistry.
func (r *WalletProviderRegistry) Default() (port.WalletProvider, bool) {
	return r.Get(r.defaultID)
}

// IDs implements port.WalletProviderRegistry.
func (r *WalletProviderRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes every provider that holds resources.
func (r *WalletProviderRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for id, p := range r.providers {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("close wallet provider %s: %w", id, err)
			}
		}
	}
	return firstErr
}
