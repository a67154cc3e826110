package port

import (
	"context"
	"encoding/json"

	"staking_hub/internal/domain/entity"
)

// WalletProvider is an EIP-1193 style wallet provider reachable from the backend.
type WalletProvider interface {
	// ID returns the wallet identifier used by Connect (e.g. "frame", "node").
	ID() string

	// Request performs a JSON-RPC request against the provider. Errors carrying an
	// EIP-1193 code are returned as *entity.ProviderError.
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)

	// Subscribe starts delivering provider events to events until the returned
	// function is called.
	Subscribe(events chan<- entity.WalletEvent) (unsubscribe func())
}

// WalletProviderRegistry resolves providers by wallet id.
type WalletProviderRegistry interface {
	Get(walletID string) (WalletProvider, bool)
	Default() (WalletProvider, bool)
	IDs() []string
}

// NetworkDescriptorProvider provides the statically configured network descriptors.
type NetworkDescriptorProvider interface {
	// GetAllNetworkDescriptors returns every supported network.
	GetAllNetworkDescriptors() []entity.NetworkDescriptor

	// GetNetworkDescriptor returns the descriptor for chainID, if the chain is supported.
	GetNetworkDescriptor(chainID uint64) (entity.NetworkDescriptor, bool)
}
