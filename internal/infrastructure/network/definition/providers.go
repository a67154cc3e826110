package networkdefinition

import (
	"fmt"
	"sort"

	"staking_hub/internal/app/port"
	"staking_hub/internal/domain/entity"
)

// NetworkDescriptorProvider provides the network descriptors the hub can
// register with a wallet provider.
type NetworkDescriptorProvider struct {
	logger port.Logger
	byID   map[uint64]entity.NetworkDescriptor
}

// Predefined network descriptors
var ( //nolint:gochecknoglobals // Global for definitions
	Sonic = entity.NetworkDescriptor{
		ChainID:    146,
		Name:       "Sonic",
		Identifier: "sonic",
		NativeCurrency: entity.NativeCurrency{
			Name:     "Sonic",
			Symbol:   "S",
			Decimals: 18,
		},
		RPCURLs:           []string{"https://rpc.soniclabs.com"},
		BlockExplorerURLs: []string{"https://sonicscan.org"},
	}
	SonicBlazeTestnet = entity.NetworkDescriptor{
		ChainID:    57054,
		Name:       "Sonic Blaze Testnet",
		Identifier: "sonic-blaze",
		NativeCurrency: entity.NativeCurrency{
			Name:     "Sonic",
			Symbol:   "S",
			Decimals: 18,
		},
		RPCURLs:           []string{"https://rpc.blaze.soniclabs.com"},
		BlockExplorerURLs: []string{"https://testnet.sonicscan.org"},
	}
	Fantom = entity.NetworkDescriptor{
		ChainID:    250,
		Name:       "Fantom Opera",
		Identifier: "fantom",
		NativeCurrency: entity.NativeCurrency{
			Name:     "Fantom",
			Symbol:   "FTM",
			Decimals: 18,
		},
		RPCURLs:           []string{"https://rpcapi.fantom.network"},
		BlockExplorerURLs: []string{"https://ftmscan.com"},
	}
	Ethereum = entity.NetworkDescriptor{
		ChainID:    1,
		Name:       "Ethereum Mainnet",
		Identifier: "ethereum",
		NativeCurrency: entity.NativeCurrency{
			Name:     "Ether",
			Symbol:   "ETH",
			Decimals: 18,
		},
		RPCURLs:           []string{"https://ethereum-rpc.publicnode.com"},
		BlockExplorerURLs: []string{"https://etherscan.io"},
	}
)

var allKnownDescriptors = []entity.NetworkDescriptor{ //nolint:gochecknoglobals
	Sonic,
	SonicBlazeTestnet,
	Fantom,
	Ethereum,
}

// NewNetworkDescriptorProvider creates a provider with the built-in descriptors.
// Entries in overrides replace a built-in descriptor with the same chain id or add new chains.
func NewNetworkDescriptorProvider(log port.Logger, overrides []entity.NetworkDescriptor) *NetworkDescriptorProvider {
	p := &NetworkDescriptorProvider{
		logger: log,
		byID:   make(map[uint64]entity.NetworkDescriptor, len(allKnownDescriptors)+len(overrides)),
	}
	for _, d := range allKnownDescriptors {
		p.byID[d.ChainID] = d
	}
	for _, d := range overrides {
		if _, exists := p.byID[d.ChainID]; exists {
			p.logger.Info(fmt.Sprintf("Network descriptor for chain %d overridden by configuration", d.ChainID), "name", d.Name)
		}
		p.byID[d.ChainID] = d
	}
	p.logger.Debug("NetworkDescriptorProvider initialized", "networks", len(p.byID))
	return p
}

// GetAllNetworkDescriptors returns every known descriptor ordered by chain id.
func (p *NetworkDescriptorProvider) GetAllNetworkDescriptors() []entity.NetworkDescriptor {
	if p == nil {
		return []entity.NetworkDescriptor{}
	}
	out := make([]entity.NetworkDescriptor, 0, len(p.byID))
	for _, d := range p.byID {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}

// GetNetworkDescriptor returns the descriptor registered for chainID.
func (p *NetworkDescriptorProvider) GetNetworkDescriptor(chainID uint64) (entity.NetworkDescriptor, bool) {
	if p == nil {
		return entity.NetworkDescriptor{}, false
	}
	d, ok := p.byID[chainID]
	return d, ok
}
