package entity

import "github.com/ethereum/go-ethereum/common/hexutil"

// NativeCurrency describes the gas token of a chain.
type NativeCurrency struct {
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}

// NetworkDescriptor holds the metadata needed to register a chain with a wallet provider.
type NetworkDescriptor struct {
	ChainID           uint64         `json:"chainId" yaml:"chainId"`
	Name              string         `json:"name" yaml:"name"`
	Identifier        string         `json:"identifier" yaml:"identifier"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency" yaml:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls" yaml:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls" yaml:"blockExplorerUrls"`
}

// AddChainParams is the single parameter object of wallet_addEthereumChain.
type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// AddChainParams builds the wallet_addEthereumChain parameter for d.
func (d NetworkDescriptor) AddChainParams() AddChainParams {
	return AddChainParams{
		ChainID:           hexutil.EncodeUint64(d.ChainID),
		ChainName:         d.Name,
		NativeCurrency:    d.NativeCurrency,
		RPCURLs:           append([]string(nil), d.RPCURLs...),
		BlockExplorerURLs: append([]string(nil), d.BlockExplorerURLs...),
	}
}
