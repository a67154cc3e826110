package entity

import jsoniter "github.com/json-iterator/go"

// OKXEnvelope is the common response wrapper of the OKX Web3 API.
type OKXEnvelope struct {
	Code string              `json:"code"`
	Msg  string              `json:"msg"`
	Data jsoniter.RawMessage `json:"data"`
}

// OKXChain is an entry of /api/v5/dex/aggregator/supported/chain.
type OKXChain struct {
	ChainID                string `json:"chainId"`
	ChainIndex             string `json:"chainIndex"`
	ChainName              string `json:"chainName"`
	DexTokenApproveAddress string `json:"dexTokenApproveAddress"`
}

// OKXToken is an entry of /api/v5/dex/aggregator/all-tokens.
type OKXToken struct {
	Decimals             string `json:"decimals"`
	TokenContractAddress string `json:"tokenContractAddress"`
	TokenLogoURL         string `json:"tokenLogoUrl"`
	TokenName            string `json:"tokenName"`
	TokenSymbol          string `json:"tokenSymbol"`
}

// OKXQuoteToken is a token inside a quote.
type OKXQuoteToken struct {
	Decimal              string `json:"decimal"`
	TokenContractAddress string `json:"tokenContractAddress"`
	TokenSymbol          string `json:"tokenSymbol"`
	TokenUnitPrice       string `json:"tokenUnitPrice"`
}

// OKXDexRouter is one hop of the routing path.
type OKXDexRouter struct {
	Router        string `json:"router"`
	RouterPercent string `json:"routerPercent"`
}

// OKXQuote is the data element of /api/v5/dex/aggregator/quote.
type OKXQuote struct {
	ChainID         string         `json:"chainId"`
	DexRouterList   []OKXDexRouter `json:"dexRouterList"`
	EstimateGasFee  string         `json:"estimateGasFee"`
	FromToken       OKXQuoteToken  `json:"fromToken"`
	ToToken         OKXQuoteToken  `json:"toToken"`
	FromTokenAmount string         `json:"fromTokenAmount"`
	ToTokenAmount   string         `json:"toTokenAmount"`
	PriceImpactPct  string         `json:"priceImpactPercentage"`
	TradeFee        string         `json:"tradeFee"`
}

// OKXSwapTx is the transaction to submit for a swap.
type OKXSwapTx struct {
	Data                 string `json:"data"`
	From                 string `json:"from"`
	Gas                  string `json:"gas"`
	GasPrice             string `json:"gasPrice"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	MinReceiveAmount     string `json:"minReceiveAmount"`
	To                   string `json:"to"`
	Value                string `json:"value"`
}

// OKXSwap is the data element of /api/v5/dex/aggregator/swap.
type OKXSwap struct {
	RouterResult OKXQuote  `json:"routerResult"`
	Tx           OKXSwapTx `json:"tx"`
}

// OKXCredentialsStatus reports which OKX credentials are present, never their values.
type OKXCredentialsStatus struct {
	Configured    bool `json:"configured"`
	HasAPIKey     bool `json:"hasApiKey"`
	HasSecretKey  bool `json:"hasSecretKey"`
	HasPassphrase bool `json:"hasPassphrase"`
	HasProjectID  bool `json:"hasProjectId"`
}
