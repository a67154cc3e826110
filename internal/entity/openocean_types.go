package entity

import jsoniter "github.com/json-iterator/go"

// OpenOceanEnvelope is the response wrapper of the OpenOcean v4 API.
type OpenOceanEnvelope struct {
	Code    int                 `json:"code"`
	Message string              `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
	Data    jsoniter.RawMessage `json:"data"`
}

// OpenOceanToken is a token inside a quote.
type OpenOceanToken struct {
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	USD      string `json:"usd,omitempty"`
}

// OpenOceanQuote is the data element of /v4/:chain/quote.
type OpenOceanQuote struct {
	InToken      OpenOceanToken `json:"inToken"`
	OutToken     OpenOceanToken `json:"outToken"`
	InAmount     string         `json:"inAmount"`
	OutAmount    string         `json:"outAmount"`
	EstimatedGas string         `json:"estimatedGas"`
	PriceImpact  string         `json:"price_impact,omitempty"`
}

// OpenOceanSwap is the data element of /v4/:chain/swap.
type OpenOceanSwap struct {
	OpenOceanQuote
	From         string `json:"from"`
	To           string `json:"to"`
	Value        string `json:"value"`
	Data         string `json:"data"`
	GasPrice     string `json:"gasPrice"`
	MinOutAmount string `json:"minOutAmount"`
}

// OpenOceanStatus is served by the proxy status endpoint.
type OpenOceanStatus struct {
	Configured bool     `json:"configured"`
	BaseURL    string   `json:"baseUrl"`
	Chain      string   `json:"chain"`
	Endpoints  []string `json:"endpoints"`
}
