package entity

import "math/big"

// TransferRequest is one ERC-721 transfer.
type TransferRequest struct {
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenId"`
	FromAddress     string `json:"fromAddress"`
	ToAddress       string `json:"toAddress"`
}

// TransferResult is the outcome of a single transfer attempt.
type TransferResult struct {
	Success bool   `json:"success"`
	TxHash  string `json:"txHash,omitempty"`
	Error   string `json:"error,omitempty"`
	GasUsed string `json:"gasUsed,omitempty"`
	GasCost string `json:"gasCost,omitempty"`

	GasCostWei *big.Int `json:"-"`
}

// BulkTransferEntry pairs a request with its result.
type BulkTransferEntry struct {
	TransferRequest
	TransferResult
}

// BulkTransferSummary counts the outcomes of a batch.
type BulkTransferSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// BulkTransferResult aggregates a sequential batch of transfers.
type BulkTransferResult struct {
	Successful   []BulkTransferEntry `json:"successful"`
	Failed       []BulkTransferEntry `json:"failed"`
	TotalGasCost string              `json:"totalGasCost"`
	Summary      BulkTransferSummary `json:"summary"`
}

// TransferProgress is reported before every item and once after the batch.
type TransferProgress struct {
	Current int              `json:"current"`
	Total   int              `json:"total"`
	Item    *TransferRequest `json:"item,omitempty"`
	Done    bool             `json:"done"`
}

// GasEstimate is the cost of one transfer.
type GasEstimate struct {
	GasLimit   string `json:"gasLimit"`
	GasPrice   string `json:"gasPrice"`
	CostWei    string `json:"costWei"`
	Cost       string `json:"cost"`
	CostSymbol string `json:"costSymbol,omitempty"`
}

// BulkGasEstimate is the cost of a batch. Approximate is set when some items
// could not be estimated individually and reuse another item's estimate.
type BulkGasEstimate struct {
	Items       int           `json:"items"`
	TotalGas    string        `json:"totalGas"`
	GasPrice    string        `json:"gasPrice"`
	TotalWei    string        `json:"totalWei"`
	Total       string        `json:"total"`
	PerItem     []GasEstimate `json:"perItem"`
	Approximate bool          `json:"approximate"`
}
