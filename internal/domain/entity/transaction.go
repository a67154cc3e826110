package entity

// TransactionDetails is a transaction joined with its receipt.
type TransactionDetails struct {
	Hash          string `json:"hash"`
	From          string `json:"from"`
	To            string `json:"to,omitempty"`
	ValueWei      string `json:"valueWei"`
	Value         string `json:"value"`
	Nonce         uint64 `json:"nonce"`
	Pending       bool   `json:"pending"`
	BlockNumber   uint64 `json:"blockNumber,omitempty"`
	Status        string `json:"status"`
	GasUsed       uint64 `json:"gasUsed,omitempty"`
	Confirmations uint64 `json:"confirmations"`
}

// Transaction statuses.
const (
	TxStatusPending = "pending"
	TxStatusSuccess = "success"
	TxStatusFailed  = "failed"
)

// BlockSummary is the subset of a block the hub displays.
type BlockSummary struct {
	Number       uint64 `json:"number"`
	Hash         string `json:"hash"`
	Timestamp    uint64 `json:"timestamp"`
	Transactions int    `json:"transactions"`
	GasUsed      uint64 `json:"gasUsed"`
	BaseFeeWei   string `json:"baseFeeWei,omitempty"`
}

// PaymentVerification is the outcome of checking a payment transaction.
type PaymentVerification struct {
	Valid    bool   `json:"valid"`
	TxHash   string `json:"txHash"`
	From     string `json:"from,omitempty"`
	ValueWei string `json:"valueWei,omitempty"`
	Reason   string `json:"reason,omitempty"`
}
