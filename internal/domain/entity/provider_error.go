package entity

import "fmt"

// EIP-1193 and JSON-RPC error codes the hub distinguishes.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupported       = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnect   = 4901
	CodeUnrecognizedChain = 4902
	CodeRequestPending    = -32002
	CodeInternal          = -32603
)

// ProviderError is an error returned by a wallet provider request.
type ProviderError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}
