package entity

// WalletEventType enumerates the events an EIP-1193 provider emits.
type WalletEventType int

const (
	// AccountsChanged carries the new account list (possibly empty).
	AccountsChanged WalletEventType = iota
	// ChainChanged carries the new chain id.
	ChainChanged
	// ProviderConnected is emitted when the provider becomes reachable.
	ProviderConnected
	// ProviderDisconnected is emitted when the provider stops answering.
	ProviderDisconnected
)

func (t WalletEventType) String() string {
	switch t {
	case AccountsChanged:
		return "accountsChanged"
	case ChainChanged:
		return "chainChanged"
	case ProviderConnected:
		return "connect"
	case ProviderDisconnected:
		return "disconnect"
	default:
		return "unknown"
	}
}

// WalletEvent is a single provider notification.
type WalletEvent struct {
	Type     WalletEventType
	Accounts []string
	ChainID  uint64
	Err      error
}
