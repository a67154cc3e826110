package entity

// WalletState is the connection state of the active wallet provider.
// IsConnected is true if and only if Address is non-empty; ChainID is only
// meaningful while connected.
type WalletState struct {
	Address      string `json:"address,omitempty"`
	ChainID      uint64 `json:"chainId,omitempty"`
	WalletID     string `json:"walletId,omitempty"`
	IsConnected  bool   `json:"isConnected"`
	IsConnecting bool   `json:"isConnecting"`
	Error        string `json:"error,omitempty"`
}

// Disconnected returns the zero state with the given error message.
func Disconnected(errMsg string) WalletState {
	return WalletState{Error: errMsg}
}
