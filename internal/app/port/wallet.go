package port

import (
	"context"

	"staking_hub/internal/domain/entity"
)

// WalletManager owns the wallet session state.
type WalletManager interface {
	Connect(ctx context.Context, walletID string) (entity.WalletState, error)
	Disconnect() entity.WalletState
	CheckNetwork(ctx context.Context) (uint64, bool)
	RefreshConnection(ctx context.Context) (entity.WalletState, error)
	SwitchNetwork(ctx context.Context, chainID uint64) (entity.WalletState, error)
	State() entity.WalletState
	Subscribe(observer func(entity.WalletState)) (unsubscribe func())
}
