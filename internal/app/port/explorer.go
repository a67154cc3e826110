package port

import (
	"context"
	"math/big"

	"staking_hub/internal/domain/entity"
)

// ChainExplorer reads transactions and blocks directly from the chain RPC.
type ChainExplorer interface {
	GetTransaction(ctx context.Context, hash string) (entity.TransactionDetails, error)
	BlockNumber(ctx context.Context) (uint64, error)
	LatestBlock(ctx context.Context) (entity.BlockSummary, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	VerifyPayment(ctx context.Context, hash string, minValueWei *big.Int) (entity.PaymentVerification, error)
}

// StatsService maintains the cached hub statistics.
type StatsService interface {
	Update(ctx context.Context) (entity.HubStats, error)
	Get(ctx context.Context) (entity.HubStats, error)
	RecordTransfer(success bool)
}
