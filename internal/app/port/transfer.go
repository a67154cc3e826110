package port

import (
	"context"

	"staking_hub/internal/domain/entity"
)

// ProgressFunc receives bulk transfer progress.
type ProgressFunc func(entity.TransferProgress)

// NFTTransferService transfers ERC-721 tokens through the active wallet provider.
type NFTTransferService interface {
	TransferNFT(ctx context.Context, req entity.TransferRequest) entity.TransferResult
	BulkTransferNFTs(ctx context.Context, transfers []entity.TransferRequest, fromAddress string, onProgress ProgressFunc) entity.BulkTransferResult
	EstimateTransferCost(ctx context.Context, req entity.TransferRequest) (entity.GasEstimate, error)
	EstimateBulkTransferCost(ctx context.Context, transfers []entity.TransferRequest, fromAddress string) (entity.BulkGasEstimate, error)
	GetNFTOwner(ctx context.Context, contractAddress, tokenID string) (string, error)
}
