package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"staking_hub/internal/app/port"
	"staking_hub/internal/config"
	"staking_hub/internal/domain/entity"
	"staking_hub/internal/pkg/utils"
)

var (
	// ErrInvalidTxHash is returned for anything that is not 0x followed by 64 hex characters.
	ErrInvalidTxHash = errors.New("invalid transaction hash")
	// ErrTransactionNotFound is returned when the node does not know the transaction.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrPaymentNotConfigured is returned when no payment receiver is configured.
	ErrPaymentNotConfigured = errors.New("payment receiver not configured")
)

// ChainReader is the subset of ethclient.Client the explorer reads through.
type ChainReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionSender(ctx context.Context, tx *types.Transaction, block common.Hash, index uint) (common.Address, error)
}

type chainExplorerImpl struct {
	reader     ChainReader
	chainID    *big.Int
	receiver   string
	minPayment *big.Int
	txCache    *cache.Cache
	logger     *zap.Logger
}

// NewChainExplorer creates the direct-RPC chain reader. Mined transactions are
// cached; confirmations are always recomputed.
func NewChainExplorer(reader ChainReader, explorerCfg config.ExplorerConfig, paymentCfg config.PaymentConfig, logger *zap.Logger) (port.ChainExplorer, error) {
	minPayment := new(big.Int)
	if paymentCfg.MinAmountWei != "" {
		v, err := utils.ParseBigInt(paymentCfg.MinAmountWei)
		if err != nil {
			return nil, fmt.Errorf("invalid payment minAmountWei: %w", err)
		}
		minPayment = v
	}
	ttl := time.Duration(explorerCfg.CacheTTLSeconds) * time.Second
	return &chainExplorerImpl{
		reader:     reader,
		chainID:    new(big.Int).SetUint64(explorerCfg.ChainID),
		receiver:   paymentCfg.ReceiverAddress,
		minPayment: minPayment,
		txCache:    cache.New(ttl, 2*ttl),
		logger:     logger.Named("ChainExplorer"),
	}, nil
}

// GetTransaction returns the transaction joined with its receipt.
func (e *chainExplorerImpl) GetTransaction(ctx context.Context, hash string) (entity.TransactionDetails, error) {
	if !utils.IsValidTxHash(hash) {
		return entity.TransactionDetails{}, fmt.Errorf("%w: %q", ErrInvalidTxHash, hash)
	}
	key := strings.ToLower(hash)

	details, cached := e.cachedTransaction(key)
	if !cached {
		var err error
		details, err = e.fetchTransaction(ctx, common.HexToHash(hash))
		if err != nil {
			return entity.TransactionDetails{}, err
		}
		if !details.Pending {
			e.txCache.Set(key, details, cache.DefaultExpiration)
		}
	}

	if !details.Pending {
		head, err := e.reader.BlockNumber(ctx)
		if err != nil {
			return entity.TransactionDetails{}, fmt.Errorf("failed to get block number: %w", err)
		}
		if head >= details.BlockNumber {
			details.Confirmations = head - details.BlockNumber + 1
		}
	}
	return details, nil
}

func (e *chainExplorerImpl) cachedTransaction(key string) (entity.TransactionDetails, bool) {
	if v, ok := e.txCache.Get(key); ok {
		if d, ok := v.(entity.TransactionDetails); ok {
			e.logger.Debug("Transaction cache hit", zap.String("hash", key))
			return d, true
		}
	}
	return entity.TransactionDetails{}, false
}

func (e *chainExplorerImpl) fetchTransaction(ctx context.Context, hash common.Hash) (entity.TransactionDetails, error) {
	tx, pending, err := e.reader.TransactionByHash(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return entity.TransactionDetails{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, hash.Hex())
	}
	if err != nil {
		e.logger.Error("Failed to get transaction", zap.String("hash", hash.Hex()), zap.Error(err))
		return entity.TransactionDetails{}, fmt.Errorf("failed to get transaction %s: %w", hash.Hex(), err)
	}

	details := entity.TransactionDetails{
		Hash:     hash.Hex(),
		ValueWei: tx.Value().String(),
		Value:    utils.FormatEther(tx.Value()),
		Nonce:    tx.Nonce(),
		Pending:  pending,
		Status:   entity.TxStatusPending,
	}
	if to := tx.To(); to != nil {
		details.To = to.Hex()
	}

	if pending {
		if from, err := types.Sender(types.LatestSignerForChainID(e.chainID), tx); err == nil {
			details.From = from.Hex()
		}
		return details, nil
	}

	receipt, err := e.reader.TransactionReceipt(ctx, hash)
	if err != nil {
		return entity.TransactionDetails{}, fmt.Errorf("failed to get receipt %s: %w", hash.Hex(), err)
	}
	details.BlockNumber = receipt.BlockNumber.Uint64()
	details.GasUsed = receipt.GasUsed
	details.Status = entity.TxStatusFailed
	if receipt.Status == types.ReceiptStatusSuccessful {
		details.Status = entity.TxStatusSuccess
	}
	from, err := e.reader.TransactionSender(ctx, tx, receipt.BlockHash, receipt.TransactionIndex)
	if err != nil {
		return entity.TransactionDetails{}, fmt.Errorf("failed to get sender of %s: %w", hash.Hex(), err)
	}
	details.From = from.Hex()
	return details, nil
}

// BlockNumber returns the latest block number.
func (e *chainExplorerImpl) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := e.reader.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get block number: %w", err)
	}
	return n, nil
}

// LatestBlock summarises the head block.
func (e *chainExplorerImpl) LatestBlock(ctx context.Context) (entity.BlockSummary, error) {
	block, err := e.reader.BlockByNumber(ctx, nil)
	if err != nil {
		return entity.BlockSummary{}, fmt.Errorf("failed to get latest block: %w", err)
	}
	summary := entity.BlockSummary{
		Number:       block.NumberU64(),
		Hash:         block.Hash().Hex(),
		Timestamp:    block.Time(),
		Transactions: len(block.Transactions()),
		GasUsed:      block.GasUsed(),
	}
	if baseFee := block.BaseFee(); baseFee != nil {
		summary.BaseFeeWei = baseFee.String()
	}
	return summary, nil
}

// GasPrice returns the node's suggested gas price in wei.
func (e *chainExplorerImpl) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := e.reader.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return price, nil
}

// VerifyPayment checks that hash is a successful native transfer of at least
// minValueWei to the configured receiver. A nil minValueWei uses the configured minimum.
func (e *chainExplorerImpl) VerifyPayment(ctx context.Context, hash string, minValueWei *big.Int) (entity.PaymentVerification, error) {
	if e.receiver == "" {
		return entity.PaymentVerification{}, ErrPaymentNotConfigured
	}
	if minValueWei == nil {
		minValueWei = e.minPayment
	}

	result := entity.PaymentVerification{TxHash: hash}
	details, err := e.GetTransaction(ctx, hash)
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		result.Reason = "transaction not found"
		return result, nil
	case err != nil:
		return entity.PaymentVerification{}, err
	}

	result.From = details.From
	result.ValueWei = details.ValueWei
	value, _ := new(big.Int).SetString(details.ValueWei, 10)

	switch {
	case details.Pending:
		result.Reason = "transaction is still pending"
	case details.Status != entity.TxStatusSuccess:
		result.Reason = "transaction failed"
	case !strings.EqualFold(details.To, e.receiver):
		result.Reason = "payment sent to wrong address"
	case value == nil || value.Cmp(minValueWei) < 0:
		result.Reason = fmt.Sprintf("payment below minimum of %s", utils.FormatEther(minValueWei))
	default:
		result.Valid = true
	}
	if result.Valid {
		e.logger.Info("Payment verified", zap.String("hash", hash), zap.String("value", result.ValueWei))
	} else {
		e.logger.Info("Payment rejected", zap.String("hash", hash), zap.String("reason", result.Reason))
	}
	return result, nil
}
