package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"staking_hub/internal/app/port"
	"staking_hub/internal/config"
	"staking_hub/internal/domain/entity"
	"staking_hub/internal/pkg/metrics"
	"staking_hub/internal/pkg/utils"
)

const erc721ABIJSON = `[
	{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"owner","type":"address"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"name":"safeTransferFrom","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var (
	erc721ABI     abi.ABI
	erc721ABIErr  error
	erc721ABIOnce sync.Once
)

func getERC721ABI() (abi.ABI, error) {
	erc721ABIOnce.Do(func() {
		erc721ABI, erc721ABIErr = abi.JSON(strings.NewReader(erc721ABIJSON))
	})
	return erc721ABI, erc721ABIErr
}

var (
	// ErrInvalidAddress is returned for anything that is not 0x followed by 40 hex characters.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidTokenID is returned when the token id is not a non-negative integer.
	ErrInvalidTokenID = errors.New("invalid token id")
	// ErrEmptyBatch is returned when a bulk operation receives no items.
	ErrEmptyBatch = errors.New("no transfers given")
)

const msgNotOwner = "You don't own this NFT"

// WalletSession exposes the provider the transfer service sends through.
type WalletSession interface {
	ActiveProvider() (port.WalletProvider, bool)
	State() entity.WalletState
}

// TransferRecorder counts transfer outcomes.
type TransferRecorder interface {
	RecordTransfer(success bool)
}

type nftTransferServiceImpl struct {
	wallets       WalletSession
	networks      port.NetworkDescriptorProvider
	recorder      TransferRecorder
	logger        *zap.Logger
	bufferPercent int
	pacing        time.Duration
}

// NewNFTTransferService creates the ERC-721 transfer service. recorder may be nil.
func NewNFTTransferService(
	wallets WalletSession,
	networks port.NetworkDescriptorProvider,
	recorder TransferRecorder,
	cfg config.TransferConfig,
	logger *zap.Logger,
) port.NFTTransferService {
	return &nftTransferServiceImpl{
		wallets:       wallets,
		networks:      networks,
		recorder:      recorder,
		logger:        logger.Named("NFTTransferService"),
		bufferPercent: cfg.GasBufferPercent,
		pacing:        time.Duration(cfg.PacingDelayMs) * time.Millisecond,
	}
}

// txCall is the transaction object of eth_call, eth_estimateGas and eth_sendTransaction.
type txCall struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	Data     string `json:"data"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
}

// preparedTransfer is a validated request with its encoded call.
type preparedTransfer struct {
	req      entity.TransferRequest
	tokenID  *big.Int
	provider port.WalletProvider
	call     txCall
}

// TransferNFT transfers one token. The result is returned at submission; the
// transaction is not awaited.
func (s *nftTransferServiceImpl) TransferNFT(ctx context.Context, req entity.TransferRequest) entity.TransferResult {
	res := s.transfer(ctx, req)
	status := "success"
	if !res.Success {
		status = "failed"
	}
	metrics.NFTTransfers.WithLabelValues(status).Inc()
	if s.recorder != nil {
		s.recorder.RecordTransfer(res.Success)
	}
	return res
}

func (s *nftTransferServiceImpl) transfer(ctx context.Context, req entity.TransferRequest) entity.TransferResult {
	log := s.logger.With(zap.String("contract", req.ContractAddress), zap.String("tokenId", req.TokenID), zap.String("to", req.ToAddress))

	pt, err := s.prepare(ctx, req, true)
	if err != nil {
		log.Warn("Transfer rejected before submission", zap.Error(err))
		return entity.TransferResult{Error: transferErrorMessage(err)}
	}

	gasLimit, err := s.estimateGas(ctx, pt)
	if err != nil {
		log.Warn("Gas estimation failed", zap.Error(err))
		return entity.TransferResult{Error: transferErrorMessage(err)}
	}
	gasPrice, err := s.gasPrice(ctx, pt.provider)
	if err != nil {
		log.Warn("Gas price lookup failed", zap.Error(err))
		return entity.TransferResult{Error: transferErrorMessage(err)}
	}

	tx := pt.call
	tx.Gas = hexutil.EncodeBig(gasLimit)
	tx.GasPrice = hexutil.EncodeBig(gasPrice)
	raw, err := pt.provider.Request(ctx, "eth_sendTransaction", tx)
	if err != nil {
		log.Warn("Transaction submission failed", zap.Error(err))
		return entity.TransferResult{Error: transferErrorMessage(err)}
	}
	var txHash string
	if err := json.Unmarshal(raw, &txHash); err != nil {
		return entity.TransferResult{Error: fmt.Sprintf("decode transaction hash: %v", err)}
	}

	cost := new(big.Int).Mul(gasLimit, gasPrice)
	log.Info("NFT transfer submitted", zap.String("txHash", txHash), zap.String("gasLimit", gasLimit.String()))
	return entity.TransferResult{
		Success:    true,
		TxHash:     txHash,
		GasUsed:    gasLimit.String(),
		GasCost:    utils.FormatEther(cost),
		GasCostWei: cost,
	}
}

// prepare validates req, optionally checks ownership, and encodes the call.
func (s *nftTransferServiceImpl) prepare(ctx context.Context, req entity.TransferRequest, checkOwner bool) (*preparedTransfer, error) {
	if !utils.IsValidAddress(req.FromAddress) {
		return nil, fmt.Errorf("%w: from %q", ErrInvalidAddress, req.FromAddress)
	}
	if !utils.IsValidAddress(req.ToAddress) {
		return nil, fmt.Errorf("%w: to %q", ErrInvalidAddress, req.ToAddress)
	}
	if !utils.IsValidAddress(req.ContractAddress) {
		return nil, fmt.Errorf("%w: contract %q", ErrInvalidAddress, req.ContractAddress)
	}
	tokenID, err := utils.ParseBigInt(req.TokenID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTokenID, err)
	}
	p, ok := s.wallets.ActiveProvider()
	if !ok {
		return nil, ErrNoProvider
	}

	if checkOwner {
		owner, err := s.ownerOf(ctx, p, req.ContractAddress, tokenID)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(owner, req.FromAddress) {
			return nil, errNotOwner
		}
	}

	erc721, err := getERC721ABI()
	if err != nil {
		return nil, fmt.Errorf("load ERC-721 ABI: %w", err)
	}
	data, err := erc721.Pack("safeTransferFrom",
		common.HexToAddress(req.FromAddress),
		common.HexToAddress(req.ToAddress),
		tokenID,
	)
	if err != nil {
		return nil, fmt.Errorf("encode safeTransferFrom: %w", err)
	}

	return &preparedTransfer{
		req:      req,
		tokenID:  tokenID,
		provider: p,
		call: txCall{
			From: req.FromAddress,
			To:   req.ContractAddress,
			Data: hexutil.Encode(data),
		},
	}, nil
}

var errNotOwner = errors.New(msgNotOwner)

func (s *nftTransferServiceImpl) ownerOf(ctx context.Context, p port.WalletProvider, contract string, tokenID *big.Int) (string, error) {
	erc721, err := getERC721ABI()
	if err != nil {
		return "", fmt.Errorf("load ERC-721 ABI: %w", err)
	}
	data, err := erc721.Pack("ownerOf", tokenID)
	if err != nil {
		return "", fmt.Errorf("encode ownerOf: %w", err)
	}
	raw, err := p.Request(ctx, "eth_call", txCall{To: contract, Data: hexutil.Encode(data)}, "latest")
	if err != nil {
		return "", err
	}
	var out hexutil.Bytes
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode ownerOf result: %w", err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("ownerOf(%s) returned no data from %s", tokenID, contract)
	}
	values, err := erc721.Unpack("ownerOf", out)
	if err != nil {
		return "", fmt.Errorf("unpack ownerOf: %w", err)
	}
	owner, ok := values[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("unexpected ownerOf output %T", values[0])
	}
	return owner.Hex(), nil
}

// estimateGas returns the provider estimate plus the configured buffer.
func (s *nftTransferServiceImpl) estimateGas(ctx context.Context, pt *preparedTransfer) (*big.Int, error) {
	raw, err := pt.provider.Request(ctx, "eth_estimateGas", pt.call)
	if err != nil {
		return nil, err
	}
	var gas hexutil.Big
	if err := json.Unmarshal(raw, &gas); err != nil {
		return nil, fmt.Errorf("decode gas estimate: %w", err)
	}
	return utils.ApplyPercentBuffer(gas.ToInt(), s.bufferPercent), nil
}

func (s *nftTransferServiceImpl) gasPrice(ctx context.Context, p port.WalletProvider) (*big.Int, error) {
	raw, err := p.Request(ctx, "eth_gasPrice")
	if err != nil {
		return nil, err
	}
	var price hexutil.Big
	if err := json.Unmarshal(raw, &price); err != nil {
		return nil, fmt.Errorf("decode gas price: %w", err)
	}
	return price.ToInt(), nil
}

// BulkTransferNFTs transfers the items one after another from fromAddress.
// Failures are recorded per item; the result always holds one entry per input.
func (s *nftTransferServiceImpl) BulkTransferNFTs(
	ctx context.Context,
	transfers []entity.TransferRequest,
	fromAddress string,
	onProgress port.ProgressFunc,
) entity.BulkTransferResult {
	total := len(transfers)
	result := entity.BulkTransferResult{
		Successful: make([]entity.BulkTransferEntry, 0, total),
		Failed:     make([]entity.BulkTransferEntry, 0),
		Summary:    entity.BulkTransferSummary{Total: total},
	}
	report := func(p entity.TransferProgress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	s.logger.Info("Starting bulk transfer", zap.Int("count", total), zap.String("from", fromAddress))
	totalCost := new(big.Int)

	for i := range transfers {
		req := transfers[i]
		req.FromAddress = fromAddress
		report(entity.TransferProgress{Current: i + 1, Total: total, Item: &req})

		var res entity.TransferResult
		// the pacing delay counts from the end of the previous item
		if err := s.pause(ctx, i > 0); err != nil {
			res = entity.TransferResult{Error: "Transfer cancelled: " + err.Error()}
		} else {
			res = s.TransferNFT(ctx, req)
		}

		entry := entity.BulkTransferEntry{TransferRequest: req, TransferResult: res}
		if res.Success {
			result.Successful = append(result.Successful, entry)
			if res.GasCostWei != nil {
				totalCost.Add(totalCost, res.GasCostWei)
			}
		} else {
			result.Failed = append(result.Failed, entry)
		}
	}

	report(entity.TransferProgress{Current: total, Total: total, Done: true})

	result.TotalGasCost = utils.FormatEther(totalCost)
	result.Summary.Succeeded = len(result.Successful)
	result.Summary.Failed = len(result.Failed)
	s.logger.Info("Bulk transfer finished",
		zap.Int("succeeded", result.Summary.Succeeded),
		zap.Int("failed", result.Summary.Failed),
		zap.String("totalGasCost", result.TotalGasCost))
	return result
}

func (s *nftTransferServiceImpl) pause(ctx context.Context, paced bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !paced || s.pacing <= 0 {
		return nil
	}
	timer := time.NewTimer(s.pacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// EstimateTransferCost estimates gas for one transfer without the ownership check.
func (s *nftTransferServiceImpl) EstimateTransferCost(ctx context.Context, req entity.TransferRequest) (entity.GasEstimate, error) {
	pt, err := s.prepare(ctx, req, false)
	if err != nil {
		return entity.GasEstimate{}, err
	}
	gasLimit, err := s.estimateGas(ctx, pt)
	if err != nil {
		return entity.GasEstimate{}, fmt.Errorf("estimate gas: %w", err)
	}
	gasPrice, err := s.gasPrice(ctx, pt.provider)
	if err != nil {
		return entity.GasEstimate{}, fmt.Errorf("gas price: %w", err)
	}
	return s.gasEstimate(gasLimit, gasPrice), nil
}

// EstimateBulkTransferCost estimates every item individually. Items that cannot be
// estimated reuse the first successful estimate and mark the result approximate.
func (s *nftTransferServiceImpl) EstimateBulkTransferCost(
	ctx context.Context,
	transfers []entity.TransferRequest,
	fromAddress string,
) (entity.BulkGasEstimate, error) {
	if len(transfers) == 0 {
		return entity.BulkGasEstimate{}, ErrEmptyBatch
	}
	p, ok := s.wallets.ActiveProvider()
	if !ok {
		return entity.BulkGasEstimate{}, ErrNoProvider
	}
	gasPrice, err := s.gasPrice(ctx, p)
	if err != nil {
		return entity.BulkGasEstimate{}, fmt.Errorf("gas price: %w", err)
	}

	limits := make([]*big.Int, len(transfers))
	var (
		reference *big.Int
		firstErr  error
	)
	for i, t := range transfers {
		t.FromAddress = fromAddress
		pt, err := s.prepare(ctx, t, false)
		if err == nil {
			limits[i], err = s.estimateGas(ctx, pt)
		}
		if err != nil {
			s.logger.Debug("Item estimate failed", zap.Int("index", i), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if reference == nil {
			reference = limits[i]
		}
	}
	if reference == nil {
		return entity.BulkGasEstimate{}, fmt.Errorf("estimate gas: %w", firstErr)
	}

	out := entity.BulkGasEstimate{
		Items:    len(transfers),
		GasPrice: gasPrice.String(),
		PerItem:  make([]entity.GasEstimate, len(transfers)),
	}
	totalGas := new(big.Int)
	for i, limit := range limits {
		if limit == nil {
			limit = reference
			out.Approximate = true
		}
		totalGas.Add(totalGas, limit)
		out.PerItem[i] = s.gasEstimate(limit, gasPrice)
	}
	totalWei := new(big.Int).Mul(totalGas, gasPrice)
	out.TotalGas = totalGas.String()
	out.TotalWei = totalWei.String()
	out.Total = utils.FormatEther(totalWei)
	return out, nil
}

func (s *nftTransferServiceImpl) gasEstimate(gasLimit, gasPrice *big.Int) entity.GasEstimate {
	cost := new(big.Int).Mul(gasLimit, gasPrice)
	return entity.GasEstimate{
		GasLimit:   gasLimit.String(),
		GasPrice:   gasPrice.String(),
		CostWei:    cost.String(),
		Cost:       utils.FormatEther(cost),
		CostSymbol: s.nativeSymbol(),
	}
}

func (s *nftTransferServiceImpl) nativeSymbol() string {
	if d, ok := s.networks.GetNetworkDescriptor(s.wallets.State().ChainID); ok {
		return d.NativeCurrency.Symbol
	}
	return ""
}

// GetNFTOwner reads ownerOf(tokenID) on contract.
func (s *nftTransferServiceImpl) GetNFTOwner(ctx context.Context, contractAddress, tokenID string) (string, error) {
	if !utils.IsValidAddress(contractAddress) {
		return "", fmt.Errorf("%w: contract %q", ErrInvalidAddress, contractAddress)
	}
	id, err := utils.ParseBigInt(tokenID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTokenID, err)
	}
	p, ok := s.wallets.ActiveProvider()
	if !ok {
		return "", ErrNoProvider
	}
	return s.ownerOf(ctx, p, contractAddress, id)
}

// transferErrorMessage maps provider failures onto the messages shown to the user.
func transferErrorMessage(err error) string {
	msg := displayMessage(err)
	lower := strings.ToLower(msg)
	switch {
	case errors.Is(err, errNotOwner):
		return msgNotOwner
	case errors.Is(err, ErrNoProvider):
		return msgNoProvider
	case errors.Is(err, ErrInvalidAddress), errors.Is(err, ErrInvalidTokenID):
		return err.Error()
	case IsUserRejected(err):
		return "Transaction rejected by user"
	case strings.Contains(lower, "insufficient funds"):
		return "Insufficient funds for gas"
	case strings.Contains(lower, "execution reverted"):
		return "Transaction would revert: " + msg
	default:
		return msg
	}
}
