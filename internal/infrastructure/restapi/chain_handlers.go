package restapi

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"staking_hub/internal/app/port"
	"staking_hub/internal/app/service"
	"staking_hub/internal/domain/entity"
	"staking_hub/internal/pkg/utils"
)

// ChainHandler exposes the direct chain reader.
type ChainHandler struct {
	explorer port.ChainExplorer
	chainID  uint64
}

// NewChainHandler creates a new ChainHandler.
func NewChainHandler(explorer port.ChainExplorer, chainID uint64) *ChainHandler {
	return &ChainHandler{explorer: explorer, chainID: chainID}
}

// ChainStatus is served by GET /api/chain/status.
type ChainStatus struct {
	ChainID      uint64              `json:"chainId"`
	LatestBlock  entity.BlockSummary `json:"latestBlock"`
	GasPriceWei  string              `json:"gasPriceWei"`
	GasPriceGwei string              `json:"gasPriceGwei"`
}

// Transaction serves GET /api/tx/:hash.
func (h *ChainHandler) Transaction(c *gin.Context) {
	details, err := h.explorer.GetTransaction(c.Request.Context(), c.Param("hash"))
	switch {
	case errors.Is(err, service.ErrInvalidTxHash):
		respondError(c, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrTransactionNotFound):
		respondError(c, http.StatusNotFound, err)
	case err != nil:
		respondError(c, http.StatusBadGateway, err)
	default:
		respondOK(c, details)
	}
}

// Status serves GET /api/chain/status.
func (h *ChainHandler) Status(c *gin.Context) {
	var (
		block    entity.BlockSummary
		gasPrice *big.Int
	)
	eg, ctx := errgroup.WithContext(c.Request.Context())
	eg.Go(func() error {
		var err error
		block, err = h.explorer.LatestBlock(ctx)
		return err
	})
	eg.Go(func() error {
		var err error
		gasPrice, err = h.explorer.GasPrice(ctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}
	respondOK(c, ChainStatus{
		ChainID:      h.chainID,
		LatestBlock:  block,
		GasPriceWei:  gasPrice.String(),
		GasPriceGwei: utils.FormatGwei(gasPrice),
	})
}

type verifyPaymentRequest struct {
	TxHash       string `json:"txHash"`
	MinAmountWei string `json:"minAmountWei"`
}

// VerifyPayment serves POST /api/payments/verify.
func (h *ChainHandler) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	var minWei *big.Int
	if req.MinAmountWei != "" {
		v, err := utils.ParseBigInt(req.MinAmountWei)
		if err != nil {
			respondError(c, http.StatusBadRequest, fmt.Errorf("invalid minAmountWei: %w", err))
			return
		}
		minWei = v
	}

	res, err := h.explorer.VerifyPayment(c.Request.Context(), req.TxHash, minWei)
	switch {
	case errors.Is(err, service.ErrInvalidTxHash):
		respondError(c, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrPaymentNotConfigured):
		respondError(c, http.StatusServiceUnavailable, err)
	case err != nil:
		respondError(c, http.StatusBadGateway, err)
	default:
		respondOK(c, res)
	}
}
