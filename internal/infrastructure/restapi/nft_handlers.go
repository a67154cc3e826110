package restapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"staking_hub/internal/app/port"
	"staking_hub/internal/app/service"
	"staking_hub/internal/client"
	"staking_hub/internal/domain/entity"
	"staking_hub/internal/pkg/utils"
)

// NFTHandler exposes NFT transfers, estimates and holdings.
type NFTHandler struct {
	transfers    port.NFTTransferService
	paintSwap    client.PaintSwapClient
	maxBulkItems int
	logger       *zap.Logger
}

// NewNFTHandler creates a new NFTHandler.
func NewNFTHandler(transfers port.NFTTransferService, paintSwap client.PaintSwapClient, maxBulkItems int, logger *zap.Logger) *NFTHandler {
	return &NFTHandler{
		transfers:    transfers,
		paintSwap:    paintSwap,
		maxBulkItems: maxBulkItems,
		logger:       logger.Named("NFTHandler"),
	}
}

type bulkRequest struct {
	Transfers   []entity.TransferRequest `json:"transfers"`
	FromAddress string                   `json:"fromAddress"`
}

func (h *NFTHandler) bindBulk(c *gin.Context) (bulkRequest, bool) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return req, false
	}
	if len(req.Transfers) == 0 {
		respondError(c, http.StatusBadRequest, service.ErrEmptyBatch)
		return req, false
	}
	if h.maxBulkItems > 0 && len(req.Transfers) > h.maxBulkItems {
		respondError(c, http.StatusBadRequest, fmt.Errorf("at most %d transfers per batch", h.maxBulkItems))
		return req, false
	}
	if !utils.IsValidAddress(req.FromAddress) {
		respondError(c, http.StatusBadRequest, fmt.Errorf("%w: fromAddress", service.ErrInvalidAddress))
		return req, false
	}
	return req, true
}

// Transfer serves POST /api/nft/transfer. The body of the response is the
// transfer result itself.
func (h *NFTHandler) Transfer(c *gin.Context) {
	var req entity.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	res := h.transfers.TransferNFT(c.Request.Context(), req)
	if !res.Success {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// BulkTransfer serves POST /api/nft/bulk-transfer.
func (h *NFTHandler) BulkTransfer(c *gin.Context) {
	req, ok := h.bindBulk(c)
	if !ok {
		return
	}
	res := h.transfers.BulkTransferNFTs(c.Request.Context(), req.Transfers, req.FromAddress, func(p entity.TransferProgress) {
		h.logger.Debug("Bulk transfer progress", zap.Int("current", p.Current), zap.Int("total", p.Total), zap.Bool("done", p.Done))
	})
	respondOK(c, res)
}

// Estimate serves POST /api/nft/estimate.
func (h *NFTHandler) Estimate(c *gin.Context) {
	var req entity.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	est, err := h.transfers.EstimateTransferCost(c.Request.Context(), req)
	if err != nil {
		respondError(c, transferErrorStatus(err), err)
		return
	}
	respondOK(c, est)
}

// EstimateBulk serves POST /api/nft/estimate-bulk.
func (h *NFTHandler) EstimateBulk(c *gin.Context) {
	req, ok := h.bindBulk(c)
	if !ok {
		return
	}
	est, err := h.transfers.EstimateBulkTransferCost(c.Request.Context(), req.Transfers, req.FromAddress)
	if err != nil {
		respondError(c, transferErrorStatus(err), err)
		return
	}
	respondOK(c, est)
}

// Owner serves GET /api/nft/owner?contract=&tokenId=.
func (h *NFTHandler) Owner(c *gin.Context) {
	contract, tokenID := c.Query("contract"), c.Query("tokenId")
	owner, err := h.transfers.GetNFTOwner(c.Request.Context(), contract, tokenID)
	if err != nil {
		respondError(c, transferErrorStatus(err), err)
		return
	}
	respondOK(c, gin.H{"contract": contract, "tokenId": tokenID, "owner": owner})
}

// UserNFTs serves GET /api/nfts/:owner?collection=.
func (h *NFTHandler) UserNFTs(c *gin.Context) {
	owner := c.Param("owner")
	if !utils.IsValidAddress(owner) {
		respondError(c, http.StatusBadRequest, fmt.Errorf("%w: %q", service.ErrInvalidAddress, owner))
		return
	}
	nfts, err := h.paintSwap.UserNFTs(c.Request.Context(), owner, c.Query("collection"))
	if err != nil {
		h.logger.Error("PaintSwap request failed", zap.String("owner", owner), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, gin.H{"owner": owner, "count": len(nfts), "nfts": nfts})
}

func transferErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidAddress),
		errors.Is(err, service.ErrInvalidTokenID),
		errors.Is(err, service.ErrEmptyBatch):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoProvider):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
