package restapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"staking_hub/internal/app/port"
	"staking_hub/internal/app/service"
	"staking_hub/internal/domain/entity"
	"staking_hub/internal/pkg/utils"
)

// WalletHandler exposes the wallet connection manager.
type WalletHandler struct {
	wallet        port.WalletManager
	networks      port.NetworkDescriptorProvider
	targetChainID uint64
}

// NewWalletHandler creates a new WalletHandler. targetChainID is used when a
// switch request names no chain.
func NewWalletHandler(wallet port.WalletManager, networks port.NetworkDescriptorProvider, targetChainID uint64) *WalletHandler {
	return &WalletHandler{wallet: wallet, networks: networks, targetChainID: targetChainID}
}

// NetworkStatus is served by GET /api/wallet/network.
type NetworkStatus struct {
	ChainID       uint64                    `json:"chainId"`
	Network       *entity.NetworkDescriptor `json:"network,omitempty"`
	Supported     bool                      `json:"supported"`
	OnTargetChain bool                      `json:"onTargetChain"`
	TargetChainID uint64                    `json:"targetChainId"`
}

func walletErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNoProvider):
		return http.StatusServiceUnavailable
	case service.IsUserRejected(err):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUnsupportedNetwork):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func respondWallet(c *gin.Context, st entity.WalletState, err error) {
	if err != nil {
		_ = c.Error(err)
		msg := st.Error
		if msg == "" {
			msg = err.Error()
		}
		respondErrorWithData(c, walletErrorStatus(err), msg, st)
		return
	}
	respondOK(c, st)
}

// State serves GET /api/wallet.
func (h *WalletHandler) State(c *gin.Context) {
	respondOK(c, h.wallet.State())
}

// Connect serves POST /api/wallet/connect with an optional {"walletId"}.
func (h *WalletHandler) Connect(c *gin.Context) {
	body, err := decodeParams(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	walletID, _ := body["walletId"].(string)
	st, err := h.wallet.Connect(c.Request.Context(), walletID)
	respondWallet(c, st, err)
}

// Disconnect serves POST /api/wallet/disconnect.
func (h *WalletHandler) Disconnect(c *gin.Context) {
	respondOK(c, h.wallet.Disconnect())
}

// Refresh serves POST /api/wallet/refresh.
func (h *WalletHandler) Refresh(c *gin.Context) {
	st, err := h.wallet.RefreshConnection(c.Request.Context())
	respondWallet(c, st, err)
}

// SwitchNetwork serves POST /api/wallet/switch-network with {"chainId": 146 | "0x92"}.
func (h *WalletHandler) SwitchNetwork(c *gin.Context) {
	body, err := decodeParams(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	chainID := h.targetChainID
	if raw, ok := body["chainId"]; ok && raw != nil {
		chainID, err = utils.ParseChainID(fmt.Sprint(raw))
		if err != nil || chainID == 0 {
			respondError(c, http.StatusBadRequest, fmt.Errorf("invalid chainId %v", raw))
			return
		}
	}
	st, err := h.wallet.SwitchNetwork(c.Request.Context(), chainID)
	respondWallet(c, st, err)
}

// Network serves GET /api/wallet/network.
func (h *WalletHandler) Network(c *gin.Context) {
	chainID, ok := h.wallet.CheckNetwork(c.Request.Context())
	if !ok {
		respondErrorWithData(c, http.StatusServiceUnavailable, "Unable to read the wallet network", h.wallet.State())
		return
	}
	status := NetworkStatus{
		ChainID:       chainID,
		OnTargetChain: chainID == h.targetChainID,
		TargetChainID: h.targetChainID,
	}
	if d, found := h.networks.GetNetworkDescriptor(chainID); found {
		status.Network = &d
		status.Supported = true
	}
	respondOK(c, status)
}
