package restapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"staking_hub/internal/client"
)

// OpenOceanHandler proxies whitelisted OpenOcean endpoints.
type OpenOceanHandler struct {
	openOcean client.OpenOceanClient
	logger    *zap.Logger
}

// NewOpenOceanHandler creates a new OpenOceanHandler.
func NewOpenOceanHandler(openOcean client.OpenOceanClient, logger *zap.Logger) *OpenOceanHandler {
	return &OpenOceanHandler{openOcean: openOcean, logger: logger.Named("OpenOceanHandler")}
}

type openOceanProxyRequest struct {
	Endpoint string         `json:"endpoint"`
	Chain    string         `json:"chain"`
	Params   map[string]any `json:"params"`
}

// Proxy serves POST /api/openocean/proxy.
func (h *OpenOceanHandler) Proxy(c *gin.Context) {
	body, err := decodeParams(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	var req openOceanProxyRequest
	req.Endpoint, _ = body["endpoint"].(string)
	req.Chain, _ = body["chain"].(string)
	req.Params, _ = body["params"].(map[string]any)
	if req.Endpoint == "" {
		respondError(c, http.StatusBadRequest, errors.New("endpoint is required"))
		return
	}

	data, err := h.forward(c.Request.Context(), req)
	if errors.Is(err, client.ErrEndpointNotAllowed) {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		h.logger.Error("OpenOcean proxy request failed", zap.String("endpoint", req.Endpoint), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, data)
}

// forward decodes quote and swap responses into their typed shapes; the other
// whitelisted endpoints are passed through as returned.
func (h *OpenOceanHandler) forward(ctx context.Context, req openOceanProxyRequest) (any, error) {
	params := toValues(req.Params)
	switch req.Endpoint {
	case "quote":
		return h.openOcean.Quote(ctx, req.Chain, params)
	case "swap":
		return h.openOcean.Swap(ctx, req.Chain, params)
	case "gasPrice":
		return h.openOcean.GasPrice(ctx, req.Chain)
	case "tokenList":
		return h.openOcean.TokenList(ctx, req.Chain)
	default:
		return h.openOcean.Get(ctx, req.Endpoint, req.Chain, params)
	}
}

// Status serves GET /api/openocean/status.
func (h *OpenOceanHandler) Status(c *gin.Context) {
	respondOK(c, h.openOcean.Status())
}
