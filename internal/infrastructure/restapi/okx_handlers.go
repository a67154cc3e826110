package restapi

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"staking_hub/internal/client"
	"staking_hub/internal/entity"
)

// OKXHandler proxies the OKX DEX aggregator with server-side credentials.
type OKXHandler struct {
	okx    client.OKXClient
	logger *zap.Logger
}

// NewOKXHandler creates a new OKXHandler.
func NewOKXHandler(okx client.OKXClient, logger *zap.Logger) *OKXHandler {
	return &OKXHandler{okx: okx, logger: logger.Named("OKXHandler")}
}

type okxCredentialsResponse struct {
	Success     bool                        `json:"success"`
	Message     string                      `json:"message"`
	Credentials entity.OKXCredentialsStatus `json:"credentials"`
	Error       string                      `json:"error,omitempty"`
	Data        any                         `json:"data,omitempty"`
}

// Handle serves /api/okx?action=quote|swap|tokens|chains|test.
func (h *OKXHandler) Handle(c *gin.Context) {
	creds := h.okx.Credentials()
	if !creds.Configured {
		c.JSON(http.StatusInternalServerError, okxCredentialsResponse{
			Message:     client.ErrOKXNotConfigured.Error(),
			Credentials: creds,
		})
		return
	}

	params, err := h.params(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	action := params.Get("action")
	params.Del("action")

	ctx := c.Request.Context()
	var data any
	switch action {
	case "quote":
		data, err = h.okx.Quote(ctx, params)
	case "swap":
		data, err = h.okx.Swap(ctx, params)
	case "tokens":
		data, err = h.okx.AllTokens(ctx, params.Get("chainId"))
	case "chains", "test":
		data, err = h.okx.SupportedChains(ctx, params.Get("chainId"))
	default:
		respondError(c, http.StatusBadRequest, errors.New("invalid action; expected quote, swap, tokens, chains or test"))
		return
	}
	if err != nil {
		h.logger.Error("OKX request failed", zap.String("action", action), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, data)
}

// params merges the query string with a JSON body for POST requests.
func (h *OKXHandler) params(c *gin.Context) (url.Values, error) {
	values := c.Request.URL.Query()
	if c.Request.Method != http.MethodPost {
		return values, nil
	}
	body, err := decodeParams(c.Request.Body)
	if err != nil {
		return nil, err
	}
	for k, v := range toValues(body) {
		values[k] = v
	}
	return values, nil
}

// Validate serves /api/validate-okx: the credential status plus one signed call.
func (h *OKXHandler) Validate(c *gin.Context) {
	creds := h.okx.Credentials()
	resp := okxCredentialsResponse{Credentials: creds}
	if !creds.Configured {
		resp.Message = client.ErrOKXNotConfigured.Error()
		c.JSON(http.StatusOK, resp)
		return
	}

	chains, err := h.okx.SupportedChains(c.Request.Context(), "")
	if err != nil {
		h.logger.Warn("OKX credential validation failed", zap.Error(err))
		resp.Message = "OKX API credentials rejected"
		resp.Error = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Success = true
	resp.Message = "OKX API credentials valid"
	resp.Data = gin.H{"supportedChains": len(chains)}
	c.JSON(http.StatusOK, resp)
}
