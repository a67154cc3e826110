package client

import (
	"context"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"staking_hub/internal/config"
	"staking_hub/internal/entity"
)

// OpenOceanEndpoints lists the v4 endpoints the proxy forwards.
var OpenOceanEndpoints = []string{"quote", "swap", "gasPrice", "tokenList", "dexList"} //nolint:gochecknoglobals

// ErrEndpointNotAllowed is returned for endpoints outside OpenOceanEndpoints.
var ErrEndpointNotAllowed = errors.New("endpoint not allowed")

// OpenOceanAPIError is a non-200 code in the OpenOcean envelope.
type OpenOceanAPIError struct {
	Code    int
	Message string
}

func (e *OpenOceanAPIError) Error() string {
	return fmt.Sprintf("OpenOcean API error %d: %s", e.Code, e.Message)
}

// OpenOceanClient defines the interface for the OpenOcean v4 aggregator API.
type OpenOceanClient interface {
	Status() entity.OpenOceanStatus
	Quote(ctx context.Context, chain string, params url.Values) (entity.OpenOceanQuote, error)
	Swap(ctx context.Context, chain string, params url.Values) (entity.OpenOceanSwap, error)
	GasPrice(ctx context.Context, chain string) (stdjson.RawMessage, error)
	TokenList(ctx context.Context, chain string) (stdjson.RawMessage, error)
	Get(ctx context.Context, endpoint, chain string, params url.Values) (stdjson.RawMessage, error)
}

type openOceanClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	chain   string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenOceanClient creates a new OpenOcean client.
func NewOpenOceanClient(cfg config.OpenOceanConfig, logger *zap.Logger) OpenOceanClient {
	return &openOceanClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		chain:   cfg.Chain,
		apiKey:  cfg.APIKey,
		timeout: time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		logger:  logger.Named("OpenOceanClient"),
	}
}

// Status implements OpenOceanClient.
func (c *openOceanClientImpl) Status() entity.OpenOceanStatus {
	return entity.OpenOceanStatus{
		Configured: c.apiKey != "",
		BaseURL:    c.baseURL,
		Chain:      c.chain,
		Endpoints:  slices.Clone(OpenOceanEndpoints),
	}
}

// Quote implements OpenOceanClient.
func (c *openOceanClientImpl) Quote(ctx context.Context, chain string, params url.Values) (entity.OpenOceanQuote, error) {
	var out entity.OpenOceanQuote
	raw, err := c.Get(ctx, "quote", chain, params)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal OpenOcean quote: %w", err)
	}
	return out, nil
}

// Swap implements OpenOceanClient.
func (c *openOceanClientImpl) Swap(ctx context.Context, chain string, params url.Values) (entity.OpenOceanSwap, error) {
	var out entity.OpenOceanSwap
	raw, err := c.Get(ctx, "swap", chain, params)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal OpenOcean swap: %w", err)
	}
	return out, nil
}

// GasPrice implements OpenOceanClient.
func (c *openOceanClientImpl) GasPrice(ctx context.Context, chain string) (stdjson.RawMessage, error) {
	return c.Get(ctx, "gasPrice", chain, nil)
}

// TokenList implements OpenOceanClient.
func (c *openOceanClientImpl) TokenList(ctx context.Context, chain string) (stdjson.RawMessage, error) {
	return c.Get(ctx, "tokenList", chain, nil)
}

// Get calls a whitelisted v4 endpoint and returns the envelope's data.
func (c *openOceanClientImpl) Get(ctx context.Context, endpoint, chain string, params url.Values) (stdjson.RawMessage, error) {
	if !slices.Contains(OpenOceanEndpoints, endpoint) {
		return nil, fmt.Errorf("%w: %q", ErrEndpointNotAllowed, endpoint)
	}
	if chain == "" {
		chain = c.chain
	}
	path := "/v4/" + url.PathEscape(chain) + "/" + endpoint
	requestURL := c.baseURL + path
	if query := params.Encode(); query != "" {
		requestURL += "?" + query
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentType("application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	c.logger.Debug("Requesting OpenOcean API", zap.String("endpoint", endpoint), zap.String("chain", chain))
	if err := doRequest(ctx, c.client, "openocean", endpoint, req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute request to OpenOcean", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("OpenOcean API request failed",
			zap.String("endpoint", endpoint),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("OpenOcean API request to %s failed with status %d: %s", endpoint, resp.StatusCode(), truncate(rawBody, 256))
	}

	var envelope entity.OpenOceanEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OpenOcean response from %s: %w", endpoint, err)
	}
	if envelope.Code != fasthttp.StatusOK {
		msg := envelope.Message
		if msg == "" {
			msg = envelope.Error
		}
		return nil, &OpenOceanAPIError{Code: envelope.Code, Message: msg}
	}
	return stdjson.RawMessage(envelope.Data), nil
}
