package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"staking_hub/internal/config"
	"staking_hub/internal/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OKX DEX aggregator endpoints.
const (
	okxQuotePath           = "/api/v5/dex/aggregator/quote"
	okxSwapPath            = "/api/v5/dex/aggregator/swap"
	okxAllTokensPath       = "/api/v5/dex/aggregator/all-tokens"
	okxSupportedChainsPath = "/api/v5/dex/aggregator/supported/chain"

	okxTimestampLayout = "2006-01-02T15:04:05.000Z"
)

// ErrOKXNotConfigured is returned before any outbound call when credentials are missing.
var ErrOKXNotConfigured = errors.New("OKX API credentials not configured")

// OKXAPIError is a non-zero code in the OKX response envelope.
type OKXAPIError struct {
	Code string
	Msg  string
}

func (e *OKXAPIError) Error() string {
	return fmt.Sprintf("OKX API error %s: %s", e.Code, e.Msg)
}

// OKXClient defines the interface for the signed OKX DEX aggregator API.
type OKXClient interface {
	Credentials() entity.OKXCredentialsStatus
	Quote(ctx context.Context, params url.Values) ([]entity.OKXQuote, error)
	Swap(ctx context.Context, params url.Values) ([]entity.OKXSwap, error)
	AllTokens(ctx context.Context, chainID string) ([]entity.OKXToken, error)
	SupportedChains(ctx context.Context, chainID string) ([]entity.OKXChain, error)
}

type okxClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	cfg     config.OKXConfig
	limiter *rate.Limiter
	logger  *zap.Logger
	now     func() time.Time
}

// NewOKXClient creates a new OKX DEX aggregator client. Signed requests are
// throttled to cfg.RequestsPerSecond; zero disables the throttle.
func NewOKXClient(cfg config.OKXConfig, logger *zap.Logger) OKXClient {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &okxClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.Named("OKXClient"),
		now:     time.Now,
	}
}

// SignOKXRequest computes the OK-ACCESS-SIGN header: base64(HMAC-SHA256(secret,
// timestamp + METHOD + requestPath + queryOrBody)). queryOrBody is "?query" for GET
// requests with parameters and the raw body for POST.
func SignOKXRequest(secretKey, timestamp, method, requestPath, queryOrBody string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(timestamp + strings.ToUpper(method) + requestPath + queryOrBody))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Credentials implements OKXClient.
func (c *okxClientImpl) Credentials() entity.OKXCredentialsStatus {
	return entity.OKXCredentialsStatus{
		Configured:    c.cfg.Configured(),
		HasAPIKey:     c.cfg.APIKey != "",
		HasSecretKey:  c.cfg.SecretKey != "",
		HasPassphrase: c.cfg.Passphrase != "",
		HasProjectID:  c.cfg.ProjectID != "",
	}
}

// Quote implements OKXClient.
func (c *okxClientImpl) Quote(ctx context.Context, params url.Values) ([]entity.OKXQuote, error) {
	var out []entity.OKXQuote
	if err := c.get(ctx, okxQuotePath, c.withChain(params), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Swap implements OKXClient.
func (c *okxClientImpl) Swap(ctx context.Context, params url.Values) ([]entity.OKXSwap, error) {
	var out []entity.OKXSwap
	if err := c.get(ctx, okxSwapPath, c.withChain(params), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AllTokens implements OKXClient.
func (c *okxClientImpl) AllTokens(ctx context.Context, chainID string) ([]entity.OKXToken, error) {
	params := url.Values{}
	if chainID != "" {
		params.Set("chainId", chainID)
	}
	var out []entity.OKXToken
	if err := c.get(ctx, okxAllTokensPath, c.withChain(params), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SupportedChains implements OKXClient.
func (c *okxClientImpl) SupportedChains(ctx context.Context, chainID string) ([]entity.OKXChain, error) {
	params := url.Values{}
	if chainID != "" {
		params.Set("chainId", chainID)
	}
	var out []entity.OKXChain
	if err := c.get(ctx, okxSupportedChainsPath, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *okxClientImpl) withChain(params url.Values) url.Values {
	out := url.Values{}
	for k, v := range params {
		out[k] = append([]string(nil), v...)
	}
	if out.Get("chainId") == "" && out.Get("chainIndex") == "" {
		out.Set("chainId", c.cfg.DefaultChainID)
	}
	return out
}

func (c *okxClientImpl) get(ctx context.Context, path string, params url.Values, out any) error {
	if !c.cfg.Configured() {
		return ErrOKXNotConfigured
	}
	// the timestamp is signed, so wait before taking it
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("OKX request to %s throttled: %w", path, err)
	}

	query := params.Encode()
	queryOrBody := ""
	if query != "" {
		queryOrBody = "?" + query
	}
	timestamp := c.now().UTC().Format(okxTimestampLayout)
	requestURL := c.baseURL + path + queryOrBody

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentType("application/json")
	req.Header.Set("OK-ACCESS-KEY", c.cfg.APIKey)
	req.Header.Set("OK-ACCESS-SIGN", SignOKXRequest(c.cfg.SecretKey, timestamp, fasthttp.MethodGet, path, queryOrBody))
	req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.cfg.Passphrase)
	if c.cfg.ProjectID != "" {
		req.Header.Set("OK-ACCESS-PROJECT", c.cfg.ProjectID)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	c.logger.Debug("Requesting OKX API", zap.String("path", path), zap.String("query", query))
	if err := doRequest(ctx, c.client, "okx", path, req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute request to OKX", zap.String("path", path), zap.Error(err))
		return err
	}

	rawBody := resp.Body()
	var envelope entity.OKXEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		c.logger.Error("Failed to unmarshal OKX response",
			zap.String("path", path),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		if resp.StatusCode() != fasthttp.StatusOK {
			return fmt.Errorf("OKX API request to %s failed with status %d: %s", path, resp.StatusCode(), truncate(rawBody, 256))
		}
		return fmt.Errorf("failed to unmarshal OKX response from %s: %w", path, err)
	}
	if envelope.Code != "0" {
		c.logger.Warn("OKX API returned error", zap.String("path", path), zap.String("code", envelope.Code), zap.String("msg", envelope.Msg))
		return &OKXAPIError{Code: envelope.Code, Msg: envelope.Msg}
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal OKX data from %s: %w", path, err)
	}
	return nil
}
