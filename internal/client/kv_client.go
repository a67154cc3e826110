package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"staking_hub/internal/config"
	"staking_hub/internal/entity"
)

// ErrKVDisabled is returned when the KV REST store is not configured.
var ErrKVDisabled = errors.New("kv store not configured")

// KVClient is a minimal client for the Upstash / Vercel KV REST API.
type KVClient interface {
	Enabled() bool
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type kvClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	token   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewKVClient creates a KV REST client.
func NewKVClient(cfg config.KVConfig, logger *zap.Logger) KVClient {
	return &kvClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		timeout: time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		logger:  logger.Named("KVClient"),
	}
}

func (c *kvClientImpl) Enabled() bool {
	return c.baseURL != "" && c.token != ""
}

// Get returns the string stored at key; found is false for a missing key.
func (c *kvClientImpl) Get(ctx context.Context, key string) (string, bool, error) {
	result, err := c.do(ctx, fasthttp.MethodGet, "get", "/get/"+url.PathEscape(key), nil)
	if err != nil {
		return "", false, err
	}
	if len(result) == 0 || string(result) == "null" {
		return "", false, nil
	}
	var value string
	if err := json.Unmarshal(result, &value); err != nil {
		return "", false, fmt.Errorf("failed to decode kv value for %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value at key; ttl <= 0 stores without expiry.
func (c *kvClientImpl) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	path := "/set/" + url.PathEscape(key)
	if ttl > 0 {
		path += "?EX=" + strconv.Itoa(int(ttl.Seconds()))
	}
	_, err := c.do(ctx, fasthttp.MethodPost, "set", path, []byte(value))
	return err
}

func (c *kvClientImpl) do(ctx context.Context, method, command, path string, body []byte) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrKVDisabled
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.SetBody(body)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := doRequest(ctx, c.client, "kv", command, req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute KV request", zap.String("command", command), zap.Error(err))
		return nil, err
	}

	var out entity.KVResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal KV response (status %d): %w", resp.StatusCode(), err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("kv %s failed: %s", command, out.Error)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("kv %s failed with status %d", command, resp.StatusCode())
	}
	return out.Result, nil
}
