package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"staking_hub/internal/config"
)

func newTestOpenOcean(t *testing.T, handler http.HandlerFunc) OpenOceanClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenOceanClient(config.OpenOceanConfig{
		BaseURL:              srv.URL,
		Chain:                "sonic",
		RequestTimeoutMillis: 2000,
		APIKey:               "oo-key",
	}, zap.NewNop())
}

func TestOpenOceanQuote(t *testing.T) {
	c := newTestOpenOcean(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/sonic/quote", r.URL.Path)
		assert.Equal(t, "Bearer oo-key", r.Header.Get("Authorization"))
		assert.Equal(t, "1", r.URL.Query().Get("amount"))
		_, _ = w.Write([]byte(`{"code":200,"data":{"inToken":{"symbol":"S","decimals":18},"outToken":{"symbol":"USDC","decimals":6},"inAmount":"1000000000000000000","outAmount":"512345","estimatedGas":"189000"}}`))
	})

	q, err := c.Quote(context.Background(), "", url.Values{"amount": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, "512345", q.OutAmount)
	assert.Equal(t, "USDC", q.OutToken.Symbol)
	assert.Equal(t, 6, q.OutToken.Decimals)
}

func TestOpenOceanGetPassesDataThrough(t *testing.T) {
	c := newTestOpenOcean(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/fantom/gasPrice", r.URL.Path)
		_, _ = w.Write([]byte(`{"code":200,"data":{"standard":1.5}}`))
	})

	raw, err := c.Get(context.Background(), "gasPrice", "fantom", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"standard":1.5}`, string(raw))
}

func TestOpenOceanRejectsUnknownEndpoint(t *testing.T) {
	c := newTestOpenOcean(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call to %s", r.URL.Path)
	})

	_, err := c.Get(context.Background(), "../admin", "", nil)
	assert.ErrorIs(t, err, ErrEndpointNotAllowed)
}

func TestOpenOceanAPIError(t *testing.T) {
	c := newTestOpenOcean(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":400,"error":"invalid amount"}`))
	})

	_, err := c.Swap(context.Background(), "", nil)
	var apiErr *OpenOceanAPIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, "invalid amount", apiErr.Message)
}

func TestOpenOceanHTTPError(t *testing.T) {
	c := newTestOpenOcean(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := c.TokenList(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
