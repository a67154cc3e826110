package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staking_hub/internal/config"
	"staking_hub/internal/domain/entity"
	"staking_hub/internal/pkg/logger"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params []any           `json:"params"`
}

// fakeWalletNode answers the handful of methods the provider polls.
type fakeWalletNode struct {
	chainID  atomic.Value // string
	accounts atomic.Value // []string
}

func newFakeWalletNode(t *testing.T) (*fakeWalletNode, *httptest.Server) {
	t.Helper()
	n := &fakeWalletNode{}
	n.chainID.Store("0x1")
	n.accounts.Store([]string{"0xAbCdEf0123456789aBcDeF0123456789AbCdEf01"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_chainId":
			resp["result"] = n.chainID.Load().(string)
		case "eth_accounts":
			resp["result"] = n.accounts.Load().([]string)
		case "wallet_switchEthereumChain":
			resp["error"] = map[string]any{
				"code":    -32603,
				"message": "Unrecognized chain ID",
				"data":    map[string]any{"originalError": map[string]any{"code": 4902}},
			}
		default:
			resp["error"] = map[string]any{"code": 4001, "message": "User rejected the request."}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return n, srv
}

func newTestProvider(t *testing.T, url string) *RPCWalletProvider {
	t.Helper()
	p, err := NewRPCWalletProvider(config.WalletProviderConfig{
		ID:               "frame",
		RPCURL:           url,
		PollIntervalMs:   20,
		RequestTimeoutMs: 2000,
	}, logger.NewSlogAdapter("test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestRequestReturnsRawResult(t *testing.T) {
	_, srv := newFakeWalletNode(t)
	p := newTestProvider(t, srv.URL)

	raw, err := p.Request(context.Background(), "eth_chainId")
	require.NoError(t, err)
	assert.JSONEq(t, `"0x1"`, string(raw))
}

func TestRequestMapsProviderErrors(t *testing.T) {
	_, srv := newFakeWalletNode(t)
	p := newTestProvider(t, srv.URL)

	_, err := p.Request(context.Background(), "eth_requestAccounts")
	var pe *entity.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, entity.CodeUserRejected, pe.Code)

	_, err = p.Request(context.Background(), "wallet_switchEthereumChain", map[string]string{"chainId": "0x92"})
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, entity.CodeInternal, pe.Code)
	assert.NotNil(t, pe.Data)
}

func TestRequestUnreachableIsDisconnected(t *testing.T) {
	_, srv := newFakeWalletNode(t)
	p := newTestProvider(t, srv.URL)
	srv.Close()

	_, err := p.Request(context.Background(), "eth_chainId")
	var pe *entity.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, entity.CodeDisconnected, pe.Code)
}

func TestSubscribeEmitsConnectThenChanges(t *testing.T) {
	node, srv := newFakeWalletNode(t)
	p := newTestProvider(t, srv.URL)

	events := make(chan entity.WalletEvent, 8)
	unsubscribe := p.Subscribe(events)
	defer unsubscribe()

	next := func() entity.WalletEvent {
		select {
		case ev := <-events:
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for wallet event")
			return entity.WalletEvent{}
		}
	}

	ev := next()
	assert.Equal(t, entity.ProviderConnected, ev.Type)
	assert.Equal(t, uint64(1), ev.ChainID)

	node.chainID.Store("0x92")
	ev = next()
	assert.Equal(t, entity.ChainChanged, ev.Type)
	assert.Equal(t, uint64(146), ev.ChainID)

	node.accounts.Store([]string{})
	ev = next()
	assert.Equal(t, entity.AccountsChanged, ev.Type)
	assert.Empty(t, ev.Accounts)
}

func TestRegistryDefaultAndIDs(t *testing.T) {
	_, srv := newFakeWalletNode(t)
	r := NewWalletProviderRegistry("frame")
	r.Register(newTestProvider(t, srv.URL))

	p, ok := r.Default()
	require.True(t, ok)
	assert.Equal(t, "frame", p.ID())
	assert.Equal(t, []string{"frame"}, r.IDs())

	_, ok = r.Get("metamask")
	assert.False(t, ok)
}
