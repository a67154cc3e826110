package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"staking_hub/internal/config"
)

// fakeKV mimics the Upstash REST get/set commands.
func fakeKV(t *testing.T) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	store := map[string]string{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer kv-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch {
		case strings.HasPrefix(r.URL.Path, "/set/"):
			body, _ := io.ReadAll(r.Body)
			store[strings.TrimPrefix(r.URL.Path, "/set/")] = string(body)
			_, _ = w.Write([]byte(`{"result":"OK"}`))
		case strings.HasPrefix(r.URL.Path, "/get/"):
			v, ok := store[strings.TrimPrefix(r.URL.Path, "/get/")]
			if !ok {
				_, _ = w.Write([]byte(`{"result":null}`))
				return
			}
			out, _ := json.Marshal(map[string]string{"result": v})
			_, _ = w.Write(out)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestKVSetGet(t *testing.T) {
	srv := fakeKV(t)
	c := NewKVClient(config.KVConfig{URL: srv.URL, Token: "kv-token", RequestTimeoutMillis: 2000}, zap.NewNop())
	require.True(t, c.Enabled())

	_, found, err := c.Get(context.Background(), "stats")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(context.Background(), "stats", `{"blockNumber":1}`, time.Minute))
	v, found, err := c.Get(context.Background(), "stats")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"blockNumber":1}`, v)
}

func TestKVUnauthorized(t *testing.T) {
	srv := fakeKV(t)
	c := NewKVClient(config.KVConfig{URL: srv.URL, Token: "wrong", RequestTimeoutMillis: 2000}, zap.NewNop())

	_, _, err := c.Get(context.Background(), "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestKVDisabled(t *testing.T) {
	c := NewKVClient(config.KVConfig{}, zap.NewNop())
	assert.False(t, c.Enabled())
	assert.ErrorIs(t, c.Set(context.Background(), "k", "v", 0), ErrKVDisabled)
}
