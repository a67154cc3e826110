package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"staking_hub/internal/app/port"
	"staking_hub/internal/config"
	"staking_hub/internal/domain/entity"
	"staking_hub/internal/pkg/metrics"
	"staking_hub/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/rpc"
)

const defaultConnectionTimeout = 10 * time.Second

// RPCWalletProvider implements port.WalletProvider for a wallet that exposes the
// EIP-1193 request interface over JSON-RPC (Frame, a remote signer, a dev node).
// Provider events are synthesised by polling eth_accounts and eth_chainId.
type RPCWalletProvider struct {
	id             string
	url            string
	rpcClient      *rpc.Client
	requestTimeout time.Duration
	pollInterval   time.Duration
	logger         port.Logger
}

// NewRPCWalletProvider dials the configured URL, falling back to the
// alternative URLs in order.
func NewRPCWalletProvider(cfg config.WalletProviderConfig, logger port.Logger) (*RPCWalletProvider, error) {
	rpcURLs := append([]string{cfg.RPCURL}, cfg.FallbackURLs...)
	var lastErr error

	for _, rpcURL := range rpcURLs {
		ctx, cancel := context.WithTimeout(context.Background(), defaultConnectionTimeout)
		client, err := rpc.DialContext(ctx, rpcURL)
		cancel()

		if err == nil {
			logger.Info("Wallet provider dialed", "provider", cfg.ID, "url", rpcURL)
			return newRPCWalletProvider(cfg, rpcURL, client, logger), nil
		}
		lastErr = fmt.Errorf("failed to connect to wallet provider %s: %w", rpcURL, err)
		logger.Warn("Wallet provider dial failed", "provider", cfg.ID, "url", rpcURL, "error", err)
	}

	return nil, fmt.Errorf("all connection attempts failed for wallet provider %s: %w", cfg.ID, lastErr)
}

func newRPCWalletProvider(cfg config.WalletProviderConfig, url string, client *rpc.Client, logger port.Logger) *RPCWalletProvider {
	return &RPCWalletProvider{
		id:             cfg.ID,
		url:            url,
		rpcClient:      client,
		requestTimeout: time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
		pollInterval:   time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		logger:         logger,
	}
}

// ID implements port.WalletProvider.
func (p *RPCWalletProvider) ID() string { return p.id }

// Request implements port.WalletProvider.
func (p *RPCWalletProvider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if p.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.requestTimeout)
		defer cancel()
	}

	start := time.Now()
	var raw json.RawMessage
	err := p.rpcClient.CallContext(ctx, &raw, method, params...)
	metrics.ProviderRequests.WithLabelValues(p.id, method, metrics.Status(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, toProviderError(err)
	}
	return raw, nil
}

// toProviderError maps go-ethereum rpc errors onto EIP-1193 provider errors.
// Transport failures become 4900 (disconnected); context errors pass through.
func toProviderError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		pe := &entity.ProviderError{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
		var dataErr rpc.DataError
		if errors.As(err, &dataErr) {
			pe.Data = dataErr.ErrorData()
		}
		return pe
	}
	return &entity.ProviderError{Code: entity.CodeDisconnected, Message: err.Error()}
}

// Subscribe implements port.WalletProvider. Each subscription runs its own poller.
func (p *RPCWalletProvider) Subscribe(events chan<- entity.WalletEvent) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go p.watch(events, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
		})
	}
}

func (p *RPCWalletProvider) watch(events chan<- entity.WalletEvent, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := p.pollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	emit := func(ev entity.WalletEvent) bool {
		select {
		case events <- ev:
			return true
		case <-stop:
			return false
		}
	}

	var (
		reachable bool
		accounts  []string
		chainID   uint64
	)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		gotAccounts, gotChain, err := p.snapshot(ctx)
		cancel()

		switch {
		case err != nil && reachable:
			reachable = false
			p.logger.Warn("Wallet provider became unreachable", "provider", p.id, "error", err)
			if !emit(entity.WalletEvent{Type: entity.ProviderDisconnected, Err: err}) {
				return
			}
		case err == nil && !reachable:
			reachable = true
			accounts, chainID = gotAccounts, gotChain
			if !emit(entity.WalletEvent{Type: entity.ProviderConnected, ChainID: gotChain}) {
				return
			}
		case err == nil:
			if !slices.Equal(accounts, gotAccounts) {
				accounts = gotAccounts
				if !emit(entity.WalletEvent{Type: entity.AccountsChanged, Accounts: slices.Clone(gotAccounts)}) {
					return
				}
			}
			if chainID != gotChain {
				chainID = gotChain
				if !emit(entity.WalletEvent{Type: entity.ChainChanged, ChainID: gotChain}) {
					return
				}
			}
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (p *RPCWalletProvider) snapshot(ctx context.Context) ([]string, uint64, error) {
	raw, err := p.Request(ctx, "eth_accounts")
	if err != nil {
		return nil, 0, err
	}
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, 0, fmt.Errorf("decode eth_accounts: %w", err)
	}
	for i := range accounts {
		accounts[i] = strings.ToLower(accounts[i])
	}

	raw, err = p.Request(ctx, "eth_chainId")
	if err != nil {
		return nil, 0, err
	}
	var chainHex string
	if err := json.Unmarshal(raw, &chainHex); err != nil {
		return nil, 0, fmt.Errorf("decode eth_chainId: %w", err)
	}
	chainID, err := utils.ParseChainID(chainHex)
	if err != nil {
		return nil, 0, fmt.Errorf("parse chain id %q: %w", chainHex, err)
	}
	return accounts, chainID, nil
}

// Close releases the underlying RPC client.
func (p *RPCWalletProvider) Close() error {
	p.rpcClient.Close()
	return nil
}
