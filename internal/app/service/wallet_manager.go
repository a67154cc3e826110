package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"staking_hub/internal/app/port"
	"staking_hub/internal/domain/entity"
	"staking_hub/internal/pkg/metrics"
	"staking_hub/internal/pkg/utils"
)

var (
	// ErrNoProvider is returned when no wallet provider is available.
	ErrNoProvider = errors.New("no wallet provider found")
	// ErrNoAccounts is returned when the provider authorised no account.
	ErrNoAccounts = errors.New("wallet returned no accounts")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("wallet manager already started")
)

const (
	msgNoProvider   = "No wallet provider found"
	msgUserRejected = "User rejected the connection request"
)

// WalletConnectionManager owns the wallet session. It implements port.WalletManager
// and is safe for concurrent use.
type WalletConnectionManager struct {
	providers  port.WalletProviderRegistry
	networks   port.NetworkDescriptorProvider
	logger     *zap.Logger
	bufferSize int

	mu             sync.Mutex
	state          entity.WalletState
	active         port.WalletProvider
	observers      []observerEntry
	nextObserverID uint64

	lifecycleMu  sync.Mutex
	started      bool
	events       chan entity.WalletEvent
	subscribedID string
	unsubscribe  func()
	cancel       context.CancelFunc
	done         chan struct{}
}

type observerEntry struct {
	id uint64
	fn func(entity.WalletState)
}

var _ port.WalletManager = (*WalletConnectionManager)(nil)

// NewWalletConnectionManager creates a manager in the disconnected state.
func NewWalletConnectionManager(
	providers port.WalletProviderRegistry,
	networks port.NetworkDescriptorProvider,
	eventBufferSize int,
	logger *zap.Logger,
) *WalletConnectionManager {
	if eventBufferSize <= 0 {
		eventBufferSize = 16
	}
	return &WalletConnectionManager{
		providers:  providers,
		networks:   networks,
		logger:     logger.Named("WalletManager"),
		bufferSize: eventBufferSize,
	}
}

// Start subscribes to the default provider's events and starts the handler goroutine.
func (m *WalletConnectionManager) Start(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	if m.started {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.events = make(chan entity.WalletEvent, m.bufferSize)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.started = true
	go m.run(runCtx)

	if p, ok := m.ActiveProvider(); ok {
		m.attachLocked(p)
	}
	m.logger.Info("Wallet manager started", zap.Strings("providers", m.providers.IDs()))
	return nil
}

// Close unsubscribes from the provider and waits for the handler goroutine.
func (m *WalletConnectionManager) Close() {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	if !m.started {
		return
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
		m.subscribedID = ""
	}
	m.cancel()
	<-m.done
	m.started = false
	m.logger.Info("Wallet manager stopped")
}

// attachLocked moves the event subscription to p. lifecycleMu must be held.
func (m *WalletConnectionManager) attachLocked(p port.WalletProvider) {
	if !m.started || m.subscribedID == p.ID() {
		return
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.unsubscribe = p.Subscribe(m.events)
	m.subscribedID = p.ID()
	m.logger.Debug("Subscribed to wallet provider events", zap.String("provider", p.ID()))
}

func (m *WalletConnectionManager) attach(p port.WalletProvider) {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	m.attachLocked(p)
}

func (m *WalletConnectionManager) run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.events:
			m.handleEvent(ctx, ev)
		}
	}
}

func (m *WalletConnectionManager) handleEvent(ctx context.Context, ev entity.WalletEvent) {
	metrics.WalletEvents.WithLabelValues(ev.Type.String()).Inc()
	m.logger.Debug("Wallet event", zap.Stringer("type", ev.Type), zap.Strings("accounts", ev.Accounts), zap.Uint64("chainId", ev.ChainID))

	switch ev.Type {
	case entity.AccountsChanged:
		if len(ev.Accounts) == 0 {
			m.update(func(s *entity.WalletState) { *s = entity.WalletState{} })
			return
		}
		walletID := ""
		if p, ok := m.ActiveProvider(); ok {
			walletID = p.ID()
		}
		m.update(func(s *entity.WalletState) {
			s.Address = ev.Accounts[0]
			s.WalletID = walletID
			s.Error = ""
		})
		m.CheckNetwork(ctx)
	case entity.ChainChanged:
		m.update(func(s *entity.WalletState) { s.ChainID = ev.ChainID })
	case entity.ProviderConnected:
		if _, err := m.RefreshConnection(ctx); err != nil {
			m.logger.Warn("Resync after provider connect failed", zap.Error(err))
		}
	case entity.ProviderDisconnected:
		msg := ""
		if ev.Err != nil {
			msg = displayMessage(ev.Err)
		}
		m.update(func(s *entity.WalletState) { *s = entity.Disconnected(msg) })
	}
}

// ActiveProvider returns the provider of the current session, or the default one.
func (m *WalletConnectionManager) ActiveProvider() (port.WalletProvider, bool) {
	m.mu.Lock()
	p := m.active
	m.mu.Unlock()
	if p != nil {
		return p, true
	}
	return m.providers.Default()
}

// Connect requests account access from the wallet identified by walletID
// (empty selects the default provider).
func (m *WalletConnectionManager) Connect(ctx context.Context, walletID string) (entity.WalletState, error) {
	var (
		p  port.WalletProvider
		ok bool
	)
	if walletID == "" {
		p, ok = m.providers.Default()
	} else {
		p, ok = m.providers.Get(walletID)
	}
	if !ok {
		m.logger.Warn("Connect without provider", zap.String("walletId", walletID))
		st := m.update(func(s *entity.WalletState) {
			*s = entity.Disconnected(msgNoProvider)
		})
		return st, ErrNoProvider
	}

	m.update(func(s *entity.WalletState) {
		s.IsConnecting = true
		s.Error = ""
	})

	address, chainID, err := m.requestAccount(ctx, p)
	if err != nil {
		if IsUserRejected(err) {
			m.logger.Info("Connection rejected by user", zap.String("provider", p.ID()))
			st := m.update(func(s *entity.WalletState) {
				s.IsConnecting = false
				s.Error = msgUserRejected
			})
			return st, fmt.Errorf("connect to %s: %w", p.ID(), err)
		}
		m.logger.Error("Failed to connect wallet", zap.String("provider", p.ID()), zap.Error(err))
		st := m.update(func(s *entity.WalletState) {
			*s = entity.Disconnected(displayMessage(err))
		})
		return st, fmt.Errorf("connect to %s: %w", p.ID(), err)
	}

	m.mu.Lock()
	m.active = p
	m.mu.Unlock()
	m.attach(p)

	st := m.update(func(s *entity.WalletState) {
		*s = entity.WalletState{Address: address, ChainID: chainID, WalletID: p.ID()}
	})
	m.logger.Info("Wallet connected", zap.String("provider", p.ID()), zap.String("address", address), zap.Uint64("chainId", chainID))
	return st, nil
}

func (m *WalletConnectionManager) requestAccount(ctx context.Context, p port.WalletProvider) (string, uint64, error) {
	accounts, err := requestAccounts(ctx, p, "eth_requestAccounts")
	if err != nil {
		return "", 0, err
	}
	if len(accounts) == 0 {
		return "", 0, ErrNoAccounts
	}
	chainID, err := requestChainID(ctx, p)
	if err != nil {
		return "", 0, err
	}
	return accounts[0], chainID, nil
}

// Disconnect forgets the session locally. Wallets have no revoke call.
func (m *WalletConnectionManager) Disconnect() entity.WalletState {
	m.logger.Info("Wallet disconnected")
	return m.update(func(s *entity.WalletState) { *s = entity.WalletState{} })
}

// CheckNetwork reads the provider's chain id and records it in the state.
func (m *WalletConnectionManager) CheckNetwork(ctx context.Context) (uint64, bool) {
	p, ok := m.ActiveProvider()
	if !ok {
		return 0, false
	}
	chainID, err := requestChainID(ctx, p)
	if err != nil {
		m.logger.Warn("Failed to read chain id", zap.String("provider", p.ID()), zap.Error(err))
		return 0, false
	}
	m.update(func(s *entity.WalletState) { s.ChainID = chainID })
	return chainID, true
}

// RefreshConnection re-reads the authorised accounts and chain id without prompting.
func (m *WalletConnectionManager) RefreshConnection(ctx context.Context) (entity.WalletState, error) {
	p, ok := m.ActiveProvider()
	if !ok {
		st := m.update(func(s *entity.WalletState) { *s = entity.Disconnected(msgNoProvider) })
		return st, ErrNoProvider
	}

	accounts, err := requestAccounts(ctx, p, "eth_accounts")
	if err != nil {
		st := m.update(func(s *entity.WalletState) { s.Error = displayMessage(err) })
		return st, fmt.Errorf("refresh accounts: %w", err)
	}
	if len(accounts) == 0 {
		return m.update(func(s *entity.WalletState) { *s = entity.WalletState{} }), nil
	}

	chainID, err := requestChainID(ctx, p)
	if err != nil {
		st := m.update(func(s *entity.WalletState) { s.Error = displayMessage(err) })
		return st, fmt.Errorf("refresh chain id: %w", err)
	}
	return m.update(func(s *entity.WalletState) {
		*s = entity.WalletState{Address: accounts[0], ChainID: chainID, WalletID: p.ID()}
	}), nil
}

// State returns a copy of the current state.
func (m *WalletConnectionManager) State() entity.WalletState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers an observer called with a copy of the state after every change.
func (m *WalletConnectionManager) Subscribe(observer func(entity.WalletState)) func() {
	m.mu.Lock()
	m.nextObserverID++
	id := m.nextObserverID
	m.observers = append(m.observers, observerEntry{id: id, fn: observer})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, o := range m.observers {
				if o.id == id {
					m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// update applies fn under the lock, restores the address/connection invariant
// and notifies observers outside the lock.
func (m *WalletConnectionManager) update(fn func(*entity.WalletState)) entity.WalletState {
	m.mu.Lock()
	fn(&m.state)
	m.state.IsConnected = m.state.Address != ""
	if !m.state.IsConnected {
		m.state.ChainID = 0
		m.state.WalletID = ""
	}
	snapshot := m.state
	observers := make([]func(entity.WalletState), len(m.observers))
	for i, o := range m.observers {
		observers[i] = o.fn
	}
	m.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
	return snapshot
}

func requestAccounts(ctx context.Context, p port.WalletProvider, method string) ([]string, error) {
	raw, err := p.Request(ctx, method)
	if err != nil {
		return nil, err
	}
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", method, err)
	}
	return accounts, nil
}

func requestChainID(ctx context.Context, p port.WalletProvider) (uint64, error) {
	raw, err := p.Request(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}
	chainID, err := utils.ParseChainID(string(raw))
	if err != nil {
		return 0, fmt.Errorf("parse chain id %s: %w", raw, err)
	}
	return chainID, nil
}
