package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"staking_hub/internal/app/port"
	"staking_hub/internal/domain/entity"
	networkdefinition "staking_hub/internal/infrastructure/network/definition"
	"staking_hub/internal/pkg/logger"
)

const testAccount = "0x1111111111111111111111111111111111111111"

func newTestManager(providers ...*fakeProvider) *WalletConnectionManager {
	ports := make([]port.WalletProvider, len(providers))
	for i, p := range providers {
		ports[i] = p
	}
	networks := networkdefinition.NewNetworkDescriptorProvider(logger.NewSlogAdapter("test"), nil)
	return NewWalletConnectionManager(newFakeRegistry(ports...), networks, 4, zap.NewNop())
}

func connectedProvider() *fakeProvider {
	return newFakeProvider("frame").
		returns("eth_requestAccounts", []string{testAccount}).
		returns("eth_accounts", []string{testAccount}).
		returns("eth_chainId", "0x1")
}

func TestConnectStoresAddressAndChain(t *testing.T) {
	m := newTestManager(connectedProvider())

	var (
		mu   sync.Mutex
		seen []entity.WalletState
	)
	unsubscribe := m.Subscribe(func(s entity.WalletState) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	defer unsubscribe()

	st, err := m.Connect(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, st.IsConnected)
	assert.False(t, st.IsConnecting)
	assert.Equal(t, testAccount, st.Address)
	assert.Equal(t, uint64(1), st.ChainID)
	assert.Equal(t, "frame", st.WalletID)
	assert.Equal(t, st, m.State())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].IsConnecting)
	assert.Equal(t, st, seen[1])
}

func TestConnectUserRejectionKeepsPriorState(t *testing.T) {
	p := connectedProvider()
	m := newTestManager(p)
	_, err := m.Connect(context.Background(), "frame")
	require.NoError(t, err)

	p.fails("eth_requestAccounts", &entity.ProviderError{Code: entity.CodeUserRejected, Message: "User rejected the request."})
	st, err := m.Connect(context.Background(), "frame")
	require.Error(t, err)
	assert.True(t, IsUserRejected(err))
	assert.True(t, st.IsConnected)
	assert.Equal(t, testAccount, st.Address)
	assert.Equal(t, "User rejected the connection request", st.Error)
	assert.False(t, st.IsConnecting)
}

func TestConnectFailureClearsState(t *testing.T) {
	p := connectedProvider()
	m := newTestManager(p)
	_, err := m.Connect(context.Background(), "")
	require.NoError(t, err)

	p.fails("eth_chainId", &entity.ProviderError{Code: entity.CodeInternal, Message: "internal error"})
	st, err := m.Connect(context.Background(), "")
	require.Error(t, err)
	assert.False(t, st.IsConnected)
	assert.Empty(t, st.Address)
	assert.Zero(t, st.ChainID)
	assert.Equal(t, "internal error", st.Error)
}

func TestConnectWithoutProvider(t *testing.T) {
	m := newTestManager()

	st, err := m.Connect(context.Background(), "metamask")
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.False(t, st.IsConnected)
	assert.Equal(t, "No wallet provider found", st.Error)

	id, ok := m.CheckNetwork(context.Background())
	assert.False(t, ok)
	assert.Zero(t, id)
}

func TestConnectEmptyAccounts(t *testing.T) {
	p := connectedProvider().returns("eth_requestAccounts", []string{})
	m := newTestManager(p)

	st, err := m.Connect(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoAccounts)
	assert.False(t, st.IsConnected)
}

func TestDisconnectDoesNotCallProvider(t *testing.T) {
	p := connectedProvider()
	m := newTestManager(p)
	_, err := m.Connect(context.Background(), "")
	require.NoError(t, err)
	p.mu.Lock()
	before := len(p.calls)
	p.mu.Unlock()

	st := m.Disconnect()
	assert.Equal(t, entity.WalletState{}, st)
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Len(t, p.calls, before)
}

func TestCheckNetworkUpdatesChain(t *testing.T) {
	p := connectedProvider()
	m := newTestManager(p)
	_, err := m.Connect(context.Background(), "")
	require.NoError(t, err)

	p.returns("eth_chainId", "0x92")
	id, ok := m.CheckNetwork(context.Background())
	require.True(t, ok)
	assert.Equal(t, uint64(146), id)
	assert.Equal(t, uint64(146), m.State().ChainID)

	p.fails("eth_chainId", errors.New("boom"))
	_, ok = m.CheckNetwork(context.Background())
	assert.False(t, ok)
}

func TestRefreshConnection(t *testing.T) {
	p := connectedProvider()
	m := newTestManager(p)

	st, err := m.RefreshConnection(context.Background())
	require.NoError(t, err)
	assert.True(t, st.IsConnected)
	assert.Equal(t, testAccount, st.Address)
	assert.Zero(t, p.callCount("eth_requestAccounts"))

	p.returns("eth_accounts", []string{})
	st, err = m.RefreshConnection(context.Background())
	require.NoError(t, err)
	assert.False(t, st.IsConnected)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	m := newTestManager(connectedProvider())
	calls := 0
	unsubscribe := m.Subscribe(func(entity.WalletState) { calls++ })
	m.Disconnect()
	unsubscribe()
	unsubscribe()
	m.Disconnect()
	assert.Equal(t, 1, calls)
}

func TestProviderEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := connectedProvider()
	m := newTestManager(p)
	require.NoError(t, m.Start(context.Background()))
	assert.ErrorIs(t, m.Start(context.Background()), ErrAlreadyStarted)

	_, err := m.Connect(context.Background(), "")
	require.NoError(t, err)

	require.True(t, p.emit(entity.WalletEvent{Type: entity.ChainChanged, ChainID: 146}))
	require.Eventually(t, func() bool { return m.State().ChainID == 146 }, time.Second, 5*time.Millisecond)

	other := "0x2222222222222222222222222222222222222222"
	require.True(t, p.emit(entity.WalletEvent{Type: entity.AccountsChanged, Accounts: []string{other}}))
	require.Eventually(t, func() bool {
		st := m.State()
		return st.Address == other && st.ChainID == 1
	}, time.Second, 5*time.Millisecond)

	require.True(t, p.emit(entity.WalletEvent{Type: entity.AccountsChanged}))
	require.Eventually(t, func() bool { return !m.State().IsConnected }, time.Second, 5*time.Millisecond)

	require.True(t, p.emit(entity.WalletEvent{Type: entity.ProviderConnected, ChainID: 1}))
	require.Eventually(t, func() bool { return m.State().Address == testAccount }, time.Second, 5*time.Millisecond)

	require.True(t, p.emit(entity.WalletEvent{Type: entity.ProviderDisconnected, Err: errors.New("gone")}))
	require.Eventually(t, func() bool {
		st := m.State()
		return !st.IsConnected && st.Error == "gone"
	}, time.Second, 5*time.Millisecond)

	m.Close()
	m.Close()
	assert.False(t, p.emit(entity.WalletEvent{Type: entity.ChainChanged, ChainID: 1}))
}

func TestUserRejectedHelpers(t *testing.T) {
	rejected := &entity.ProviderError{Code: entity.CodeUserRejected, Message: "no"}
	assert.True(t, IsUserRejected(rejected))
	assert.False(t, IsUserRejected(errors.New("User rejected")))

	wrapped := &entity.ProviderError{
		Code:    entity.CodeInternal,
		Message: "Unrecognized chain ID",
		Data:    map[string]any{"originalError": map[string]any{"code": float64(4902)}},
	}
	assert.True(t, IsUnrecognizedChain(wrapped))
	assert.True(t, IsUnrecognizedChain(&entity.ProviderError{Code: entity.CodeUnrecognizedChain}))
	assert.False(t, IsUnrecognizedChain(&entity.ProviderError{Code: entity.CodeInternal}))
}
