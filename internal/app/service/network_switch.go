package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"staking_hub/internal/domain/entity"
)

// ErrUnsupportedNetwork is returned when the wallet lacks a chain the hub has no metadata for.
var ErrUnsupportedNetwork = errors.New("unsupported network")

type switchChainParams struct {
	ChainID string `json:"chainId"`
}

// SwitchNetwork asks the wallet to switch to chainID. When the wallet does not
// know the chain it is registered with wallet_addEthereumChain and the switch is
// retried once.
func (m *WalletConnectionManager) SwitchNetwork(ctx context.Context, chainID uint64) (entity.WalletState, error) {
	p, ok := m.ActiveProvider()
	if !ok {
		st := m.update(func(s *entity.WalletState) { s.Error = msgNoProvider })
		return st, ErrNoProvider
	}

	log := m.logger.With(zap.String("provider", p.ID()), zap.Uint64("chainId", chainID))
	params := switchChainParams{ChainID: hexutil.EncodeUint64(chainID)}

	_, err := p.Request(ctx, "wallet_switchEthereumChain", params)
	if err != nil && IsUnrecognizedChain(err) {
		log.Info("Chain unknown to wallet, adding it")
		err = m.addAndSwitch(ctx, chainID, params)
	} else if err != nil {
		err = fmt.Errorf("switch to chain %d: %w", chainID, err)
	}

	if err != nil {
		log.Warn("Network switch failed", zap.Error(err))
		st := m.update(func(s *entity.WalletState) { s.Error = switchErrorMessage(err) })
		return st, err
	}

	log.Info("Network switched")
	st := m.update(func(s *entity.WalletState) {
		s.ChainID = chainID
		s.Error = ""
	})
	return st, nil
}

func (m *WalletConnectionManager) addAndSwitch(ctx context.Context, chainID uint64, params switchChainParams) error {
	desc, ok := m.networks.GetNetworkDescriptor(chainID)
	if !ok {
		return fmt.Errorf("%w: chain %d", ErrUnsupportedNetwork, chainID)
	}
	p, ok := m.ActiveProvider()
	if !ok {
		return ErrNoProvider
	}
	if _, err := p.Request(ctx, "wallet_addEthereumChain", desc.AddChainParams()); err != nil {
		return fmt.Errorf("add chain %s: %w", desc.Name, err)
	}
	if _, err := p.Request(ctx, "wallet_switchEthereumChain", params); err != nil {
		return fmt.Errorf("switch to chain %s after adding it: %w", desc.Name, err)
	}
	return nil
}

func switchErrorMessage(err error) string {
	switch {
	case IsUserRejected(err):
		return "User rejected the network switch"
	case errors.Is(err, ErrUnsupportedNetwork):
		return err.Error()
	default:
		return "Failed to switch network: " + displayMessage(err)
	}
}
