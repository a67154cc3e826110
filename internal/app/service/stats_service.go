package service

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"staking_hub/internal/app/port"
	"staking_hub/internal/client"
	"staking_hub/internal/config"
	"staking_hub/internal/domain/entity"
	"staking_hub/internal/pkg/utils"
)

const localStatsKey = "stats"

type statsServiceImpl struct {
	explorer port.ChainExplorer
	kv       client.KVClient
	kvKey    string
	chainID  uint64
	local    *cache.Cache
	logger   *zap.Logger
	now      func() time.Time

	transfersOK     atomic.Uint64
	transfersFailed atomic.Uint64
}

// NewStatsService creates the stats cache. kv may be disabled; the local cache is always used.
func NewStatsService(explorer port.ChainExplorer, kv client.KVClient, cfg *config.Config, logger *zap.Logger) port.StatsService {
	return &statsServiceImpl{
		explorer: explorer,
		kv:       kv,
		kvKey:    cfg.KV.StatsKey,
		chainID:  cfg.Explorer.ChainID,
		local: cache.New(
			time.Duration(cfg.Cache.DefaultExpirationMinutes)*time.Minute,
			time.Duration(cfg.Cache.CleanupIntervalMinutes)*time.Minute,
		),
		logger: logger.Named("StatsService"),
		now:    time.Now,
	}
}

// RecordTransfer counts a transfer outcome.
func (s *statsServiceImpl) RecordTransfer(success bool) {
	if success {
		s.transfersOK.Add(1)
		return
	}
	s.transfersFailed.Add(1)
}

// Update collects a fresh snapshot and stores it locally and, when configured, in KV.
func (s *statsServiceImpl) Update(ctx context.Context) (entity.HubStats, error) {
	var (
		blockNumber uint64
		gasPrice    *big.Int
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		n, err := s.explorer.BlockNumber(egCtx)
		blockNumber = n
		return err
	})
	eg.Go(func() error {
		p, err := s.explorer.GasPrice(egCtx)
		gasPrice = p
		return err
	})
	if err := eg.Wait(); err != nil {
		s.logger.Error("Failed to collect stats", zap.Error(err))
		return entity.HubStats{}, fmt.Errorf("failed to collect stats: %w", err)
	}

	stats := entity.HubStats{
		ChainID:         s.chainID,
		BlockNumber:     blockNumber,
		GasPriceWei:     gasPrice.String(),
		GasPriceGwei:    utils.FormatGwei(gasPrice),
		TransfersOK:     s.transfersOK.Load(),
		TransfersFailed: s.transfersFailed.Load(),
		UpdatedAtUnix:   s.now().Unix(),
	}

	if s.kv != nil && s.kv.Enabled() {
		if err := s.persist(ctx, stats); err != nil {
			s.logger.Warn("Failed to persist stats to KV", zap.Error(err))
		} else {
			stats.PersistedToRemote = true
		}
	}
	s.local.Set(localStatsKey, stats, cache.DefaultExpiration)
	s.logger.Info("Stats updated", zap.Uint64("blockNumber", blockNumber), zap.String("gasPriceGwei", stats.GasPriceGwei))
	return stats, nil
}

func (s *statsServiceImpl) persist(ctx context.Context, stats entity.HubStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	return s.kv.Set(ctx, s.kvKey, string(payload), 0)
}

// Get returns the local snapshot, then the KV snapshot, then an empty one.
func (s *statsServiceImpl) Get(ctx context.Context) (entity.HubStats, error) {
	if v, ok := s.local.Get(localStatsKey); ok {
		if stats, ok := v.(entity.HubStats); ok {
			return stats, nil
		}
	}

	if s.kv != nil && s.kv.Enabled() {
		raw, found, err := s.kv.Get(ctx, s.kvKey)
		if err != nil {
			s.logger.Warn("Failed to read stats from KV", zap.Error(err))
		} else if found {
			var stats entity.HubStats
			if err := json.Unmarshal([]byte(raw), &stats); err != nil {
				s.logger.Warn("Discarding malformed stats from KV", zap.Error(err))
			} else {
				stats.PersistedToRemote = true
				s.local.Set(localStatsKey, stats, cache.DefaultExpiration)
				return stats, nil
			}
		}
	}

	return entity.HubStats{
		ChainID:         s.chainID,
		TransfersOK:     s.transfersOK.Load(),
		TransfersFailed: s.transfersFailed.Load(),
	}, nil
}
