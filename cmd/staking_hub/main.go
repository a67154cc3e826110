package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"staking_hub/internal/app/service"
	"staking_hub/internal/client"
	"staking_hub/internal/config"
	networkclient "staking_hub/internal/infrastructure/network/client"
	networkdefinition "staking_hub/internal/infrastructure/network/definition"
	"staking_hub/internal/infrastructure/restapi"
	"staking_hub/internal/pkg/logger"
	"staking_hub/internal/pkg/metrics"
	"staking_hub/internal/pkg/utils"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("Failed to load .env file: %v", err)
	}

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := newZapLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	// slog callers (infrastructure adapters) end up in the same zap core.
	logger.SetHandler(zapslog.NewHandler(zapLogger.Core(), zapslog.WithName("infra")))
	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	networks := networkdefinition.NewNetworkDescriptorProvider(logger.NewSlogAdapter("NetworkDescriptorProvider"), cfg.Networks)
	providers := networkclient.NewWalletProviderRegistryFromConfig(cfg, slog.Info, slog.Error)
	defer providers.Close()

	wallet := service.NewWalletConnectionManager(providers, networks, cfg.Wallet.EventBufferSize, zapLogger)
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()
	if err := wallet.Start(rootCtx); err != nil {
		zapLogger.Fatal("Failed to start wallet manager", zap.Error(err))
	}
	defer wallet.Close()

	if cfg.Wallet.AutoConnect {
		go func() {
			ctx, cancel := context.WithTimeout(rootCtx, 2*time.Minute)
			defer cancel()
			st, err := wallet.Connect(ctx, "")
			if err != nil {
				zapLogger.Warn("Auto-connect failed", zap.Error(err))
				return
			}
			zapLogger.Info("Auto-connected wallet", zap.String("address", st.Address), zap.Uint64("chainId", st.ChainID))
		}()
	}

	dialCtx, cancelDial := context.WithTimeout(rootCtx, time.Duration(cfg.Explorer.TimeoutMs)*time.Millisecond)
	ethClient, err := ethclient.DialContext(dialCtx, cfg.Explorer.RPCURL)
	cancelDial()
	if err != nil {
		zapLogger.Fatal("Failed to dial chain RPC", zap.String("url", cfg.Explorer.RPCURL), zap.Error(err))
	}
	defer ethClient.Close()

	explorer, err := service.NewChainExplorer(ethClient, cfg.Explorer, cfg.Payment, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create chain explorer", zap.Error(err))
	}

	kv := client.NewKVClient(cfg.KV, zapLogger)
	stats := service.NewStatsService(explorer, kv, cfg, zapLogger)
	transfers := service.NewNFTTransferService(wallet, networks, stats, cfg.Transfer, zapLogger)

	okx := client.NewOKXClient(cfg.OKX, zapLogger)
	if !okx.Credentials().Configured {
		zapLogger.Warn("OKX API credentials not configured; /api/okx will reject requests")
	}
	openOcean := client.NewOpenOceanClient(cfg.OpenOcean, zapLogger)
	paintSwap := client.NewPaintSwapClient(cfg.PaintSwap, zapLogger)

	router := restapi.SetupRouter(restapi.Handlers{
		OKX:       restapi.NewOKXHandler(okx, zapLogger),
		OpenOcean: restapi.NewOpenOceanHandler(openOcean, zapLogger),
		Stats:     restapi.NewStatsHandler(stats),
		Wallet:    restapi.NewWalletHandler(wallet, networks, cfg.Wallet.TargetChainID),
		NFT:       restapi.NewNFTHandler(transfers, paintSwap, cfg.Transfer.MaxBulkItems, zapLogger),
		Chain:     restapi.NewChainHandler(explorer, cfg.Explorer.ChainID),
	}, cfg.Server.AllowOrigins, zapLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}

func newZapLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.File != "" {
		zapCfg.OutputPaths = []string{"stdout", cfg.File}
	}
	return zapCfg.Build()
}
