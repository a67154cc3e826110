package restapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"staking_hub/internal/pkg/utils"
)

// Handlers groups the route handlers of the hub API.
type Handlers struct {
	OKX       *OKXHandler
	OpenOcean *OpenOceanHandler
	Stats     *StatsHandler
	Wallet    *WalletHandler
	NFT       *NFTHandler
	Chain     *ChainHandler
}

// SetupRouter configures and returns the gin router.
func SetupRouter(h Handlers, allowOrigins []string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), utils.ZapLoggerMiddleware(logger))

	corsCfg := cors.DefaultConfig()
	if len(allowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowOrigins
	}
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsCfg.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsCfg))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/okx", h.OKX.Handle)
		api.POST("/okx", h.OKX.Handle)
		api.GET("/validate-okx", h.OKX.Validate)

		api.POST("/openocean/proxy", h.OpenOcean.Proxy)
		api.GET("/openocean/status", h.OpenOcean.Status)

		api.POST("/stats/update", h.Stats.Update)
		api.GET("/stats", h.Stats.Get)

		api.GET("/wallet", h.Wallet.State)
		api.POST("/wallet/connect", h.Wallet.Connect)
		api.POST("/wallet/disconnect", h.Wallet.Disconnect)
		api.POST("/wallet/refresh", h.Wallet.Refresh)
		api.POST("/wallet/switch-network", h.Wallet.SwitchNetwork)
		api.GET("/wallet/network", h.Wallet.Network)

		api.POST("/nft/transfer", h.NFT.Transfer)
		api.POST("/nft/bulk-transfer", h.NFT.BulkTransfer)
		api.POST("/nft/estimate", h.NFT.Estimate)
		api.POST("/nft/estimate-bulk", h.NFT.EstimateBulk)
		api.GET("/nft/owner", h.NFT.Owner)
		api.GET("/nfts/:owner", h.NFT.UserNFTs)

		api.GET("/tx/:hash", h.Chain.Transaction)
		api.GET("/chain/status", h.Chain.Status)
		api.POST("/payments/verify", h.Chain.VerifyPayment)
	}

	return router
}
