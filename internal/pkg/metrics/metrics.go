package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// WalletEvents counts provider events handled by the wallet manager.
	WalletEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staking_hub",
		Name:      "wallet_events_total",
		Help:      "Wallet provider events handled, by event type.",
	}, []string{"event"})

	// ProviderRequests observes wallet provider JSON-RPC latency.
	ProviderRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "staking_hub",
		Name:      "wallet_provider_request_seconds",
		Help:      "Wallet provider JSON-RPC request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "method", "status"})

	// NFTTransfers counts submitted NFT transfers by outcome.
	NFTTransfers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staking_hub",
		Name:      "nft_transfers_total",
		Help:      "NFT transfers attempted, by outcome.",
	}, []string{"status"})

	// UpstreamRequests observes third-party REST API latency.
	UpstreamRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "staking_hub",
		Name:      "upstream_request_seconds",
		Help:      "Third-party API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"upstream", "endpoint", "status"})

	registerOnce sync.Once
)

// MustRegisterMetrics registers the collectors with the default registry once.
func MustRegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(WalletEvents, ProviderRequests, NFTTransfers, UpstreamRequests)
	})
}

// Status maps an error onto the label used by the latency histograms.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
