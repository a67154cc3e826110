package entity

// HubStats is the snapshot served by the stats endpoints.
type HubStats struct {
	ChainID           uint64 `json:"chainId"`
	BlockNumber       uint64 `json:"blockNumber"`
	GasPriceWei       string `json:"gasPriceWei"`
	GasPriceGwei      string `json:"gasPriceGwei"`
	TransfersOK       uint64 `json:"transfersSucceeded"`
	TransfersFailed   uint64 `json:"transfersFailed"`
	UpdatedAtUnix     int64  `json:"updatedAt"`
	PersistedToRemote bool   `json:"persisted"`
}
