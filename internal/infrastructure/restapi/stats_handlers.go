package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"staking_hub/internal/app/port"
)

// StatsHandler serves the cached hub statistics.
type StatsHandler struct {
	stats port.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(stats port.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Update serves POST /api/stats/update.
func (h *StatsHandler) Update(c *gin.Context) {
	stats, err := h.stats.Update(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}
	respondOK(c, stats)
}

// Get serves GET /api/stats.
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.stats.Get(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondOK(c, stats)
}
