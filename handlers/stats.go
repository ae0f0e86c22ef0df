package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetReportStats returns the dashboard aggregates. Authority only; computed
// fresh on every call.
func (h *Handlers) GetReportStats(c *gin.Context) {
	stats, err := h.stats.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
