package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetReportImage streams a stored image by filename. Public read; knowing a
// valid generated filename is the only requirement.
func (h *Handlers) GetReportImage(c *gin.Context) {
	content, contentType, err := h.blobs.Open(c.Request.Context(), c.Param("filename"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cross-Origin-Resource-Policy", "cross-origin")
	c.Data(http.StatusOK, contentType, content)
}
