package handlers

import (
	"crypto/subtle"
	"net/http"

	"civicwatch/models"

	"github.com/gin-gonic/gin"
)

// SetupAuthority elevates the caller to the authority role after verifying
// the out-of-band PIN. The role lives in exactly one place, so the single
// UPDATE either fully applies or fully fails.
func (h *Handlers) SetupAuthority(c *gin.Context) {
	var req models.SetupAuthorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.PIN), []byte(h.authorityPIN)) != 1 {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "invalid authority PIN"})
		return
	}

	userID := c.GetString("user_id")
	if err := h.users.SetRole(c.Request.Context(), userID, models.RoleAuthority); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "authority role set successfully",
		"uid":     userID,
		"role":    models.RoleAuthority,
	})
}

// SetRole assigns a role to any user. Authority only.
func (h *Handlers) SetRole(c *gin.Context) {
	var req models.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.users.SetRole(c.Request.Context(), req.UserID, req.Role); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Message: "role " + req.Role + " set for user " + req.UserID,
	})
}

// MyRole reports the caller's stored role, read back fresh from the source
// of truth rather than echoed from the session.
func (h *Handlers) MyRole(c *gin.Context) {
	userID := c.GetString("user_id")
	role, err := h.users.GetRole(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RoleResponse{
		UserID: userID,
		Email:  c.GetString("user_email"),
		Role:   role,
	})
}
