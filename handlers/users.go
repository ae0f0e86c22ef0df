package handlers

import (
	"net/http"

	"civicwatch/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// Profile returns the caller's own user record.
func (h *Handlers) Profile(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the caller's name and/or profile photo. The request
// is multipart; a new photo supersedes and deletes the old blob.
func (h *Handlers) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var namePtr *string
	if name := c.PostForm("name"); name != "" {
		namePtr = &name
	}

	avatarFile, err := h.saveUpload(c, "profilePhoto")
	if err != nil {
		respondError(c, err)
		return
	}
	var avatarPtr *string
	if avatarFile != "" {
		avatarPtr = &avatarFile
	}

	user, oldAvatar, err := h.users.UpdateProfile(c.Request.Context(), userID, namePtr, avatarPtr)
	if err != nil {
		h.discardBlob(c, avatarFile)
		respondError(c, err)
		return
	}

	if oldAvatar != "" {
		if err := h.blobs.Delete(c.Request.Context(), oldAvatar); err != nil {
			log.WithError(err).WithField("filename", oldAvatar).Error("failed to delete superseded avatar")
		}
	}

	c.JSON(http.StatusOK, user)
}

// CreateUser creates the caller's own profile record. Registration normally
// does this already, so an existing record answers 409.
func (h *Handlers) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.users.Create(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser returns a user record by ID. Callers may read their own record;
// the authority role may read any.
func (h *Handlers) GetUser(c *gin.Context) {
	id := c.Param("id")
	if id != c.GetString("user_id") && c.GetString("user_role") != models.RoleAuthority {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "cannot access other user data"})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
