package handlers

import (
	"errors"
	"io"
	"net/http"

	"civicwatch/database"
	"civicwatch/models"
	"civicwatch/utils/email"
	"civicwatch/utils/imgproc"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// Handlers handles HTTP requests for the reporting service.
type Handlers struct {
	auth         *database.AuthService
	users        *database.UserService
	reports      *database.ReportService
	stats        *database.StatsService
	blobs        *database.BlobStore
	notifier     *email.Notifier
	authorityPIN string
}

// NewHandlers creates a new handlers instance. notifier may be nil when no
// SendGrid key is configured; notifications are then skipped.
func NewHandlers(auth *database.AuthService, users *database.UserService,
	reports *database.ReportService, stats *database.StatsService,
	blobs *database.BlobStore, notifier *email.Notifier, authorityPIN string) *Handlers {
	return &Handlers{
		auth:         auth,
		users:        users,
		reports:      reports,
		stats:        stats,
		blobs:        blobs,
		notifier:     notifier,
		authorityPIN: authorityPIN,
	}
}

// HealthCheck returns the service health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "civicwatch",
	})
}

// respondError maps service errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, database.ErrDuplicate):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, database.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, database.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, database.ErrInvalidTransition),
		errors.Is(err, database.ErrResolutionImageRequired),
		errors.Is(err, database.ErrReportImmutable),
		errors.Is(err, database.ErrUnsupportedImageType),
		errors.Is(err, database.ErrBlobTooLarge):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	default:
		log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
	}
}

// saveUpload reads an optional multipart image, normalizes it and stores it
// as a blob. It returns the generated filename, or "" when the request
// carries no file under that field.
func (h *Handlers) saveUpload(c *gin.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		// No file attached.
		return "", nil
	}

	if fh.Size > database.MaxBlobSize {
		return "", database.ErrBlobTooLarge
	}

	contentType := fh.Header.Get("Content-Type")
	if !database.AllowedImageType(contentType) {
		return "", database.ErrUnsupportedImageType
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, database.MaxBlobSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > database.MaxBlobSize {
		return "", database.ErrBlobTooLarge
	}

	normalized, err := imgproc.Normalize(data, contentType)
	if err != nil {
		log.WithError(err).Warn("image normalization failed, storing original")
		normalized = data
	}

	return h.blobs.Save(c.Request.Context(), normalized, contentType, c.GetString("user_id"))
}

// discardBlob removes a blob written before a failed save, keeping storage
// free of orphans.
func (h *Handlers) discardBlob(c *gin.Context, filename string) {
	if filename == "" {
		return
	}
	if err := h.blobs.Delete(c.Request.Context(), filename); err != nil {
		log.WithError(err).WithField("filename", filename).Error("failed to roll back uploaded blob")
	}
}
