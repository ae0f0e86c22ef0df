package handlers

import (
	"net/http"
	"strconv"

	"civicwatch/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// CreateReport files a new report from a multipart form with an optional
// image. Status always starts at pending.
func (h *Handlers) CreateReport(c *gin.Context) {
	var req models.CreateReportRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	imageFile, err := h.saveUpload(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := h.reports.Create(c.Request.Context(), &models.Report{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		Category:      req.Category,
		Priority:      req.Priority,
		ContactNumber: req.ContactNumber,
		ImageURL:      imageFile,
		UserID:        c.GetString("user_id"),
		UserEmail:     c.GetString("user_email"),
	})
	if err != nil {
		// Roll back the upload so the failed save leaves no orphan.
		h.discardBlob(c, imageFile)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListReports returns all reports, newest first, with optional status and
// location filters. Authority only.
func (h *Handlers) ListReports(c *gin.Context) {
	var filter models.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	reports, err := h.reports.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// MyReports returns the caller's own reports, newest first.
func (h *Handlers) MyReports(c *gin.Context) {
	var filter models.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	filter.UserID = c.GetString("user_id")

	reports, err := h.reports.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// GetReport returns a single report, visible to its owner and to the
// authority role.
func (h *Handlers) GetReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	report, err := h.reports.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if report.UserID != c.GetString("user_id") && c.GetString("user_role") != models.RoleAuthority {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "access denied"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// UpdateReport handles both lifecycle transitions (status field present,
// authority only) and detail edits (owner only, while pending). The request
// is multipart; transitions may attach a resolution image, edits may replace
// the report image.
func (h *Handlers) UpdateReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	var req models.UpdateReportRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if req.Status != "" {
		h.transitionReport(c, id, req)
		return
	}
	h.editReport(c, id, req)
}

func (h *Handlers) transitionReport(c *gin.Context, id int64, req models.UpdateReportRequest) {
	if c.GetString("user_role") != models.RoleAuthority {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "only authorities can change report status"})
		return
	}

	resolvedImage, err := h.saveUpload(c, "resolvedImage")
	if err != nil {
		respondError(c, err)
		return
	}

	report, oldResolved, err := h.reports.Transition(c.Request.Context(), id,
		models.Status(req.Status), c.GetString("user_id"), resolvedImage, req.ResolutionNotes)
	if err != nil {
		h.discardBlob(c, resolvedImage)
		respondError(c, err)
		return
	}

	if oldResolved != "" {
		if err := h.blobs.Delete(c.Request.Context(), oldResolved); err != nil {
			log.WithError(err).WithField("filename", oldResolved).Error("failed to delete superseded resolution image")
		}
	}

	h.notifyStatusChange(report)
	c.JSON(http.StatusOK, report)
}

func (h *Handlers) editReport(c *gin.Context, id int64, req models.UpdateReportRequest) {
	current, err := h.reports.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if current.UserID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "not the report owner"})
		return
	}

	imageFile, err := h.saveUpload(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}

	report, oldImage, err := h.reports.UpdateDetails(c.Request.Context(), id, req, imageFile)
	if err != nil {
		h.discardBlob(c, imageFile)
		respondError(c, err)
		return
	}

	if oldImage != "" {
		if err := h.blobs.Delete(c.Request.Context(), oldImage); err != nil {
			log.WithError(err).WithField("filename", oldImage).Error("failed to delete superseded report image")
		}
	}

	c.JSON(http.StatusOK, report)
}

// DeleteReport removes a report and its stored images. Owner or authority.
func (h *Handlers) DeleteReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	report, err := h.reports.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	isOwner := report.UserID == c.GetString("user_id")
	isAuthority := c.GetString("user_role") == models.RoleAuthority
	if !isOwner && !isAuthority {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "not authorized"})
		return
	}

	// Blobs first, then the row. No transaction spans the two; a crash in
	// between leaves a dangling image reference rather than an orphan blob.
	for _, filename := range []string{report.ImageURL, report.ResolvedImage} {
		if err := h.blobs.Delete(c.Request.Context(), filename); err != nil {
			respondError(c, err)
			return
		}
	}

	if err := h.reports.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "report deleted"})
}

func (h *Handlers) notifyStatusChange(report *models.Report) {
	if h.notifier == nil || report.UserEmail == "" {
		return
	}
	// Fire and forget; notification failures never fail the request.
	go func() {
		if err := h.notifier.SendStatusUpdate(report.UserEmail, report.Title, string(report.Status)); err != nil {
			log.WithError(err).WithField("report", report.ID).Error("failed to send status notification")
		}
	}()
}

func reportID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid report id"})
		return 0, false
	}
	return id, true
}
