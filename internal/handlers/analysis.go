package handlers

import (
	"fmt"
	"net/http"

	"predictive_maintenance/internal/models"
	"predictive_maintenance/internal/pipeline"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK       = "ok"
	statusAccepted = "accepted"
)

// AnalyzeRequest is the body of POST /api/v1/analysis.
type AnalyzeRequest struct {
	// Feature values keyed by feature id, see GET /api/v1/schema
	Telemetry models.TelemetryInput `json:"telemetry" binding:"required"`
	// Optional SMS recipient for the alert
	Phone string `json:"phone,omitempty" example:"+998901234567"`
	// Use the configured default phone when phone is empty
	UseDefaultPhone bool `json:"use_default_phone,omitempty"`
	// Name of the closest workshop, forwarded in the alert
	NearestCenter string `json:"nearest_center,omitempty"`
}

type emailRequest struct {
	Email string `json:"email,omitempty"`
}

type smsRequest struct {
	Phone string `json:"phone,omitempty"`
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Feature schema
// @Tags         analysis
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "features"
// @Router       /api/v1/schema [get]
// @Security     BearerAuth
func (h *Handler) getSchema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"features": h.services.Dashboard.Schema()})
}

// @Summary      Run analysis
// @Description  Replaces the current result. Insights, report upload, SMS and chat start in the background.
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        body  body      AnalyzeRequest  true  "Telemetry payload"
// @Success      200   {object}  pipeline.Snapshot
// @Failure      400   {object}  map[string]interface{}
// @Failure      409   {object}  map[string]string
// @Failure      502   {object}  map[string]interface{}  "error, snapshot"
// @Router       /api/v1/analysis [post]
// @Security     BearerAuth
func (h *Handler) analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	snap, err := h.services.Dashboard.Analyze(c.Request.Context(), pipeline.AnalyzeRequest{
		Telemetry:       req.Telemetry,
		Phone:           req.Phone,
		UseDefaultPhone: req.UseDefaultPhone,
		NearestCenter:   req.NearestCenter,
	})
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			// anything the predictor returns that is not a rejection
			code = http.StatusBadGateway
		}
		if h.log != nil {
			h.log.Warnw("analysis_failed", "err", err, "status", code)
		}
		c.JSON(code, gin.H{"error": err.Error(), "snapshot": snap})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Current analysis snapshot
// @Tags         analysis
// @Produce      json
// @Success      200  {object}  pipeline.Snapshot
// @Router       /api/v1/analysis [get]
// @Security     BearerAuth
func (h *Handler) getAnalysis(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Dashboard.Snapshot())
}

// @Summary      Refresh insights
// @Tags         analysis
// @Produce      json
// @Success      202  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/analysis/insights [post]
// @Security     BearerAuth
func (h *Handler) refreshInsights(c *gin.Context) {
	if err := h.services.Dashboard.RefreshInsights(); err != nil {
		h.commandError(c, "insights_refresh_rejected", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusAccepted})
}

// @Summary      Retry report upload
// @Description  Only allowed after the automatic upload failed.
// @Tags         analysis
// @Produce      json
// @Success      202  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/analysis/report/upload [post]
// @Security     BearerAuth
func (h *Handler) retryUpload(c *gin.Context) {
	if err := h.services.Dashboard.RetryUpload(); err != nil {
		h.commandError(c, "upload_retry_rejected", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusAccepted})
}

// @Summary      Download report
// @Tags         analysis
// @Produce      application/pdf
// @Success      200  {file}    binary
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/analysis/report [get]
// @Security     BearerAuth
func (h *Handler) downloadReport(c *gin.Context) {
	art, err := h.services.Dashboard.Download()
	if err != nil {
		h.commandError(c, "report_download_failed", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	c.Data(http.StatusOK, "application/pdf", art.Content)
}

// @Summary      Email the uploaded report
// @Description  Falls back to the configured default address when email is empty.
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Success      202  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/analysis/email [post]
// @Security     BearerAuth
func (h *Handler) sendEmail(c *gin.Context) {
	var req emailRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if err := h.services.Dashboard.SendEmail(req.Email); err != nil {
		h.commandError(c, "email_rejected", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusAccepted})
}

// @Summary      Send SMS alert
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Success      202  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/analysis/sms [post]
// @Security     BearerAuth
func (h *Handler) sendSms(c *gin.Context) {
	var req smsRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if err := h.services.Dashboard.SendAlert(req.Phone); err != nil {
		h.commandError(c, "sms_rejected", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusAccepted})
}

// @Summary      Initialize chat assistant
// @Tags         chat
// @Produce      json
// @Success      202  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/analysis/chat/init [post]
// @Security     BearerAuth
func (h *Handler) initChat(c *gin.Context) {
	if err := h.services.Dashboard.InitChat(); err != nil {
		h.commandError(c, "chat_init_rejected", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusAccepted})
}

// @Summary      Chat with the assistant
// @Tags         chat
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.ChatMessage
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/analysis/chat [post]
// @Security     BearerAuth
func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	msg, err := h.services.Dashboard.Chat(c.Request.Context(), req.Message)
	if err != nil {
		h.commandError(c, "chat_message_rejected", err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// @Summary      Dismiss a notice
// @Tags         analysis
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/analysis/notices/{id} [delete]
// @Security     BearerAuth
func (h *Handler) dismissNotice(c *gin.Context) {
	if !h.services.Dashboard.DismissNotice(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notice not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
