package handlers

import (
	"errors"
	"io"
	"net/http"

	"predictive_maintenance/internal/client"
	"predictive_maintenance/internal/encoder"
	"predictive_maintenance/internal/geo"
	"predictive_maintenance/internal/pipeline"

	"github.com/gin-gonic/gin"
)

const errInvalidBodyPref = "invalid body: "

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// statusFor maps service errors to HTTP codes. Rejected commands are
// conflicts or bad input; collaborator failures are upstream errors.
func statusFor(err error) int {
	var (
		encErr *encoder.EncodingError
		geoErr *geo.GeolocationError
	)
	switch {
	case errors.As(err, &encErr),
		errors.Is(err, pipeline.ErrNoRecipient),
		errors.Is(err, pipeline.ErrInvalidEmail),
		errors.Is(err, pipeline.ErrInvalidPhone),
		errors.Is(err, pipeline.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoResult),
		errors.Is(err, pipeline.ErrNotUploaded),
		errors.Is(err, pipeline.ErrUploadNotRetryable),
		errors.Is(err, pipeline.ErrEmailInProgress),
		errors.Is(err, pipeline.ErrSmsInProgress),
		errors.Is(err, pipeline.ErrSmsAlreadySent),
		errors.Is(err, pipeline.ErrNoContributors),
		errors.Is(err, pipeline.ErrChatNotReady),
		errors.Is(err, pipeline.ErrChatInitializing),
		errors.Is(err, pipeline.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &geoErr):
		return http.StatusUnprocessableEntity
	case client.IsNetworkError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// commandError answers a rejected or failed command.
func (h *Handler) commandError(c *gin.Context, logKey string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logAndJSONError(c, code, err.Error(), logKey, err)
		return
	}
	if h.log != nil {
		h.log.Infow(logKey, "err", err, "status", code)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// bindOptionalJSON accepts an empty body. Returns false if the request was
// already answered.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}
