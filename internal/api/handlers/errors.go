package handlers

import (
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/talea-api/internal/logger"
	"github.com/Conceptual-Machines/talea-api/internal/rhythm"
	"github.com/Conceptual-Machines/talea-api/internal/services"
	"github.com/Conceptual-Machines/talea-api/internal/store"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrStreamNotFound):
		return http.StatusNotFound
	case errors.Is(err, rhythm.ErrImproperTupletMultiplier),
		errors.Is(err, rhythm.ErrRewriteMeterNotImplemented):
		return http.StatusUnprocessableEntity
	case services.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Server errors hide their message
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", err, logger.WithContext(c))
		c.JSON(status, gin.H{
			"error":      "Internal server error",
			"request_id": c.GetString("request_id"),
		})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
