package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store     pinger
	storeKind string
}

func NewHealthHandler(store pinger, storeKind string) *HealthHandler {
	return &HealthHandler{store: store, storeKind: storeKind}
}

// HealthCheck returns the health status of the API and its state store
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	storeStatus := "ok"
	status, code := "healthy", http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		storeStatus = err.Error()
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status": status,
		"state_store": gin.H{
			"kind":   h.storeKind,
			"status": storeStatus,
		},
	})
}
