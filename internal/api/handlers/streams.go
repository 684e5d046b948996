package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/talea-api/internal/rhythm"
	"github.com/Conceptual-Machines/talea-api/internal/services"
	"github.com/gin-gonic/gin"
)

type StreamHandler struct {
	svc *services.RhythmService
}

func NewStreamHandler(svc *services.RhythmService) *StreamHandler {
	return &StreamHandler{svc: svc}
}

// StreamStateResponse is a stream's cursor
type StreamStateResponse struct {
	Name  string          `json:"name"`
	State rhythm.Manifest `json:"state"`
}

// List returns every stored stream
func (h *StreamHandler) List(c *gin.Context) {
	rows, err := h.svc.ListStreams(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streams": rows})
}

// GetState returns a stream's cursor
func (h *StreamHandler) GetState(c *gin.Context) {
	name := c.Param("name")
	st, err := h.svc.StreamState(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StreamStateResponse{Name: name, State: st.Manifest()})
}

// PutState applies a manifest over a stream's cursor, creating the stream if needed
func (h *StreamHandler) PutState(c *gin.Context) {
	var manifest rhythm.Manifest
	if err := c.ShouldBindJSON(&manifest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := c.Param("name")
	st, err := h.svc.SetStreamState(c.Request.Context(), name, manifest)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StreamStateResponse{Name: name, State: st.Manifest()})
}

// DeleteState forgets a stream
func (h *StreamHandler) DeleteState(c *gin.Context) {
	if err := h.svc.DeleteStream(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
