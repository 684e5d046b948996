package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/talea-api/internal/api/middleware"
	"github.com/Conceptual-Machines/talea-api/internal/audition"
	"github.com/Conceptual-Machines/talea-api/internal/config"
	"github.com/Conceptual-Machines/talea-api/internal/logger"
	"github.com/Conceptual-Machines/talea-api/internal/models"
	"github.com/Conceptual-Machines/talea-api/internal/rhythm"
	"github.com/Conceptual-Machines/talea-api/internal/services"
	"github.com/gin-gonic/gin"
)

type RhythmHandler struct {
	svc *services.RhythmService
	cfg *config.Config
}

func NewRhythmHandler(svc *services.RhythmService, cfg *config.Config) *RhythmHandler {
	return &RhythmHandler{svc: svc, cfg: cfg}
}

// DSLRequest is the JSON form of a DSL call
type DSLRequest struct {
	DSL string `json:"dsl" binding:"required"`
}

// Generate runs a JSON rhythm request
func (h *RhythmHandler) Generate(c *gin.Context) {
	g, ok := h.bindGeneration(c, services.SourceJSON)
	if !ok {
		return
	}
	res, err := h.svc.Generate(c.Request.Context(), g)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewRhythmResponse(g.Stream, res))
}

// GenerateDSL runs DSL code sent as text/plain or as {"dsl": "..."}
func (h *RhythmHandler) GenerateDSL(c *gin.Context) {
	var code string
	if c.ContentType() == gin.MIMEJSON {
		var req DSLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		code = req.DSL
	} else {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDSLBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
			return
		}
		code = string(body)
	}
	if strings.TrimSpace(code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty DSL code"})
		return
	}

	ctx := c.Request.Context()
	g, err := h.svc.ParseDSL(ctx, code)
	if err != nil {
		respondError(c, err)
		return
	}
	h.stamp(c, g)

	res, err := h.svc.Generate(ctx, g)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewRhythmResponse(g.Stream, res))
}

// GenerateMIDI runs a JSON rhythm request and returns a Standard MIDI File, or the
// note events as JSON with ?format=events
func (h *RhythmHandler) GenerateMIDI(c *gin.Context) {
	g, ok := h.bindGeneration(c, services.SourceMIDI)
	if !ok {
		return
	}

	opts := audition.Options{TempoBPM: h.cfg.MIDITempoBPM}
	if tempo := c.Query("tempo"); tempo != "" {
		bpm, err := strconv.ParseFloat(tempo, 64)
		if err != nil || bpm <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tempo must be a positive number"})
			return
		}
		opts.TempoBPM = bpm
	}

	res, err := h.svc.Generate(c.Request.Context(), g)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "events" {
		events, length := audition.Render(res.Selections, opts)
		c.JSON(http.StatusOK, models.EventsResponse{
			Stream:      g.Stream,
			TempoBPM:    opts.TempoBPM,
			LengthBeats: audition.Beats(length),
			Notes:       audition.NoteEvents(events),
			State:       res.Manifest(),
		})
		return
	}

	var buf bytes.Buffer
	if err := audition.WriteSMF(&buf, res.Selections, opts); err != nil {
		respondError(c, err)
		return
	}
	setStateHeaders(c, res.State)
	c.Header("Content-Disposition", `attachment; filename="`+midiFilename+`"`)
	c.Data(http.StatusOK, midiContentType, buf.Bytes())
}

func (h *RhythmHandler) bindGeneration(c *gin.Context, source string) (*services.Generation, bool) {
	var req models.RhythmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid rhythm request", logger.WithContext(c))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	cfg, segments, err := req.Build()
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	g := &services.Generation{
		Source:   source,
		Config:   cfg,
		Segments: segments,
		State:    req.State,
		Stream:   req.Stream,
	}
	h.stamp(c, g)
	return g, true
}

func (h *RhythmHandler) stamp(c *gin.Context, g *services.Generation) {
	g.RequestID = c.GetString("request_id")
	g.UserID, _ = middleware.GetUserID(c)
}

func setStateHeaders(c *gin.Context, st rhythm.State) {
	c.Header(headerNextAttack, strconv.Itoa(st.NextAttack))
	c.Header(headerNextSegment, strconv.Itoa(st.NextSegment))
}
