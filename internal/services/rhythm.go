package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/talea-api/internal/dsl"
	"github.com/Conceptual-Machines/talea-api/internal/logger"
	"github.com/Conceptual-Machines/talea-api/internal/metrics"
	"github.com/Conceptual-Machines/talea-api/internal/models"
	"github.com/Conceptual-Machines/talea-api/internal/rhythm"
	"github.com/Conceptual-Machines/talea-api/internal/store"
)

// Request sources, recorded in logs and metrics
const (
	SourceJSON = "json"
	SourceDSL  = "dsl"
	SourceMIDI = "midi"
)

var (
	ErrTooManySegments = errors.New("too many segments")
	ErrInvalidProgram  = errors.New("invalid rhythm program")
)

// Generation is one rhythm call, however it arrived
type Generation struct {
	Source   string
	Config   rhythm.Config
	Segments []rhythm.Segment
	// State is nil when the caller sent no manifest
	State  rhythm.Manifest
	Stream string

	RequestID string
	UserID    string
}

// RhythmService runs rhythm calls and keeps stream cursors
type RhythmService struct {
	store       store.StateStore
	parser      *dsl.RhythmDSLParser
	cloudwatch  *metrics.Client
	sentry      *metrics.SentryMetrics
	maxSegments int
}

// NewRhythmService creates the service. cloudwatch may be nil
func NewRhythmService(st store.StateStore, cloudwatch *metrics.Client, maxSegments int) (*RhythmService, error) {
	parser, err := dsl.NewRhythmDSLParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create DSL parser: %w", err)
	}
	return &RhythmService{
		store:       st,
		parser:      parser,
		cloudwatch:  cloudwatch,
		sentry:      metrics.NewSentryMetrics(),
		maxSegments: maxSegments,
	}, nil
}

// ParseDSL turns DSL code into a generation
func (s *RhythmService) ParseDSL(ctx context.Context, code string) (*Generation, error) {
	prog, err := s.parser.Parse(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProgram, err)
	}
	return &Generation{
		Source:   SourceDSL,
		Config:   prog.Config,
		Segments: prog.Segments,
		State:    prog.State,
		Stream:   prog.Stream,
	}, nil
}

// Generate runs one call. Without a stream the manifest applies over the zero state
// and a nil manifest starts from zero. With a stream the manifest applies over the
// stored cursor, a nil manifest continues it, and the cursor is stored only when the
// call succeeds
func (s *RhythmService) Generate(ctx context.Context, g *Generation) (*rhythm.Result, error) {
	start := time.Now()
	res, err := s.generate(ctx, g)
	duration := time.Since(start)

	sample := metrics.RhythmSample{
		Source:   g.Source,
		Segments: len(g.Segments),
		Duration: duration,
		Success:  err == nil,
	}
	fields := logger.Fields{
		"request_id": g.RequestID,
		"source":     g.Source,
		"user_id":    g.UserID,
	}

	if err != nil {
		fields["error"] = err.Error()
		fields["stream"] = g.Stream
		if IsClientError(err) {
			logger.Warn("Rhythm request rejected", fields)
		} else {
			logger.Error("Rhythm request failed", err, fields)
		}
		s.record(ctx, sample)
		return nil, err
	}

	sample.SlotsConsumed = res.Stats.SlotsConsumed
	sample.Leaves = res.Stats.Leaves
	s.record(ctx, sample)

	logger.LogRhythmRequest(ctx, g.Stream, duration, map[string]interface{}{
		"segments":       res.Stats.Segments,
		"slots_consumed": res.Stats.SlotsConsumed,
		"leaves":         res.Stats.Leaves,
		"tuplets":        res.Stats.Tuplets,
		"next_attack":    res.State.NextAttack,
		"next_segment":   res.State.NextSegment,
	}, fields)

	entry := &models.GenerationLog{
		Stream:        g.Stream,
		Source:        g.Source,
		Segments:      res.Stats.Segments,
		SlotsConsumed: res.Stats.SlotsConsumed,
		Leaves:        res.Stats.Leaves,
		Tuplets:       res.Stats.Tuplets,
		Duration:      rhythm.FormatDuration(res.Stats.Duration),
		DurationMS:    int(duration.Milliseconds()),
		RequestID:     g.RequestID,
		UserID:        g.UserID,
	}
	if err := s.store.RecordGeneration(ctx, entry); err != nil {
		logger.Warn("Failed to record generation", logger.Fields{"request_id": g.RequestID, "error": err.Error()})
	}
	return res, nil
}

func (s *RhythmService) generate(ctx context.Context, g *Generation) (*rhythm.Result, error) {
	if s.maxSegments > 0 && len(g.Segments) > s.maxSegments {
		return nil, fmt.Errorf("%w: %d (limit %d)", ErrTooManySegments, len(g.Segments), s.maxSegments)
	}
	maker, err := rhythm.NewMaker(g.Config)
	if err != nil {
		return nil, err
	}

	if g.Stream == "" {
		return rhythm.NewStream(maker).Call(g.Segments, g.State)
	}

	var res *rhythm.Result
	_, err = s.store.Update(ctx, g.Stream, func(prior rhythm.State) (rhythm.State, error) {
		from := prior
		if g.State != nil {
			applied, err := prior.Apply(g.State)
			if err != nil {
				return prior, err
			}
			from = applied
		}
		made, err := maker.Make(g.Segments, from)
		if err != nil {
			return prior, err
		}
		res = made
		return made.State, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *RhythmService) record(ctx context.Context, sample metrics.RhythmSample) {
	s.cloudwatch.RecordRhythmGeneration(sample)
	s.sentry.RecordRhythmGeneration(ctx, sample)
}

// StreamState returns the stored cursor of a stream
func (s *RhythmService) StreamState(ctx context.Context, name string) (rhythm.State, error) {
	return s.store.Load(ctx, name)
}

// SetStreamState applies a manifest over the stream's cursor (zero for new streams)
func (s *RhythmService) SetStreamState(ctx context.Context, name string, manifest rhythm.Manifest) (rhythm.State, error) {
	state, err := s.store.Update(ctx, name, func(prior rhythm.State) (rhythm.State, error) {
		return prior.Apply(manifest)
	})
	if err != nil {
		return rhythm.State{}, err
	}
	logger.Info("Stream state set", logger.Fields{
		"stream":       name,
		"next_attack":  state.NextAttack,
		"next_segment": state.NextSegment,
	})
	return state, nil
}

// DeleteStream forgets a stream's cursor
func (s *RhythmService) DeleteStream(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, name); err != nil {
		return err
	}
	logger.Info("Stream deleted", logger.Fields{"stream": name})
	return nil
}

// ListStreams returns every stored stream
func (s *RhythmService) ListStreams(ctx context.Context) ([]models.StreamState, error) {
	return s.store.List(ctx)
}

// Ping checks the state store
func (s *RhythmService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// IsClientError reports whether err was caused by the request rather than the service
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrTooManySegments,
		ErrInvalidProgram,
		rhythm.ErrInvalidTalea,
		rhythm.ErrInvalidTimeTreatment,
		rhythm.ErrInvalidState,
		rhythm.ErrInvalidSegment,
		rhythm.ErrAcciaccaturaMismatch,
		rhythm.ErrImproperTupletMultiplier,
		rhythm.ErrRewriteMeterNotImplemented,
		store.ErrInvalidStreamName,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
