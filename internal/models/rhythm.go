package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/talea-api/internal/rhythm"
)

// TaleaSpec is the talea of a request
type TaleaSpec struct {
	Counts      []int `json:"counts" binding:"required"`
	Denominator int   `json:"denominator"`
}

// AcciaccaturaSpec mirrors rhythm.AcciaccaturaSpecifier with durations as "n/d"
type AcciaccaturaSpec struct {
	Durations    []string     `json:"durations,omitempty"`
	Pattern      *PatternSpec `json:"pattern,omitempty"`
	Left         int          `json:"left,omitempty"`
	Right        int          `json:"right,omitempty"`
	LeftCounts   []int        `json:"left_counts,omitempty"`
	MiddleCounts []int        `json:"middle_counts,omitempty"`
	RightCounts  []int        `json:"right_counts,omitempty"`
}

// PatternSpec selects indices cyclically. An empty period means the indices are absolute
type PatternSpec struct {
	Indices  []int `json:"indices"`
	Period   int   `json:"period,omitempty"`
	Inverted bool  `json:"inverted,omitempty"`
}

// BeamSpec configures beaming
type BeamSpec struct {
	EachDivision      bool `json:"each_division"`
	DivisionsTogether bool `json:"divisions_together"`
	Rests             bool `json:"rests"`
}

// MaskSpec silences or sustains the divisions or logical ties a pattern selects.
// A nil pattern selects everything
type MaskSpec struct {
	Kind    string       `json:"kind"`
	Pattern *PatternSpec `json:"pattern,omitempty"`
}

// SpellingSpec configures leaf spelling. Nil fields keep the defaults
type SpellingSpec struct {
	DecreaseMonotonically *bool `json:"decrease_monotonically,omitempty"`
	RewriteMeter          bool  `json:"rewrite_meter,omitempty"`
}

// PolicySpec configures how counts are expanded around attacks. Nil fields keep the
// defaults
type PolicySpec struct {
	RunOutRests       *bool `json:"run_out_rests,omitempty"`
	StopRunOutAtCycle *bool `json:"stop_run_out_at_cycle,omitempty"`
}

// RhythmRequest is the JSON body of a rhythm call
type RhythmRequest struct {
	Talea      TaleaSpec      `json:"talea" binding:"required"`
	Treatments TreatmentList  `json:"treatments,omitempty"`
	Segments   []SegmentInput `json:"segments"`
	// State is nil when the key is absent
	State  rhythm.Manifest `json:"state,omitempty"`
	Stream string          `json:"stream,omitempty"`

	Acciaccatura    *AcciaccaturaSpec `json:"acciaccatura,omitempty"`
	Beam            *BeamSpec         `json:"beam,omitempty"`
	DivisionMasks   []MaskSpec        `json:"division_masks,omitempty"`
	LogicalTieMasks []MaskSpec        `json:"logical_tie_masks,omitempty"`
	Spelling        *SpellingSpec     `json:"spelling,omitempty"`
	Policy          *PolicySpec       `json:"policy,omitempty"`
}

// TreatmentList accepts numbers and treatment tokens ("accel", "3:2", "x3/2", "3/16")
type TreatmentList []rhythm.TimeTreatment

// UnmarshalJSON decodes a list of numbers or strings
func (l *TreatmentList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("treatments must be an array: %w", err)
	}
	out := make(TreatmentList, 0, len(raw))
	for i, item := range raw {
		token, err := tokenOf(item)
		if err != nil {
			return fmt.Errorf("treatment %d: %w", i, err)
		}
		t, err := rhythm.ParseTimeTreatment(token)
		if err != nil {
			return fmt.Errorf("treatment %d: %w", i, err)
		}
		out = append(out, t)
	}
	*l = out
	return nil
}

// MarshalJSON encodes treatments as tokens
func (l TreatmentList) MarshalJSON() ([]byte, error) {
	tokens := make([]string, len(l))
	for i, t := range l {
		tokens[i] = fmt.Sprint(t)
	}
	return json.Marshal(tokens)
}

// SegmentInput is one segment. It decodes from a token string ("0 2 r 3/2:skip") or an
// array of numbers, tokens and nulls, where null is a rest
type SegmentInput rhythm.Segment

// UnmarshalJSON decodes a segment
func (s *SegmentInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		seg, err := rhythm.ParseSegment(text)
		if err != nil {
			return err
		}
		*s = SegmentInput(seg)
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("segment must be a string or an array: %w", err)
	}
	seg := make(rhythm.Segment, 0, len(raw))
	for i, item := range raw {
		if string(bytes.TrimSpace(item)) == "null" {
			seg = append(seg, rhythm.Rest{})
			continue
		}
		token, err := tokenOf(item)
		if err != nil {
			return fmt.Errorf("expression %d: %w", i, err)
		}
		e, err := rhythm.ParsePitchExpression(token)
		if err != nil {
			return fmt.Errorf("expression %d: %w", i, err)
		}
		seg = append(seg, e)
	}
	*s = SegmentInput(seg)
	return nil
}

// MarshalJSON encodes the segment as its token string
func (s SegmentInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(rhythm.Segment(s).String())
}

// tokenOf renders a JSON number or string as a token; null is the empty token
func tokenOf(item json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(item))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch val := v.(type) {
	case nil:
		return "", nil
	case json.Number:
		return val.String(), nil
	case string:
		return strings.TrimSpace(val), nil
	default:
		return "", fmt.Errorf("expected number or string, got %s", string(item))
	}
}

// Build turns the request into a maker configuration and segments
func (r *RhythmRequest) Build() (rhythm.Config, []rhythm.Segment, error) {
	var cfg rhythm.Config

	den := r.Talea.Denominator
	if den == 0 {
		den = 16
	}
	talea, err := rhythm.NewTalea(r.Talea.Counts, den)
	if err != nil {
		return cfg, nil, err
	}
	cfg.Talea = talea
	cfg.Treatments = r.Treatments

	if r.Acciaccatura != nil {
		spec, err := r.Acciaccatura.build()
		if err != nil {
			return cfg, nil, err
		}
		cfg.Acciaccatura = spec
	}
	if r.Beam != nil {
		cfg.Beam = rhythm.BeamSpecifier{
			BeamEachDivision:      r.Beam.EachDivision,
			BeamDivisionsTogether: r.Beam.DivisionsTogether,
			BeamRests:             r.Beam.Rests,
		}
	}
	if cfg.DivisionMasks, err = buildMasks(r.DivisionMasks); err != nil {
		return cfg, nil, err
	}
	if cfg.LogicalTieMasks, err = buildMasks(r.LogicalTieMasks); err != nil {
		return cfg, nil, err
	}

	if r.Spelling != nil {
		spelling := rhythm.DefaultSpelling()
		if r.Spelling.DecreaseMonotonically != nil {
			spelling.DecreaseMonotonically = *r.Spelling.DecreaseMonotonically
		}
		spelling.RewriteMeter = r.Spelling.RewriteMeter
		cfg.Spelling = &spelling
	}
	if r.Policy != nil {
		policy := rhythm.DefaultExpansionPolicy()
		if r.Policy.RunOutRests != nil {
			policy.RunOutRests = *r.Policy.RunOutRests
		}
		if r.Policy.StopRunOutAtCycle != nil {
			policy.StopRunOutAtCycle = *r.Policy.StopRunOutAtCycle
		}
		cfg.Policy = &policy
	}

	segments := make([]rhythm.Segment, len(r.Segments))
	for i, s := range r.Segments {
		segments[i] = rhythm.Segment(s)
	}
	return cfg, segments, nil
}

func (s *AcciaccaturaSpec) build() (*rhythm.AcciaccaturaSpecifier, error) {
	spec := &rhythm.AcciaccaturaSpecifier{
		LMR: rhythm.LMRSpecifier{
			LeftLength:   s.Left,
			RightLength:  s.Right,
			LeftCounts:   s.LeftCounts,
			MiddleCounts: s.MiddleCounts,
			RightCounts:  s.RightCounts,
		},
	}
	for _, d := range s.Durations {
		dur, err := rhythm.ParseDuration(d)
		if err != nil {
			return nil, fmt.Errorf("acciaccatura: %w", err)
		}
		spec.Durations = append(spec.Durations, dur)
	}
	if s.Pattern != nil {
		p := s.Pattern.pattern()
		spec.Pattern = &p
	}
	return spec, nil
}

func (p *PatternSpec) pattern() rhythm.Pattern {
	if p == nil {
		return rhythm.Every()
	}
	return rhythm.Pattern{Indices: p.Indices, Period: p.Period, Inverted: p.Inverted}
}

func buildMasks(specs []MaskSpec) ([]rhythm.Mask, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	masks := make([]rhythm.Mask, 0, len(specs))
	for i, s := range specs {
		name := s.Kind
		if name == "" {
			name = "silence"
		}
		kind, err := rhythm.ParseMaskKind(name)
		if err != nil {
			return nil, fmt.Errorf("mask %d: %w", i, err)
		}
		masks = append(masks, rhythm.Mask{Kind: kind, Pattern: s.Pattern.pattern()})
	}
	return masks, nil
}

// LeafOutput is one leaf of a response
type LeafOutput struct {
	Kind       string       `json:"kind"`
	Pitch      *float64     `json:"pitch,omitempty"`
	Written    string       `json:"written"`
	Multiplier string       `json:"multiplier,omitempty"`
	Tied       bool         `json:"tied,omitempty"`
	Beam       string       `json:"beam,omitempty"`
	Grace      []LeafOutput `json:"grace,omitempty"`
}

// TupletOutput describes the tuplet around a selection
type TupletOutput struct {
	Multiplier string `json:"multiplier"`
	Ratio      string `json:"ratio"`
	Hidden     bool   `json:"hidden,omitempty"`
	Annotation string `json:"annotation,omitempty"`
	Grow       string `json:"grow,omitempty"`
}

// SelectionOutput is the output for one segment
type SelectionOutput struct {
	Index     int           `json:"index"`
	Treatment string        `json:"treatment"`
	Duration  string        `json:"duration"`
	Tuplet    *TupletOutput `json:"tuplet,omitempty"`
	Leaves    []LeafOutput  `json:"leaves"`
}

// StatsOutput summarises a call
type StatsOutput struct {
	Segments      int    `json:"segments"`
	SlotsConsumed int    `json:"slots_consumed"`
	Leaves        int    `json:"leaves"`
	Tuplets       int    `json:"tuplets"`
	Duration      string `json:"duration"`
}

// RhythmResponse is the JSON body returned by a rhythm call
type RhythmResponse struct {
	Stream     string            `json:"stream,omitempty"`
	Selections []SelectionOutput `json:"selections"`
	State      rhythm.Manifest   `json:"state"`
	Stats      StatsOutput       `json:"stats"`
}

// NewRhythmResponse converts a maker result
func NewRhythmResponse(stream string, res *rhythm.Result) RhythmResponse {
	resp := RhythmResponse{
		Stream:     stream,
		Selections: make([]SelectionOutput, 0, len(res.Selections)),
		State:      res.Manifest(),
		Stats: StatsOutput{
			Segments:      res.Stats.Segments,
			SlotsConsumed: res.Stats.SlotsConsumed,
			Leaves:        res.Stats.Leaves,
			Tuplets:       res.Stats.Tuplets,
			Duration:      rhythm.FormatDuration(res.Stats.Duration),
		},
	}
	for _, sel := range res.Selections {
		resp.Selections = append(resp.Selections, newSelectionOutput(sel))
	}
	return resp
}

func newSelectionOutput(sel *rhythm.Selection) SelectionOutput {
	out := SelectionOutput{
		Index:    sel.Index,
		Duration: rhythm.FormatDuration(sel.Duration()),
		Leaves:   []LeafOutput{},
	}
	if sel.Treatment != nil {
		out.Treatment = fmt.Sprint(sel.Treatment)
	}
	if t := sel.Tuplet; t != nil {
		out.Tuplet = &TupletOutput{
			Multiplier: rhythm.FormatDuration(t.Multiplier),
			Ratio:      t.Ratio(),
			Hidden:     t.Hidden,
			Annotation: t.Annotation,
			Grow:       t.Grow.String(),
		}
	}
	for _, tie := range sel.Run.Ties {
		for i, leaf := range tie.Leaves {
			lo := newLeafOutput(leaf)
			if i == 0 && tie.Grace != nil {
				for _, g := range tie.Grace.Leaves {
					lo.Grace = append(lo.Grace, newLeafOutput(g))
				}
			}
			out.Leaves = append(out.Leaves, lo)
		}
	}
	return out
}

func newLeafOutput(leaf *rhythm.Leaf) LeafOutput {
	out := LeafOutput{
		Kind:    leaf.Kind.String(),
		Written: rhythm.FormatDuration(leaf.Written),
		Tied:    leaf.TieToNext,
		Beam:    leaf.Beam.String(),
	}
	if leaf.Kind == rhythm.NoteLeaf {
		p := leaf.Pitch
		out.Pitch = &p
	}
	if leaf.Multiplier != nil {
		out.Multiplier = rhythm.FormatDuration(leaf.Multiplier)
	}
	return out
}
