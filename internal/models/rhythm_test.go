package models

import (
	"encoding/json"
	"testing"

	"github.com/Conceptual-Machines/talea-api/internal/rhythm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRhythmRequest_Decode(t *testing.T) {
	body := `{
		"talea": {"counts": [1, 1, 2], "denominator": 16},
		"treatments": [0, "accel", "3:2", null],
		"segments": ["0 2 10", [18, null, "3/2:skip"], []],
		"state": {"next_attack": 4},
		"stream": "violin-1",
		"division_masks": [{"kind": "sustain", "pattern": {"indices": [1], "period": 2}}],
		"spelling": {"decrease_monotonically": false},
		"policy": {"stop_run_out_at_cycle": false}
	}`

	var req RhythmRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	require.Len(t, req.Treatments, 4)
	assert.Equal(t, rhythm.ExtraCount(0), req.Treatments[0])
	assert.Equal(t, rhythm.Accelerando{}, req.Treatments[1])
	assert.Equal(t, rhythm.Ratio{Numerator: 3, Denominator: 2}, req.Treatments[2])
	assert.Equal(t, rhythm.ExtraCount(0), req.Treatments[3])

	require.Len(t, req.Segments, 3)
	assert.Equal(t, "0 2 10", rhythm.Segment(req.Segments[0]).String())
	assert.Equal(t, "18 r 3/2:skip", rhythm.Segment(req.Segments[1]).String())
	assert.Empty(t, req.Segments[2])

	assert.Equal(t, rhythm.Manifest{"next_attack": 4}, req.State)
	assert.Equal(t, "violin-1", req.Stream)

	cfg, segments, err := req.Build()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, cfg.Talea.Counts())
	assert.Len(t, segments, 3)
	require.Len(t, cfg.DivisionMasks, 1)
	assert.Equal(t, rhythm.MaskSustain, cfg.DivisionMasks[0].Kind)
	require.NotNil(t, cfg.Spelling)
	assert.False(t, cfg.Spelling.DecreaseMonotonically)
	require.NotNil(t, cfg.Policy)
	assert.True(t, cfg.Policy.RunOutRests)
	assert.False(t, cfg.Policy.StopRunOutAtCycle)
}

func TestRhythmRequest_StateAbsentIsNil(t *testing.T) {
	var req RhythmRequest
	require.NoError(t, json.Unmarshal([]byte(`{"talea": {"counts": [1]}, "segments": ["0"]}`), &req))
	assert.Nil(t, req.State)

	require.NoError(t, json.Unmarshal([]byte(`{"talea": {"counts": [1]}, "state": {}}`), &req))
	assert.NotNil(t, req.State)
	assert.Empty(t, req.State)
}

func TestRhythmRequest_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad treatment", `{"talea": {"counts": [1]}, "treatments": ["fast"]}`},
		{"treatment object", `{"talea": {"counts": [1]}, "treatments": [{}]}`},
		{"bad pitch token", `{"talea": {"counts": [1]}, "segments": ["c4"]}`},
		{"segment number", `{"talea": {"counts": [1]}, "segments": [3]}`},
		{"bool in segment", `{"talea": {"counts": [1]}, "segments": [[true]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req RhythmRequest
			assert.Error(t, json.Unmarshal([]byte(tt.body), &req))
		})
	}
}

func TestRhythmRequest_BuildErrors(t *testing.T) {
	tests := []struct {
		name string
		req  RhythmRequest
		want error
	}{
		{
			name: "zero count",
			req:  RhythmRequest{Talea: TaleaSpec{Counts: []int{1, 0}}},
			want: rhythm.ErrInvalidTalea,
		},
		{
			name: "non power of two denominator",
			req:  RhythmRequest{Talea: TaleaSpec{Counts: []int{1}, Denominator: 12}},
			want: rhythm.ErrInvalidTalea,
		},
		{
			name: "unknown mask kind",
			req: RhythmRequest{
				Talea:         TaleaSpec{Counts: []int{1}},
				DivisionMasks: []MaskSpec{{Kind: "mute"}},
			},
		},
		{
			name: "bad grace duration",
			req: RhythmRequest{
				Talea:        TaleaSpec{Counts: []int{1}},
				Acciaccatura: &AcciaccaturaSpec{Durations: []string{"abc"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.req.Build()
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestNewRhythmResponse(t *testing.T) {
	maker, err := rhythm.NewMaker(rhythm.Config{
		Talea: rhythm.MustTalea([]int{1, 1, 2}, 16),
		Beam:  rhythm.BeamSpecifier{BeamEachDivision: true},
	})
	require.NoError(t, err)

	res, err := maker.Make([]rhythm.Segment{
		rhythm.Pitches(0, 2, 10),
		rhythm.Pitches(18, 16, 15, 20, 19),
		rhythm.Pitches(9),
	}, rhythm.State{})
	require.NoError(t, err)

	resp := NewRhythmResponse("violin-1", res)
	assert.Equal(t, "violin-1", resp.Stream)
	assert.Equal(t, rhythm.Manifest{"next_attack": 9, "next_segment": 3}, resp.State)
	assert.Equal(t, 3, resp.Stats.Segments)
	assert.Equal(t, 9, resp.Stats.SlotsConsumed)
	assert.Equal(t, "3/4", resp.Stats.Duration)

	require.Len(t, resp.Selections, 3)
	first := resp.Selections[0]
	assert.Equal(t, "1/4", first.Duration)
	assert.Equal(t, "0", first.Treatment)
	require.Len(t, first.Leaves, 3)
	assert.Equal(t, "note", first.Leaves[0].Kind)
	require.NotNil(t, first.Leaves[0].Pitch)
	assert.Equal(t, 0.0, *first.Leaves[0].Pitch)
	assert.Equal(t, "1/16", first.Leaves[0].Written)
	assert.Equal(t, "start", first.Leaves[0].Beam)
	assert.Equal(t, "1/8", first.Leaves[2].Written)
	assert.Equal(t, "stop", first.Leaves[2].Beam)

	last := resp.Selections[2]
	require.Len(t, last.Leaves, 1)
	assert.Equal(t, "1/8", last.Leaves[0].Written)
	assert.Empty(t, last.Leaves[0].Beam)
	require.NotNil(t, last.Tuplet)
	assert.Equal(t, "1", last.Tuplet.Multiplier)
	assert.Equal(t, "1:1", last.Tuplet.Ratio)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"slots_consumed":9`)
}
