package rhythm

import (
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioSegments() []Segment {
	return []Segment{
		Pitches(0, 2, 10),
		Pitches(18, 16, 15, 20, 19),
		Pitches(9),
	}
}

func newTestMaker(t *testing.T, cfg Config) *Maker {
	t.Helper()
	m, err := NewMaker(cfg)
	require.NoError(t, err)
	return m
}

// describe renders a selection's leaves for comparison
func describe(sel *Selection) string {
	parts := make([]string, 0, len(sel.Leaves()))
	for _, leaf := range sel.Leaves() {
		s := fmt.Sprintf("%s:%v:%s", leaf.Kind, leaf.Pitch, leaf.Duration().RatString())
		if leaf.TieToNext {
			s += "~"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func kinds(sel *Selection) []LeafKind {
	var out []LeafKind
	for _, tie := range sel.Run.Ties {
		out = append(out, tie.Kind())
	}
	return out
}

func TestMaker_Scenario(t *testing.T) {
	maker := newTestMaker(t, Config{Talea: MustTalea([]int{1, 1, 2}, 16)})

	res, err := maker.Make(scenarioSegments(), State{})
	require.NoError(t, err)
	require.Len(t, res.Selections, 3)

	want := []*big.Rat{rat(4, 16), rat(6, 16), rat(2, 16)}
	for i, sel := range res.Selections {
		assertRat(t, want[i], sel.Run.Duration(), "segment %d", i)
		require.NotNil(t, sel.Tuplet)
		assert.True(t, sel.Tuplet.IsTrivial())
	}
	assert.Equal(t, State{NextAttack: 9, NextSegment: 3}, res.State)
	assert.Equal(t, Manifest{"next_attack": 9, "next_segment": 3}, res.Manifest())

	assert.Equal(t, 3, res.Stats.Segments)
	assert.Equal(t, 9, res.Stats.SlotsConsumed)
	assert.Equal(t, 9, res.Stats.Leaves)
	assert.Equal(t, 3, res.Stats.Tuplets)
	assertRat(t, rat(12, 16), res.Stats.Duration)
}

func TestMaker_InjectedState(t *testing.T) {
	maker := newTestMaker(t, Config{Talea: MustTalea([]int{1, 1, 2}, 16)})

	res, err := maker.Make(scenarioSegments(), State{NextAttack: 2})
	require.NoError(t, err)
	assertRat(t, rat(1, 8), res.Selections[0].Leaves()[0].Duration())

	stream := NewStream(maker)
	res, err = stream.Call(scenarioSegments(), Manifest{"next_attack": 2})
	require.NoError(t, err)
	assertRat(t, rat(1, 8), res.Selections[0].Leaves()[0].Duration())
	assert.Equal(t, State{NextAttack: 11, NextSegment: 3}, stream.State())
}

func TestMaker_CursorContinuity(t *testing.T) {
	cfg := Config{
		Talea:      MustTalea([]int{1, -1, 2, -3, 1}, 16),
		Treatments: []TimeTreatment{ExtraCount(0), ExtraCount(1), Ratio{Numerator: 3, Denominator: 2}},
	}
	a := Segment{Pitch(0), Rest{}, Pitch(4)}
	b := Pitches(7, 9, 11, 12)

	whole, err := newTestMaker(t, cfg).Make([]Segment{a, b}, State{})
	require.NoError(t, err)

	maker := newTestMaker(t, cfg)
	first, err := maker.Make([]Segment{a}, State{})
	require.NoError(t, err)
	second, err := maker.Make([]Segment{b}, first.State)
	require.NoError(t, err)

	assert.Equal(t, describe(whole.Selections[0]), describe(first.Selections[0]))
	assert.Equal(t, describe(whole.Selections[1]), describe(second.Selections[0]))
	assertRat(t, whole.Selections[1].Tuplet.Multiplier, second.Selections[0].Tuplet.Multiplier)
	assert.Equal(t, whole.State, second.State)
}

func TestMaker_DurationConservation(t *testing.T) {
	talea := MustTalea([]int{2, -1, 1, -2, 3, 1}, 16)
	maker := newTestMaker(t, Config{Talea: talea})
	segments := []Segment{
		Pitches(0, 1),
		Pitches(2, 3, 4),
		{Rest{}, Pitch(5)},
		Pitches(6, 7, 8, 9, 10),
	}

	state := State{}
	for i, seg := range segments {
		res, err := maker.Make([]Segment{seg}, state)
		require.NoError(t, err)

		consumed := new(big.Rat)
		for slot := state.NextAttack; slot < res.State.NextAttack; slot++ {
			consumed.Add(consumed, talea.Duration(talea.At(slot)))
		}
		assertRat(t, consumed, res.Selections[0].Run.Duration(), "segment %d", i)
		state = res.State
	}
}

func TestMaker_EmptySegment(t *testing.T) {
	maker := newTestMaker(t, Config{Talea: MustTalea([]int{1, 1, 2}, 16)})

	res, err := maker.Make([]Segment{Pitches(0, 2), {}, Pitches(4)}, State{})
	require.NoError(t, err)
	require.Len(t, res.Selections, 3)

	empty := res.Selections[1]
	assert.True(t, empty.IsEmpty())
	assert.Nil(t, empty.Tuplet)
	assert.Equal(t, 1, empty.Index)
	assert.Equal(t, State{NextAttack: 3, NextSegment: 3}, res.State)

	res, err = maker.Make([]Segment{{}}, State{NextAttack: 5, NextSegment: 1})
	require.NoError(t, err)
	assert.Equal(t, State{NextAttack: 5, NextSegment: 2}, res.State)
}

func TestMaker_RunOutRests(t *testing.T) {
	maker := newTestMaker(t, Config{Talea: MustTalea([]int{1, -1, 2, -3}, 16)})

	res, err := maker.Make([]Segment{Pitches(0, 2)}, State{})
	require.NoError(t, err)
	sel := res.Selections[0]
	assert.Equal(t, []LeafKind{NoteLeaf, RestLeaf, NoteLeaf, RestLeaf}, kinds(sel))
	assert.Equal(t, "note:0:1/16 rest:0:1/16 note:2:1/8 rest:0:3/16", describe(sel))
	assert.Equal(t, 4, res.State.NextAttack)
}

func TestMaker_StopRunOutAtCycle(t *testing.T) {
	talea := MustTalea([]int{-1, 2}, 16)

	stopping := newTestMaker(t, Config{Talea: talea})
	res, err := stopping.Make([]Segment{Pitches(0, 1)}, State{})
	require.NoError(t, err)
	assert.Equal(t, []LeafKind{RestLeaf, NoteLeaf, RestLeaf, NoteLeaf}, kinds(res.Selections[0]))
	assert.Equal(t, 4, res.State.NextAttack)

	policy := ExpansionPolicy{RunOutRests: true}
	running := newTestMaker(t, Config{Talea: talea, Policy: &policy})
	res, err = running.Make([]Segment{Pitches(0, 1)}, State{})
	require.NoError(t, err)
	assert.Equal(t, []LeafKind{RestLeaf, NoteLeaf, RestLeaf, NoteLeaf, RestLeaf}, kinds(res.Selections[0]))
	assert.Equal(t, 5, res.State.NextAttack)
}

func TestMaker_InlineRests(t *testing.T) {
	policy := ExpansionPolicy{}
	maker := newTestMaker(t, Config{Talea: MustTalea([]int{1, -1}, 16), Policy: &policy})

	res, err := maker.Make([]Segment{Pitches(0, 2, 4)}, State{})
	require.NoError(t, err)
	assert.Equal(t, "note:0:1/16 rest:0:1/16 note:4:1/16", describe(res.Selections[0]))
	assert.Equal(t, 3, res.State.NextAttack)

	_, err = NewMaker(Config{Talea: MustTalea([]int{-1, -2}, 16), Policy: &policy})
	assert.NoError(t, err)
}

func TestNewMaker_Validation(t *testing.T) {
	_, err := NewMaker(Config{})
	assert.ErrorIs(t, err, ErrInvalidTalea)

	_, err = NewMaker(Config{Talea: MustTalea([]int{-1, -2}, 16)})
	assert.ErrorIs(t, err, ErrInvalidTalea)

	_, err = NewMaker(Config{Talea: MustTalea([]int{1}, 16), Treatments: []TimeTreatment{bogusTreatment{}}})
	assert.ErrorIs(t, err, ErrInvalidTimeTreatment)
}

func TestMaker_ExpressionLimits(t *testing.T) {
	tests := []struct {
		name    string
		segment string
		wantErr error
	}{
		{name: "longest silence", segment: "0 1024:r"},
		{name: "silence too long", segment: "0 1025:r", wantErr: ErrInvalidSegment},
		{name: "huge silence", segment: "0 1e8:r", wantErr: ErrInvalidSegment},
		{name: "out of range silence", segment: "0 1e30:skip", wantErr: ErrInvalidSegment},
	}

	maker := newTestMaker(t, Config{Talea: MustTalea([]int{1}, 16)})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, err := ParseSegment(tt.segment)
			require.NoError(t, err)

			res, err := maker.Make([]Segment{seg}, State{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.LessOrEqual(t, len(res.Selections[0].Leaves()), 9)
			assert.Equal(t, "1025/16", res.Selections[0].Duration().RatString())
		})
	}
}

func TestNewTalea_CountLimit(t *testing.T) {
	_, err := NewTalea([]int{1024, -1024}, 16)
	require.NoError(t, err)

	_, err = NewTalea([]int{1, -1025}, 16)
	assert.ErrorIs(t, err, ErrInvalidTalea)

	_, err = NewTalea([]int{1 << 30}, 1)
	assert.ErrorIs(t, err, ErrInvalidTalea)
}

func TestSpellDuration_OutOfRange(t *testing.T) {
	huge, ok := new(big.Rat).SetString("1e30")
	require.True(t, ok)
	_, _, err := spellDuration(huge, true)
	assert.ErrorIs(t, err, ErrInvalidSegment)

	_, _, err = spellDuration(new(big.Rat), true)
	assert.ErrorIs(t, err, ErrInvalidSegment)
}

func TestMaker_ScaledSilence(t *testing.T) {
	maker := newTestMaker(t, Config{Talea: MustTalea([]int{1}, 16)})

	seg := Segment{Pitch(0), ScaledSilence{Multiplier: rat(3, 2), Skip: true}, Pitch(2), ScaledSilence{Multiplier: rat(1, 3)}}
	res, err := maker.Make([]Segment{seg}, State{})
	require.NoError(t, err)

	sel := res.Selections[0]
	assert.Equal(t, []LeafKind{NoteLeaf, SkipLeaf, NoteLeaf, RestLeaf}, kinds(sel))
	assert.Equal(t, "note:0:1/16 skip:0:3/32 note:2:1/16 rest:0:1/48", describe(sel))
	assert.Equal(t, 2, res.State.NextAttack)
}

func TestMaker_InvalidInput(t *testing.T) {
	maker := newTestMaker(t, Config{Talea: MustTalea([]int{1}, 16)})

	_, err := maker.Make([]Segment{{ScaledSilence{Multiplier: rat(-1, 2)}}}, State{})
	assert.ErrorIs(t, err, ErrInvalidSegment)

	_, err = maker.Make([]Segment{Pitches(0)}, State{NextAttack: -1})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestMaker_ImproperRatioFails(t *testing.T) {
	maker := newTestMaker(t, Config{
		Talea:      MustTalea([]int{1}, 16),
		Treatments: []TimeTreatment{Ratio{Numerator: 1, Denominator: 3}},
	})
	_, err := maker.Make([]Segment{Pitches(0)}, State{})
	assert.ErrorIs(t, err, ErrImproperTupletMultiplier)
}

func TestMaker_TreatmentsFollowNextSegment(t *testing.T) {
	maker := newTestMaker(t, Config{
		Talea:      MustTalea([]int{1}, 16),
		Treatments: []TimeTreatment{ExtraCount(0), ExtraCount(1)},
	})
	res, err := maker.Make([]Segment{Pitches(0, 1), Pitches(2, 3)}, State{NextSegment: 1})
	require.NoError(t, err)
	assertRat(t, rat(3, 2), res.Selections[0].Tuplet.Multiplier)
	assertRat(t, rat(1, 1), res.Selections[1].Tuplet.Multiplier)
	assert.Equal(t, ExtraCount(1), res.Selections[0].Treatment)
}

func TestMaker_RewriteMeter(t *testing.T) {
	spelling := SpellingSpecifier{DecreaseMonotonically: true, RewriteMeter: true}
	maker := newTestMaker(t, Config{Talea: MustTalea([]int{1}, 16), Spelling: &spelling})
	_, err := maker.Make([]Segment{Pitches(0)}, State{})
	assert.ErrorIs(t, err, ErrRewriteMeterNotImplemented)
}

func TestMaker_SpellingOrder(t *testing.T) {
	talea := MustTalea([]int{5}, 16)

	res, err := newTestMaker(t, Config{Talea: talea}).Make([]Segment{Pitches(0)}, State{})
	require.NoError(t, err)
	assert.Equal(t, "note:0:1/4~ note:0:1/16", describe(res.Selections[0]))

	spelling := SpellingSpecifier{}
	res, err = newTestMaker(t, Config{Talea: talea, Spelling: &spelling}).Make([]Segment{Pitches(0)}, State{})
	require.NoError(t, err)
	assert.Equal(t, "note:0:1/16~ note:0:1/4", describe(res.Selections[0]))
}

func TestStream(t *testing.T) {
	maker := newTestMaker(t, Config{
		Talea:      MustTalea([]int{1, 1, 2}, 16),
		Treatments: []TimeTreatment{ExtraCount(0), ExtraCount(0), Ratio{Numerator: 1, Denominator: 3}},
	})
	stream := NewStream(maker)

	_, err := stream.Call([]Segment{Pitches(0, 2)}, nil)
	require.NoError(t, err)
	assert.Equal(t, State{NextAttack: 2, NextSegment: 1}, stream.State())

	t.Run("partial manifest keeps the other counter", func(t *testing.T) {
		res, err := stream.Call([]Segment{Pitches(4)}, Manifest{"next_attack": 0})
		require.NoError(t, err)
		assert.Equal(t, State{NextAttack: 1, NextSegment: 2}, res.State)
	})

	t.Run("failed call leaves the cursor alone", func(t *testing.T) {
		_, err := stream.Call([]Segment{Pitches(5)}, Manifest{})
		assert.ErrorIs(t, err, ErrImproperTupletMultiplier)
		assert.Equal(t, State{NextAttack: 1, NextSegment: 2}, stream.State())
	})

	t.Run("bad manifest", func(t *testing.T) {
		_, err := stream.Call([]Segment{Pitches(5)}, Manifest{"next_bar": 1})
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("nil manifest resets", func(t *testing.T) {
		res, err := stream.Call([]Segment{Pitches(5)}, nil)
		require.NoError(t, err)
		assert.Equal(t, State{NextAttack: 1, NextSegment: 1}, res.State)
	})
}
