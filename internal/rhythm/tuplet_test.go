package rhythm

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runOf builds a run with one note tie per duration
func runOf(t *testing.T, durations ...*big.Rat) *LeafRun {
	t.Helper()
	run := &LeafRun{}
	for i, d := range durations {
		tie, err := makeLogicalTie(NoteLeaf, float64(i), d, true)
		require.NoError(t, err)
		run.Ties = append(run.Ties, tie)
	}
	return run
}

func TestWrapTuplet_ExtraCount(t *testing.T) {
	tests := []struct {
		n    int
		want *big.Rat
	}{
		{0, rat(1, 1)},
		{1, rat(5, 4)},
		{5, rat(5, 4)},
		{4, rat(1, 1)},
		{-1, rat(3, 4)},
		{-2, rat(1, 1)},
		{-3, rat(3, 4)},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			run := runOf(t, rat(1, 16), rat(1, 16), rat(1, 8))
			tuplet, err := wrapTuplet(run, ExtraCount(tt.n), 16)
			require.NoError(t, err)
			assertRat(t, tt.want, tuplet.Multiplier)
		})
	}
}

func TestWrapTuplet_ExtraCountBounds(t *testing.T) {
	for c := int64(1); c <= 12; c++ {
		for n := -20; n <= 20; n++ {
			run := runOf(t, rat(c, 16))
			tuplet, err := wrapTuplet(run, ExtraCount(n), 16)
			require.NoError(t, err, "c=%d n=%d", c, n)

			count := new(big.Rat).Mul(tuplet.Multiplier, big.NewRat(c, 1))
			require.True(t, count.IsInt())
			got := count.Num().Int64()
			assert.Less(t, got, 2*c, "c=%d n=%d", c, n)
			assert.GreaterOrEqual(t, got, (c+1)/2, "c=%d n=%d", c, n)
		}
	}
}

func TestWrapTuplet_Ratio(t *testing.T) {
	run := runOf(t, rat(1, 8), rat(1, 8), rat(1, 8))
	tuplet, err := wrapTuplet(run, Ratio{Numerator: 3, Denominator: 2}, 16)
	require.NoError(t, err)
	assertRat(t, rat(2, 3), tuplet.Multiplier)
	assertRat(t, rat(1, 4), tuplet.Duration())
	assert.Equal(t, "3:2", tuplet.Ratio())

	_, err = wrapTuplet(run, Ratio{Numerator: 1, Denominator: 3}, 16)
	assert.ErrorIs(t, err, ErrImproperTupletMultiplier)
}

func TestWrapTuplet_Multiplier(t *testing.T) {
	run := runOf(t, rat(1, 8))
	tuplet, err := wrapTuplet(run, Multiplier{Value: rat(5, 1)}, 16)
	require.NoError(t, err)
	assertRat(t, rat(5, 1), tuplet.Multiplier)
}

func TestWrapTuplet_TargetDuration(t *testing.T) {
	targets := []*big.Rat{rat(3, 16), rat(5, 16), rat(1, 3), rat(1, 1), rat(1, 16), rat(7, 2)}
	for _, target := range targets {
		t.Run(target.RatString(), func(t *testing.T) {
			run := runOf(t, rat(1, 16), rat(1, 16), rat(1, 8))
			tuplet, err := wrapTuplet(run, TargetDuration{Value: target}, 16)
			require.NoError(t, err)
			assert.True(t, IsProperTupletMultiplier(tuplet.Multiplier), "multiplier %s", tuplet.Multiplier.RatString())
			assertRat(t, target, tuplet.Duration())
		})
	}

	t.Run("written durations absorb the normalization", func(t *testing.T) {
		run := runOf(t, rat(1, 4))
		tuplet, err := wrapTuplet(run, TargetDuration{Value: rat(1, 1)}, 16)
		require.NoError(t, err)
		assertRat(t, rat(1, 1), tuplet.Multiplier)
		assertRat(t, rat(1, 1), run.Leaves()[0].Written)
	})
}

func TestWrapTuplet_Accelerando(t *testing.T) {
	durations := []*big.Rat{rat(1, 16), rat(1, 16), rat(1, 16), rat(1, 16)}

	t.Run("accel", func(t *testing.T) {
		run := runOf(t, durations...)
		tuplet, err := wrapTuplet(run, Accelerando{}, 16)
		require.NoError(t, err)
		assertRat(t, rat(1, 4), tuplet.Duration())
		assert.Equal(t, GrowRight, tuplet.Grow)
		assert.Equal(t, "4", tuplet.Annotation)
		assert.False(t, tuplet.Hidden)
		for _, leaf := range run.Leaves() {
			assert.NotNil(t, leaf.Multiplier)
		}
	})

	t.Run("rit", func(t *testing.T) {
		run := runOf(t, durations...)
		tuplet, err := wrapTuplet(run, Ritardando{}, 16)
		require.NoError(t, err)
		assertRat(t, rat(1, 4), tuplet.Duration())
		assert.Equal(t, GrowLeft, tuplet.Grow)
	})

	t.Run("single leaf is left alone", func(t *testing.T) {
		run := runOf(t, rat(1, 8))
		tuplet, err := wrapTuplet(run, Accelerando{}, 16)
		require.NoError(t, err)
		assert.True(t, tuplet.Hidden)
		assert.True(t, tuplet.IsTrivial())
		assert.Nil(t, run.Leaves()[0].Multiplier)
	})
}

func TestWrapTuplet_UnknownTreatment(t *testing.T) {
	_, err := wrapTuplet(runOf(t, rat(1, 8)), bogusTreatment{}, 16)
	assert.ErrorIs(t, err, ErrUnknownTimeTreatment)
}

func TestNormalizeMultiplier(t *testing.T) {
	tests := []struct {
		in, want *big.Rat
	}{
		{rat(1, 3), rat(2, 3)},
		{rat(1, 2), rat(1, 1)},
		{rat(2, 1), rat(1, 1)},
		{rat(5, 1), rat(5, 4)},
		{rat(3, 2), rat(3, 2)},
		{rat(1, 8), rat(1, 1)},
		{rat(7, 64), rat(7, 8)},
	}
	for _, tt := range tests {
		t.Run(tt.in.RatString(), func(t *testing.T) {
			got := NormalizeMultiplier(tt.in)
			assertRat(t, tt.want, got)
			assertRat(t, got, NormalizeMultiplier(got))
			assert.Equal(t, 1, got.Cmp(half))
			assert.Equal(t, -1, got.Cmp(two))
		})
	}
}
