package rhythm

import (
	"fmt"
	"math/big"
)

// GrowDirection is the feathered-beam hint carried by accelerando tuplets
type GrowDirection int

const (
	GrowNone GrowDirection = iota
	GrowLeft
	GrowRight
)

func (g GrowDirection) String() string {
	switch g {
	case GrowLeft:
		return "left"
	case GrowRight:
		return "right"
	default:
		return ""
	}
}

// Tuplet plays its run in Multiplier times the run's written duration
type Tuplet struct {
	Multiplier *big.Rat
	Run        *LeafRun
	// Hidden tuplets are 1:1 wrappers drawn without bracket or number
	Hidden bool
	// Annotation replaces the ratio text on accelerando and ritardando tuplets
	Annotation string
	Grow       GrowDirection
}

// ContentsDuration is the run's duration before tuplet scaling
func (t *Tuplet) ContentsDuration() *big.Rat {
	return t.Run.Duration()
}

// Duration is the prolated duration of the tuplet
func (t *Tuplet) Duration() *big.Rat {
	return new(big.Rat).Mul(t.ContentsDuration(), t.Multiplier)
}

// IsTrivial reports whether the tuplet does not change its contents' duration
func (t *Tuplet) IsTrivial() bool {
	return t.Multiplier.Cmp(ratOne()) == 0
}

// Ratio renders the tuplet as "n:d" contents-to-duration counts
func (t *Tuplet) Ratio() string {
	return fmt.Sprintf("%s:%s", t.Multiplier.Denom(), t.Multiplier.Num())
}

// wrapTuplet scales run according to treatment. den is the talea denominator
func wrapTuplet(run *LeafRun, treatment TimeTreatment, den int) (*Tuplet, error) {
	switch tt := treatment.(type) {
	case ExtraCount:
		return extraCountTuplet(run, int64(tt), int64(den))
	case Ratio:
		m := big.NewRat(int64(tt.Denominator), int64(tt.Numerator))
		if !IsProperTupletMultiplier(m) {
			return nil, fmt.Errorf("%w: ratio %s gives %s", ErrImproperTupletMultiplier, tt, FormatDuration(m))
		}
		return &Tuplet{Multiplier: m, Run: run}, nil
	case Multiplier:
		return &Tuplet{Multiplier: new(big.Rat).Set(tt.Value), Run: run}, nil
	case TargetDuration:
		return targetDurationTuplet(run, tt.Value), nil
	case Accelerando:
		return accelerandoTuplet(run, AccelerandoExponent), nil
	case Ritardando:
		return accelerandoTuplet(run, RitardandoExponent), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownTimeTreatment, treatment)
	}
}

func extraCountTuplet(run *LeafRun, n, den int64) (*Tuplet, error) {
	contents := countOver(run.Duration(), den)
	switch {
	case n > 0:
		n %= contents
	case n < 0:
		n = -(-n % ((contents + 1) / 2))
	}
	m := big.NewRat(contents+n, contents)
	if !IsProperTupletMultiplier(m) {
		return nil, fmt.Errorf("%w: %d extra counts over %d", ErrImproperTupletMultiplier, n, contents)
	}
	return &Tuplet{Multiplier: m, Run: run}, nil
}

// targetDurationTuplet fits run into target. An improper multiplier is folded into
// range and the written durations absorb the difference
func targetDurationTuplet(run *LeafRun, target *big.Rat) *Tuplet {
	m := new(big.Rat).Quo(target, run.Duration())
	if IsProperTupletMultiplier(m) {
		return &Tuplet{Multiplier: m, Run: run}
	}

	normalized := NormalizeMultiplier(m)
	scale := new(big.Rat).Quo(m, normalized)
	for _, leaf := range run.Leaves() {
		written := new(big.Rat).Mul(leaf.Written, scale)
		if IsAssignable(written) {
			leaf.Written = written
			continue
		}
		leaf.scaleMultiplier(scale)
	}
	return &Tuplet{Multiplier: normalized, Run: run}
}

// accelerandoTuplet sets per-leaf multipliers along the curve and leaves the total
// duration unchanged
func accelerandoTuplet(run *LeafRun, exponent float64) *Tuplet {
	leaves := run.Leaves()
	total := run.Duration()
	if len(leaves) <= 1 {
		return &Tuplet{Multiplier: ratOne(), Run: run, Hidden: true}
	}

	durations := make([]*big.Rat, len(leaves))
	for i, leaf := range leaves {
		durations[i] = leaf.Duration()
	}
	for i, m := range AccelerandoMultipliers(durations, exponent) {
		leaves[i].scaleMultiplier(m)
	}

	grow := GrowNone
	first, last := leaves[0].Duration(), leaves[len(leaves)-1].Duration()
	switch last.Cmp(first) {
	case -1:
		grow = GrowRight
	case 1:
		grow = GrowLeft
	}
	return &Tuplet{
		Multiplier: ratOne(),
		Run:        run,
		Annotation: DurationName(total),
		Grow:       grow,
	}
}
