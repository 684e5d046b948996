package rhythm

import (
	"fmt"
	"math/big"
)

// ExpansionPolicy controls how negative talea counts are turned into leaves
type ExpansionPolicy struct {
	// RunOutRests emits every negative count as a rest of its own and lets the next
	// positive count carry the pitch. When false a negative count silences the pitch
	// expression it was drawn for
	RunOutRests bool
	// StopRunOutAtCycle ends the rests that follow an attack when the cursor reaches
	// the start of a talea cycle, leaving them for the next attack to consume
	StopRunOutAtCycle bool
}

// DefaultExpansionPolicy runs out rests and stops at cycle boundaries
func DefaultExpansionPolicy() ExpansionPolicy {
	return ExpansionPolicy{RunOutRests: true, StopRunOutAtCycle: true}
}

// segmentBuilder turns one segment into a leaf run while advancing the talea cursor
type segmentBuilder struct {
	talea    *Talea
	policy   ExpansionPolicy
	decrease bool
}

// builtSegment pairs every pitch expression with the logical tie it produced. Rests
// run out of the talea belong to no expression
type builtSegment struct {
	run        *LeafRun
	owners     []*LogicalTie
	nextAttack int
}

func (b *segmentBuilder) build(seg Segment, nextAttack int) (*builtSegment, error) {
	out := &builtSegment{
		run:        &LeafRun{},
		owners:     make([]*LogicalTie, 0, len(seg)),
		nextAttack: nextAttack,
	}

	for i, expr := range seg {
		var tie *LogicalTie
		var err error
		switch e := expr.(type) {
		case ScaledSilence:
			tie, err = b.silence(out.run, e)
		case Pitch:
			tie, err = b.attack(out, NoteLeaf, float64(e))
		case Rest:
			tie, err = b.attack(out, RestLeaf, 0)
		default:
			err = fmt.Errorf("%w: expression %d has type %T", ErrInvalidSegment, i, expr)
		}
		if err != nil {
			return nil, err
		}
		out.owners = append(out.owners, tie)
	}
	return out, nil
}

// silence renders a scaled silence without touching the talea cursor
func (b *segmentBuilder) silence(run *LeafRun, e ScaledSilence) (*LogicalTie, error) {
	kind := RestLeaf
	if e.Skip {
		kind = SkipLeaf
	}
	return b.appendTie(run, kind, 0, new(big.Rat).Mul(e.Multiplier, b.talea.Unit()))
}

// attack draws talea slots for one pitch or rest expression and appends the
// resulting ties to the run. It returns the tie that carries the expression
func (b *segmentBuilder) attack(out *builtSegment, kind LeafKind, pitch float64) (*LogicalTie, error) {
	if !b.policy.RunOutRests {
		count := b.talea.At(out.nextAttack)
		out.nextAttack++
		if count < 0 {
			kind, pitch = RestLeaf, 0
		}
		return b.appendTie(out.run, kind, pitch, b.talea.Duration(count))
	}

	// Leading rests; bounded by one cycle since the talea has an attack
	for n := 0; n < b.talea.Len() && b.talea.At(out.nextAttack) < 0; n++ {
		if _, err := b.appendTie(out.run, RestLeaf, 0, b.talea.Duration(b.talea.At(out.nextAttack))); err != nil {
			return nil, err
		}
		out.nextAttack++
	}

	count := b.talea.At(out.nextAttack)
	out.nextAttack++
	if count < 0 {
		kind, pitch = RestLeaf, 0
	}
	tie, err := b.appendTie(out.run, kind, pitch, b.talea.Duration(count))
	if err != nil {
		return nil, err
	}

	for n := 0; n < b.talea.Len() && b.talea.At(out.nextAttack) < 0; n++ {
		if b.policy.StopRunOutAtCycle && out.nextAttack%b.talea.Len() == 0 {
			break
		}
		if _, err := b.appendTie(out.run, RestLeaf, 0, b.talea.Duration(b.talea.At(out.nextAttack))); err != nil {
			return nil, err
		}
		out.nextAttack++
	}
	return tie, nil
}

func (b *segmentBuilder) appendTie(run *LeafRun, kind LeafKind, pitch float64, d *big.Rat) (*LogicalTie, error) {
	tie, err := makeLogicalTie(kind, pitch, d, b.decrease)
	if err != nil {
		return nil, err
	}
	run.Ties = append(run.Ties, tie)
	return tie, nil
}
