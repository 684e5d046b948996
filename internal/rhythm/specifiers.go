package rhythm

import (
	"fmt"
	"math/big"
)

// Beamer annotates the finished selections with beams
type Beamer interface {
	Beam(selections []*Selection)
}

// BeamSpecifier beams runs of flagged leaves either per division or across all of them
type BeamSpecifier struct {
	BeamEachDivision      bool
	BeamDivisionsTogether bool
	BeamRests             bool
}

// Beam clears existing beams and marks start, middle and stop positions
func (s BeamSpecifier) Beam(selections []*Selection) {
	var streams [][]*Leaf
	switch {
	case s.BeamDivisionsTogether:
		var all []*Leaf
		for _, sel := range selections {
			all = append(all, sel.Leaves()...)
		}
		streams = append(streams, all)
	case s.BeamEachDivision:
		for _, sel := range selections {
			streams = append(streams, sel.Leaves())
		}
	}

	for _, sel := range selections {
		for _, leaf := range sel.Leaves() {
			leaf.Beam = BeamNone
		}
	}
	for _, leaves := range streams {
		s.beamStream(leaves)
	}
}

func (s BeamSpecifier) beamStream(leaves []*Leaf) {
	var group []*Leaf
	flush := func() {
		// Rests at the edges of a group are never beamed
		for len(group) > 0 && group[len(group)-1].Kind != NoteLeaf {
			group = group[:len(group)-1]
		}
		for len(group) > 0 && group[0].Kind != NoteLeaf {
			group = group[1:]
		}
		if len(group) >= 2 {
			for i, leaf := range group {
				switch i {
				case 0:
					leaf.Beam = BeamStart
				case len(group) - 1:
					leaf.Beam = BeamStop
				default:
					leaf.Beam = BeamMiddle
				}
			}
		}
		group = nil
	}

	for _, leaf := range leaves {
		if !leaf.Beamable() || (leaf.Kind != NoteLeaf && !s.BeamRests) {
			flush()
			continue
		}
		group = append(group, leaf)
	}
	flush()
}

// MaskKind is what a mask does to the material it selects
type MaskKind int

const (
	MaskSilence MaskKind = iota
	MaskSustain
)

func (k MaskKind) String() string {
	switch k {
	case MaskSilence:
		return "silence"
	case MaskSustain:
		return "sustain"
	default:
		return fmt.Sprintf("MaskKind(%d)", int(k))
	}
}

// ParseMaskKind accepts "silence" (or "rest") and "sustain"
func ParseMaskKind(s string) (MaskKind, error) {
	switch s {
	case "silence", "rest":
		return MaskSilence, nil
	case "sustain":
		return MaskSustain, nil
	default:
		return 0, fmt.Errorf("unknown mask kind %q", s)
	}
}

// Mask overwrites the positions its pattern selects with rests or sustained notes
type Mask struct {
	Kind    MaskKind
	Pattern Pattern
}

// applyDivisionMasks rewrites whole selections. A masked division loses its tuplet
// and becomes one logical tie lasting the tuplet's prolated duration
func applyDivisionMasks(selections []*Selection, masks []Mask, decrease bool) error {
	if len(masks) == 0 {
		return nil
	}
	for i, sel := range selections {
		if sel.IsEmpty() {
			continue
		}
		mask, ok := matchMask(masks, i, len(selections))
		if !ok {
			continue
		}

		kind, pitch := RestLeaf, 0.0
		if mask.Kind == MaskSustain {
			if head := firstNote(sel.Run); head != nil {
				kind, pitch = NoteLeaf, head.Pitch
			}
		}
		tie, err := makeLogicalTie(kind, pitch, sel.Duration(), decrease)
		if err != nil {
			return fmt.Errorf("masking division %d: %w", i, err)
		}
		sel.Run = &LeafRun{Ties: []*LogicalTie{tie}}
		sel.Tuplet = nil
	}
	return nil
}

// applyLogicalTieMasks silences notes or sustains rests across every selection.
// Sustained rests take the pitch of the preceding note and are tied from it
func applyLogicalTieMasks(selections []*Selection, masks []Mask) {
	if len(masks) == 0 {
		return
	}
	var ties []*LogicalTie
	for _, sel := range selections {
		if sel.Run != nil {
			ties = append(ties, sel.Run.Ties...)
		}
	}

	for i, tie := range ties {
		mask, ok := matchMask(masks, i, len(ties))
		if !ok {
			continue
		}
		var prev *LogicalTie
		if i > 0 {
			prev = ties[i-1]
		}
		switch mask.Kind {
		case MaskSilence:
			if tie.Kind() != NoteLeaf {
				continue
			}
			tie.setKind(RestLeaf, 0)
			tie.Grace = nil
			if prev != nil && prev.Kind() == NoteLeaf {
				prev.Tail().TieToNext = false
			}
		case MaskSustain:
			if tie.Kind() != RestLeaf || prev == nil || prev.Kind() != NoteLeaf {
				continue
			}
			tie.setKind(NoteLeaf, prev.Head().Pitch)
			prev.Tail().TieToNext = true
		}
	}
}

// matchMask returns the last mask selecting position i
func matchMask(masks []Mask, i, total int) (Mask, bool) {
	var found Mask
	ok := false
	for _, m := range masks {
		if m.Pattern.Matches(i, total) {
			found, ok = m, true
		}
	}
	return found, ok
}

func firstNote(run *LeafRun) *Leaf {
	for _, leaf := range run.Leaves() {
		if leaf.Kind == NoteLeaf {
			return leaf
		}
	}
	return nil
}

// SpellingSpecifier controls how durations are split into tied written values
type SpellingSpecifier struct {
	DecreaseMonotonically bool
	RewriteMeter          bool
}

// DefaultSpelling writes tied values longest first and leaves meter alone
func DefaultSpelling() SpellingSpecifier {
	return SpellingSpecifier{DecreaseMonotonically: true}
}

func (s SpellingSpecifier) rewriteMeter(_ []*Selection) error {
	if s.RewriteMeter {
		return ErrRewriteMeterNotImplemented
	}
	return nil
}

var _ Beamer = BeamSpecifier{}

// quarter is the shortest value without a flag; anything shorter can be beamed
var quarter = big.NewRat(1, 4)
