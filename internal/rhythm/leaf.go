package rhythm

import (
	"fmt"
	"math/big"
)

// LeafKind distinguishes sounding notes from silences
type LeafKind int

const (
	NoteLeaf LeafKind = iota
	RestLeaf
	SkipLeaf
)

func (k LeafKind) String() string {
	switch k {
	case NoteLeaf:
		return "note"
	case RestLeaf:
		return "rest"
	case SkipLeaf:
		return "skip"
	default:
		return fmt.Sprintf("LeafKind(%d)", int(k))
	}
}

// BeamPosition marks where a leaf sits inside a beam group
type BeamPosition int

const (
	BeamNone BeamPosition = iota
	BeamStart
	BeamMiddle
	BeamStop
)

func (b BeamPosition) String() string {
	switch b {
	case BeamStart:
		return "start"
	case BeamMiddle:
		return "middle"
	case BeamStop:
		return "stop"
	default:
		return ""
	}
}

// Leaf is one written note, rest or skip. Multiplier, when set, scales the written
// duration (accelerando leaves, leaves whose duration needs a non-binary denominator)
type Leaf struct {
	Kind       LeafKind
	Pitch      float64
	Written    *big.Rat
	Multiplier *big.Rat
	TieToNext  bool
	Beam       BeamPosition
}

// Duration is the sounding duration: written times multiplier
func (l *Leaf) Duration() *big.Rat {
	d := new(big.Rat).Set(l.Written)
	if l.Multiplier != nil {
		d.Mul(d, l.Multiplier)
	}
	return d
}

// Beamable reports whether the leaf carries flags (shorter than a quarter)
func (l *Leaf) Beamable() bool {
	return l.Written.Cmp(quarter) < 0
}

func (l *Leaf) scaleMultiplier(m *big.Rat) {
	if m.Cmp(ratOne()) == 0 {
		return
	}
	if l.Multiplier == nil {
		l.Multiplier = new(big.Rat).Set(m)
		return
	}
	l.Multiplier = new(big.Rat).Mul(l.Multiplier, m)
}

// GraceGroup holds acciaccatura leaves played before a logical tie's head
type GraceGroup struct {
	Leaves []*Leaf
	Beamed bool
}

// LogicalTie is a run of leaves tied together that reads as one attack
type LogicalTie struct {
	Leaves []*Leaf
	Grace  *GraceGroup
}

// Head is the first leaf of the tie
func (t *LogicalTie) Head() *Leaf {
	return t.Leaves[0]
}

// Tail is the last leaf of the tie
func (t *LogicalTie) Tail() *Leaf {
	return t.Leaves[len(t.Leaves)-1]
}

// Kind is the kind shared by every leaf of the tie
func (t *LogicalTie) Kind() LeafKind {
	return t.Head().Kind
}

// Duration sums the sounding durations of the tie's leaves
func (t *LogicalTie) Duration() *big.Rat {
	total := new(big.Rat)
	for _, l := range t.Leaves {
		total.Add(total, l.Duration())
	}
	return total
}

// setKind rewrites every leaf of the tie, keeping durations
func (t *LogicalTie) setKind(kind LeafKind, pitch float64) {
	for i, l := range t.Leaves {
		l.Kind = kind
		l.Pitch = pitch
		l.TieToNext = kind == NoteLeaf && i < len(t.Leaves)-1
	}
}

// LeafRun is the ordered leaves of one segment grouped into logical ties
type LeafRun struct {
	Ties []*LogicalTie
}

// Leaves flattens the run
func (r *LeafRun) Leaves() []*Leaf {
	if r == nil {
		return nil
	}
	var leaves []*Leaf
	for _, t := range r.Ties {
		leaves = append(leaves, t.Leaves...)
	}
	return leaves
}

// Duration sums the sounding durations of every leaf in the run
func (r *LeafRun) Duration() *big.Rat {
	total := new(big.Rat)
	if r == nil {
		return total
	}
	for _, t := range r.Ties {
		total.Add(total, t.Duration())
	}
	return total
}

// Len counts leaves
func (r *LeafRun) Len() int {
	return len(r.Leaves())
}

// IsEmpty reports whether the run holds no leaves
func (r *LeafRun) IsEmpty() bool {
	return r == nil || len(r.Ties) == 0
}

// makeLogicalTie spells duration into tied leaves of the given kind
func makeLogicalTie(kind LeafKind, pitch float64, duration *big.Rat, decrease bool) (*LogicalTie, error) {
	written, multiplier, err := spellDuration(duration, decrease)
	if err != nil {
		return nil, err
	}
	tie := &LogicalTie{Leaves: make([]*Leaf, 0, len(written))}
	for i, w := range written {
		leaf := &Leaf{
			Kind:      kind,
			Pitch:     pitch,
			Written:   w,
			TieToNext: kind == NoteLeaf && i < len(written)-1,
		}
		if multiplier != nil {
			leaf.Multiplier = new(big.Rat).Set(multiplier)
		}
		tie.Leaves = append(tie.Leaves, leaf)
	}
	return tie, nil
}
