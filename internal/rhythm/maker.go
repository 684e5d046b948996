package rhythm

import (
	"fmt"
	"math/big"
)

// Config describes a rhythm-maker. Only Talea is required
type Config struct {
	Talea      *Talea
	Treatments []TimeTreatment

	Acciaccatura    GraceExtractor
	Beam            Beamer
	DivisionMasks   []Mask
	LogicalTieMasks []Mask

	// Spelling and Policy fall back to DefaultSpelling and DefaultExpansionPolicy
	Spelling *SpellingSpecifier
	Policy   *ExpansionPolicy
}

// Maker turns segments into selections. It keeps no state between calls; the cursor
// is passed in and returned
type Maker struct {
	cfg      Config
	resolver *TreatmentResolver
	builder  *segmentBuilder
	spelling SpellingSpecifier
}

// NewMaker validates cfg
func NewMaker(cfg Config) (*Maker, error) {
	if cfg.Talea == nil {
		return nil, fmt.Errorf("%w: no talea", ErrInvalidTalea)
	}
	resolver, err := NewTreatmentResolver(cfg.Treatments)
	if err != nil {
		return nil, err
	}

	spelling := DefaultSpelling()
	if cfg.Spelling != nil {
		spelling = *cfg.Spelling
	}
	policy := DefaultExpansionPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	if policy.RunOutRests && !cfg.Talea.HasAttack() {
		return nil, fmt.Errorf("%w: %s has no positive count to attach pitches to", ErrInvalidTalea, cfg.Talea)
	}

	return &Maker{
		cfg:      cfg,
		resolver: resolver,
		spelling: spelling,
		builder: &segmentBuilder{
			talea:    cfg.Talea,
			policy:   policy,
			decrease: spelling.DecreaseMonotonically,
		},
	}, nil
}

// Talea returns the maker's talea
func (m *Maker) Talea() *Talea {
	return m.cfg.Talea
}

// Selection is the output for one segment. Tuplet is nil for empty segments and for
// divisions rewritten by a mask; Run is never nil
type Selection struct {
	Index     int
	Treatment TimeTreatment
	Tuplet    *Tuplet
	Run       *LeafRun
}

// IsEmpty reports whether the segment produced no leaves
func (s *Selection) IsEmpty() bool {
	return s.Run.IsEmpty()
}

// Leaves returns the selection's leaves in order
func (s *Selection) Leaves() []*Leaf {
	return s.Run.Leaves()
}

// Duration is the prolated duration of the selection
func (s *Selection) Duration() *big.Rat {
	if s.Tuplet != nil {
		return s.Tuplet.Duration()
	}
	return s.Run.Duration()
}

// Stats summarises one call
type Stats struct {
	Segments      int
	SlotsConsumed int
	Leaves        int
	Tuplets       int
	Duration      *big.Rat
}

// Result is the output of one call
type Result struct {
	Selections []*Selection
	State      State
	Stats      Stats
}

// Manifest exports the final state
func (r *Result) Manifest() Manifest {
	return r.State.Manifest()
}

// Make builds every segment starting from state and returns the selections together
// with the advanced state
func (m *Maker) Make(segments []Segment, state State) (*Result, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}
	for i, seg := range segments {
		if err := validateSegment(seg, m.cfg.Talea.Unit()); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
	}

	cursor := state
	selections := make([]*Selection, 0, len(segments))
	for i, seg := range segments {
		sel, next, err := m.makeSelection(seg, i, len(segments), cursor)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		selections = append(selections, sel)
		cursor = next
	}

	if err := m.postProcess(selections); err != nil {
		return nil, err
	}

	return &Result{
		Selections: selections,
		State:      cursor,
		Stats:      collectStats(selections, state, cursor),
	}, nil
}

func (m *Maker) makeSelection(seg Segment, index, count int, cursor State) (*Selection, State, error) {
	treatment := m.resolver.Resolve(cursor.NextSegment)
	sel := &Selection{Index: index, Treatment: treatment, Run: &LeafRun{}}
	next := State{NextAttack: cursor.NextAttack, NextSegment: cursor.NextSegment + 1}
	if len(seg) == 0 {
		return sel, next, nil
	}

	var graces []*GraceGroup
	if m.cfg.Acciaccatura != nil && m.cfg.Acciaccatura.Applies(index, count) {
		var err error
		graces, seg, err = m.cfg.Acciaccatura.Extract(seg)
		if err != nil {
			return nil, cursor, err
		}
		if len(graces) != len(seg) {
			return nil, cursor, fmt.Errorf("%w: %d grace groups for %d expressions", ErrAcciaccaturaMismatch, len(graces), len(seg))
		}
	}

	built, err := m.builder.build(seg, cursor.NextAttack)
	if err != nil {
		return nil, cursor, err
	}
	for i, g := range graces {
		built.owners[i].Grace = g
	}
	next.NextAttack = built.nextAttack

	tuplet, err := wrapTuplet(built.run, treatment, m.cfg.Talea.Denominator())
	if err != nil {
		return nil, cursor, err
	}
	sel.Run = built.run
	sel.Tuplet = tuplet
	return sel, next, nil
}

func (m *Maker) postProcess(selections []*Selection) error {
	if err := applyDivisionMasks(selections, m.cfg.DivisionMasks, m.spelling.DecreaseMonotonically); err != nil {
		return err
	}
	applyLogicalTieMasks(selections, m.cfg.LogicalTieMasks)
	if m.cfg.Beam != nil {
		m.cfg.Beam.Beam(selections)
	}
	return m.spelling.rewriteMeter(selections)
}

func collectStats(selections []*Selection, from, to State) Stats {
	stats := Stats{
		Segments:      len(selections),
		SlotsConsumed: to.NextAttack - from.NextAttack,
		Duration:      new(big.Rat),
	}
	for _, sel := range selections {
		stats.Leaves += len(sel.Leaves())
		if sel.Tuplet != nil {
			stats.Tuplets++
		}
		stats.Duration.Add(stats.Duration, sel.Duration())
	}
	return stats
}

// Stream keeps a maker's cursor between calls so that successive calls continue one
// talea. A Stream is not safe for concurrent use
type Stream struct {
	maker *Maker
	state State
}

// NewStream starts a stream at the zero state
func NewStream(maker *Maker) *Stream {
	return &Stream{maker: maker}
}

// Call processes segments. A nil manifest resets the cursor to zero; otherwise the
// manifest's keys overwrite the cursor left by the previous call. The cursor only
// moves when the call succeeds
func (s *Stream) Call(segments []Segment, manifest Manifest) (*Result, error) {
	start := State{}
	if manifest != nil {
		var err error
		if start, err = s.state.Apply(manifest); err != nil {
			return nil, err
		}
	}
	res, err := s.maker.Make(segments, start)
	if err != nil {
		return nil, err
	}
	s.state = res.State
	return res, nil
}

// State returns the cursor left by the last successful call
func (s *Stream) State() State {
	return s.state
}
