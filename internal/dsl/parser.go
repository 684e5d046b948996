package dsl

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/Conceptual-Machines/grammar-school-go/gs"
	"github.com/Conceptual-Machines/talea-api/internal/rhythm"
)

// ErrMissingTalea is returned when a program never calls talea()
var ErrMissingTalea = errors.New("talea() is required")

// Program is the result of executing DSL code: a maker configuration plus the
// segments to run through it
type Program struct {
	Config   rhythm.Config
	Segments []rhythm.Segment
	// State is nil unless the program calls state()
	State  rhythm.Manifest
	Stream string
}

// RhythmDSLParser parses rhythm DSL code using Grammar School
type RhythmDSLParser struct {
	mu        sync.Mutex
	engine    *gs.Engine
	rhythmDSL *RhythmDSL
}

// RhythmDSL implements the DSL side-effect methods
type RhythmDSL struct {
	program  *Program
	counts   []int
	den      int
	spelling rhythm.SpellingSpecifier
	policy   rhythm.ExpansionPolicy
}

// NewRhythmDSLParser creates a new rhythm DSL parser
func NewRhythmDSLParser() (*RhythmDSLParser, error) {
	parser := &RhythmDSLParser{rhythmDSL: &RhythmDSL{}}

	engine, err := gs.NewEngine(GetRhythmDSLGrammar(), parser.rhythmDSL, gs.NewLarkParser())
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	parser.engine = engine
	return parser, nil
}

// Parse executes DSL code and returns the program it describes
func (p *RhythmDSLParser) Parse(ctx context.Context, dslCode string) (*Program, error) {
	if strings.TrimSpace(dslCode) == "" {
		return nil, fmt.Errorf("empty DSL code")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	d := p.rhythmDSL
	d.reset()
	if err := p.engine.Execute(ctx, dslCode); err != nil {
		return nil, fmt.Errorf("failed to execute DSL: %w", err)
	}
	if d.counts == nil {
		return nil, ErrMissingTalea
	}

	talea, err := rhythm.NewTalea(d.counts, d.den)
	if err != nil {
		return nil, err
	}
	prog := d.program
	prog.Config.Talea = talea
	spelling, policy := d.spelling, d.policy
	prog.Config.Spelling = &spelling
	prog.Config.Policy = &policy

	log.Printf("✅ Rhythm DSL Parser: %s with %d segments", talea, len(prog.Segments))
	return prog, nil
}

func (d *RhythmDSL) reset() {
	d.program = &Program{}
	d.counts = nil
	d.den = 16
	d.spelling = rhythm.DefaultSpelling()
	d.policy = rhythm.DefaultExpansionPolicy()
}

// Talea handles talea() calls
func (d *RhythmDSL) Talea(args gs.Args) error {
	counts, ok := stringArg(args, "counts")
	if !ok {
		return fmt.Errorf("talea: missing counts")
	}
	parsed, err := parseInts(counts)
	if err != nil {
		return fmt.Errorf("talea: %w", err)
	}
	d.counts = parsed
	if den, ok := numberArg(args, "denominator"); ok {
		d.den = int(den)
	}
	return nil
}

// Treatments handles treatments() calls
func (d *RhythmDSL) Treatments(args gs.Args) error {
	values, _ := stringArg(args, "values")
	treatments, err := rhythm.ParseTimeTreatments(values)
	if err != nil {
		return fmt.Errorf("treatments: %w", err)
	}
	d.program.Config.Treatments = treatments
	return nil
}

// Acciaccatura handles acciaccatura() calls
func (d *RhythmDSL) Acciaccatura(args gs.Args) error {
	spec := &rhythm.AcciaccaturaSpecifier{}

	if s, ok := stringArg(args, "durations"); ok {
		for _, f := range strings.Fields(s) {
			dur, err := rhythm.ParseDuration(f)
			if err != nil {
				return fmt.Errorf("acciaccatura: %w", err)
			}
			spec.Durations = append(spec.Durations, dur)
		}
	}

	if _, ok := args["indices"]; ok {
		pattern, err := patternArgs(args)
		if err != nil {
			return fmt.Errorf("acciaccatura: %w", err)
		}
		spec.Pattern = &pattern
	}

	if n, ok := numberArg(args, "left"); ok {
		spec.LMR.LeftLength = int(n)
	}
	if n, ok := numberArg(args, "right"); ok {
		spec.LMR.RightLength = int(n)
	}
	for key, dst := range map[string]*[]int{
		"left_counts":   &spec.LMR.LeftCounts,
		"middle_counts": &spec.LMR.MiddleCounts,
		"right_counts":  &spec.LMR.RightCounts,
	} {
		s, ok := stringArg(args, key)
		if !ok {
			continue
		}
		counts, err := parseInts(s)
		if err != nil {
			return fmt.Errorf("acciaccatura %s: %w", key, err)
		}
		*dst = counts
	}

	d.program.Config.Acciaccatura = spec
	return nil
}

// Beam handles beam() calls
func (d *RhythmDSL) Beam(args gs.Args) error {
	spec := rhythm.BeamSpecifier{BeamEachDivision: true}
	if b, ok := boolArg(args, "each"); ok {
		spec.BeamEachDivision = b
	}
	if b, ok := boolArg(args, "together"); ok {
		spec.BeamDivisionsTogether = b
	}
	if b, ok := boolArg(args, "rests"); ok {
		spec.BeamRests = b
	}
	d.program.Config.Beam = spec
	return nil
}

// Mask handles mask() calls
func (d *RhythmDSL) Mask(args gs.Args) error {
	kindName, _ := stringArg(args, "kind")
	if kindName == "" {
		kindName = "silence"
	}
	kind, err := rhythm.ParseMaskKind(kindName)
	if err != nil {
		return fmt.Errorf("mask: %w", err)
	}
	pattern, err := patternArgs(args)
	if err != nil {
		return fmt.Errorf("mask: %w", err)
	}
	if _, ok := args["indices"]; !ok {
		every := rhythm.Every()
		every.Inverted = pattern.Inverted
		pattern = every
	}
	mask := rhythm.Mask{Kind: kind, Pattern: pattern}

	switch target, _ := stringArg(args, "target"); target {
	case "", "division":
		d.program.Config.DivisionMasks = append(d.program.Config.DivisionMasks, mask)
	case "tie":
		d.program.Config.LogicalTieMasks = append(d.program.Config.LogicalTieMasks, mask)
	default:
		return fmt.Errorf("mask: unknown target %q", target)
	}
	return nil
}

// Spelling handles spelling() calls
func (d *RhythmDSL) Spelling(args gs.Args) error {
	if b, ok := boolArg(args, "decrease"); ok {
		d.spelling.DecreaseMonotonically = b
	}
	if b, ok := boolArg(args, "rewrite_meter"); ok {
		d.spelling.RewriteMeter = b
	}
	return nil
}

// Policy handles policy() calls
func (d *RhythmDSL) Policy(args gs.Args) error {
	if b, ok := boolArg(args, "run_out"); ok {
		d.policy.RunOutRests = b
	}
	if b, ok := boolArg(args, "stop_at_cycle"); ok {
		d.policy.StopRunOutAtCycle = b
	}
	return nil
}

// State handles state() calls
func (d *RhythmDSL) State(args gs.Args) error {
	if d.program.State == nil {
		d.program.State = rhythm.Manifest{}
	}
	for _, key := range []string{rhythm.KeyNextAttack, rhythm.KeyNextSegment} {
		if n, ok := numberArg(args, key); ok {
			d.program.State[key] = int(n)
		}
	}
	return nil
}

// Stream handles stream() calls
func (d *RhythmDSL) Stream(args gs.Args) error {
	name, _ := stringArg(args, "name")
	if name == "" {
		return fmt.Errorf("stream: missing name")
	}
	d.program.Stream = name
	return nil
}

// Segment handles segment() calls
func (d *RhythmDSL) Segment(args gs.Args) error {
	pitches, _ := stringArg(args, "pitches")
	seg, err := rhythm.ParseSegment(pitches)
	if err != nil {
		return fmt.Errorf("segment %d: %w", len(d.program.Segments), err)
	}
	d.program.Segments = append(d.program.Segments, seg)
	return nil
}

func patternArgs(args gs.Args) (rhythm.Pattern, error) {
	var pattern rhythm.Pattern
	if s, ok := stringArg(args, "indices"); ok {
		indices, err := parseInts(s)
		if err != nil {
			return pattern, err
		}
		pattern.Indices = indices
	}
	if n, ok := numberArg(args, "period"); ok {
		pattern.Period = int(n)
	}
	if b, ok := boolArg(args, "inverted"); ok {
		pattern.Inverted = b
	}
	return pattern, nil
}

func stringArg(args gs.Args, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v.Kind != gs.ValueString {
		return "", false
	}
	return strings.Trim(v.Str, "\""), true
}

func numberArg(args gs.Args, key string) (float64, bool) {
	v, ok := args[key]
	if !ok || v.Kind != gs.ValueNumber {
		return 0, false
	}
	return v.Num, true
}

func boolArg(args gs.Args, key string) (bool, bool) {
	v, ok := args[key]
	if !ok {
		return false, false
	}
	switch v.Kind {
	case gs.ValueBool:
		return v.Bool, true
	case gs.ValueString:
		b, err := strconv.ParseBool(strings.Trim(v.Str, "\""))
		return b, err == nil
	default:
		return false, false
	}
}

func parseInts(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("bad integer %q", f)
		}
		out = append(out, n)
	}
	return out, nil
}
