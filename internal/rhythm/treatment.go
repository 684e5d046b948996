package rhythm

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// TimeTreatment says how one segment's written duration is stretched or compressed.
// The set of implementations is closed: ExtraCount, Ratio, Multiplier,
// TargetDuration, Accelerando and Ritardando
type TimeTreatment interface {
	fmt.Stringer
	timeTreatment()
}

// ExtraCount adds (or, when negative, removes) talea units from the tuplet's
// contents. Zero is the identity treatment
type ExtraCount int

// Ratio plays the contents as Numerator in the time of Denominator
type Ratio struct {
	Numerator   int
	Denominator int
}

// Multiplier scales the contents verbatim
type Multiplier struct {
	Value *big.Rat
}

// TargetDuration fits the contents into an exact total duration
type TargetDuration struct {
	Value *big.Rat
}

// Accelerando interpolates leaf durations so that attacks get closer together
type Accelerando struct{}

// Ritardando interpolates leaf durations so that attacks spread apart
type Ritardando struct{}

func (ExtraCount) timeTreatment()     {}
func (Ratio) timeTreatment()          {}
func (Multiplier) timeTreatment()     {}
func (TargetDuration) timeTreatment() {}
func (Accelerando) timeTreatment()    {}
func (Ritardando) timeTreatment()     {}

func (e ExtraCount) String() string     { return strconv.Itoa(int(e)) }
func (r Ratio) String() string          { return fmt.Sprintf("%d:%d", r.Numerator, r.Denominator) }
func (m Multiplier) String() string     { return "x" + FormatDuration(m.Value) }
func (d TargetDuration) String() string { return FormatDuration(d.Value) }
func (Accelerando) String() string      { return "accel" }
func (Ritardando) String() string       { return "rit" }

// ParseTimeTreatment reads the token forms used by requests and the DSL:
//
//	""  "0"  "none"  -> ExtraCount(0)
//	"3"  "-1"        -> ExtraCount
//	"3:2"            -> Ratio
//	"x3/2"  "*3/2"   -> Multiplier
//	"3/16"  "1.0"    -> TargetDuration (a bare integer is an ExtraCount)
//	"accel"  "rit"
func ParseTimeTreatment(token string) (TimeTreatment, error) {
	s := strings.TrimSpace(strings.ToLower(token))
	switch s {
	case "", "none", "null":
		return ExtraCount(0), nil
	case "accel", "accelerando":
		return Accelerando{}, nil
	case "rit", "ritardando":
		return Ritardando{}, nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		return ExtraCount(n), nil
	}

	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 2)
		num, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		den, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: bad ratio %q", ErrInvalidTimeTreatment, token)
		}
		return validateTreatment(Ratio{Numerator: num, Denominator: den})
	}

	if strings.HasPrefix(s, "x") || strings.HasPrefix(s, "*") {
		r, ok := new(big.Rat).SetString(s[1:])
		if !ok {
			return nil, fmt.Errorf("%w: bad multiplier %q", ErrInvalidTimeTreatment, token)
		}
		return validateTreatment(Multiplier{Value: r})
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized token %q", ErrInvalidTimeTreatment, token)
	}
	return validateTreatment(TargetDuration{Value: r})
}

// ParseTimeTreatments parses a whitespace or comma separated list of tokens
func ParseTimeTreatments(list string) ([]TimeTreatment, error) {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	treatments := make([]TimeTreatment, 0, len(fields))
	for _, f := range fields {
		t, err := ParseTimeTreatment(f)
		if err != nil {
			return nil, err
		}
		treatments = append(treatments, t)
	}
	return treatments, nil
}

func validateTreatment(t TimeTreatment) (TimeTreatment, error) {
	switch v := t.(type) {
	case nil:
		return ExtraCount(0), nil
	case ExtraCount, Accelerando, Ritardando:
		return v, nil
	case Ratio:
		if v.Numerator <= 0 || v.Denominator <= 0 {
			return nil, fmt.Errorf("%w: ratio %s must have positive terms", ErrInvalidTimeTreatment, v)
		}
		return v, nil
	case Multiplier:
		if v.Value == nil || v.Value.Sign() <= 0 {
			return nil, fmt.Errorf("%w: multiplier must be positive", ErrInvalidTimeTreatment)
		}
		return Multiplier{Value: new(big.Rat).Set(v.Value)}, nil
	case TargetDuration:
		if v.Value == nil || v.Value.Sign() <= 0 {
			return nil, fmt.Errorf("%w: target duration must be positive", ErrInvalidTimeTreatment)
		}
		return TargetDuration{Value: new(big.Rat).Set(v.Value)}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidTimeTreatment, t)
	}
}

// TreatmentResolver maps segment numbers onto a cyclic list of validated treatments
type TreatmentResolver struct {
	treatments []TimeTreatment
}

// NewTreatmentResolver validates every treatment up front so that errors surface
// before any leaves are built. Nil entries become ExtraCount(0)
func NewTreatmentResolver(treatments []TimeTreatment) (*TreatmentResolver, error) {
	resolved := make([]TimeTreatment, 0, len(treatments))
	for i, t := range treatments {
		v, err := validateTreatment(t)
		if err != nil {
			return nil, fmt.Errorf("treatment %d: %w", i, err)
		}
		resolved = append(resolved, v)
	}
	return &TreatmentResolver{treatments: resolved}, nil
}

// Resolve returns the treatment for the given segment number
func (r *TreatmentResolver) Resolve(segmentIndex int) TimeTreatment {
	n := len(r.treatments)
	if n == 0 {
		return ExtraCount(0)
	}
	return r.treatments[((segmentIndex%n)+n)%n]
}

// Len is the number of configured treatments
func (r *TreatmentResolver) Len() int {
	return len(r.treatments)
}
