package rhythm

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// PitchExpression is one element of a segment: a Pitch, a Rest, or a ScaledSilence
type PitchExpression interface {
	fmt.Stringer
	pitchExpression()
}

// Pitch is a numbered pitch (0 is middle C; fractional values are microtones)
type Pitch float64

// Rest draws its duration from the talea like a pitch but sounds nothing
type Rest struct{}

// ScaledSilence bypasses the talea: it lasts Multiplier talea units and renders as a
// skip when Skip is set, a rest otherwise
type ScaledSilence struct {
	Multiplier *big.Rat
	Skip       bool
}

func (Pitch) pitchExpression()         {}
func (Rest) pitchExpression()          {}
func (ScaledSilence) pitchExpression() {}

func (p Pitch) String() string { return strconv.FormatFloat(float64(p), 'f', -1, 64) }
func (Rest) String() string    { return "r" }

func (s ScaledSilence) String() string {
	tag := "r"
	if s.Skip {
		tag = "skip"
	}
	return FormatDuration(s.Multiplier) + ":" + tag
}

// Segment is one group of pitch expressions; normally it becomes one tuplet
type Segment []PitchExpression

func (s Segment) String() string {
	parts := make([]string, len(s))
	for i, e := range s {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// Pitches builds a segment of plain pitches
func Pitches(values ...float64) Segment {
	seg := make(Segment, len(values))
	for i, v := range values {
		seg[i] = Pitch(v)
	}
	return seg
}

// ParsePitchExpression reads one token: "10", "-3.5", "r", "3/2:r", "2:skip"
func ParsePitchExpression(token string) (PitchExpression, error) {
	s := strings.TrimSpace(strings.ToLower(token))
	switch s {
	case "":
		return nil, fmt.Errorf("%w: empty token", ErrInvalidSegment)
	case "r", "rest":
		return Rest{}, nil
	}

	if i := strings.LastIndex(s, ":"); i >= 0 {
		m, ok := new(big.Rat).SetString(s[:i])
		if !ok || m.Sign() <= 0 {
			return nil, fmt.Errorf("%w: bad silence multiplier in %q", ErrInvalidSegment, token)
		}
		switch s[i+1:] {
		case "r", "rest", "none":
			return ScaledSilence{Multiplier: m}, nil
		case "s", "skip":
			return ScaledSilence{Multiplier: m, Skip: true}, nil
		default:
			return nil, fmt.Errorf("%w: bad silence tag in %q", ErrInvalidSegment, token)
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad pitch %q", ErrInvalidSegment, token)
	}
	return Pitch(f), nil
}

// ParseSegment reads whitespace or comma separated tokens
func ParseSegment(s string) (Segment, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	seg := make(Segment, 0, len(fields))
	for _, f := range fields {
		e, err := ParsePitchExpression(f)
		if err != nil {
			return nil, err
		}
		seg = append(seg, e)
	}
	return seg, nil
}

// validateSegment checks every expression; unit is the talea unit scaled silences
// are measured in
func validateSegment(seg Segment, unit *big.Rat) error {
	for i, e := range seg {
		switch v := e.(type) {
		case Pitch, Rest:
		case ScaledSilence:
			if v.Multiplier == nil || v.Multiplier.Sign() <= 0 {
				return fmt.Errorf("%w: expression %d has a non-positive multiplier", ErrInvalidSegment, i)
			}
			if exceedsExpressionLimit(new(big.Rat).Mul(v.Multiplier, unit)) {
				return fmt.Errorf("%w: expression %d lasts longer than %s", ErrInvalidSegment, i, FormatDuration(maxExpressionDuration))
			}
		default:
			return fmt.Errorf("%w: expression %d has type %T", ErrInvalidSegment, i, e)
		}
	}
	return nil
}
