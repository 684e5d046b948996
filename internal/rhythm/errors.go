package rhythm

import "errors"

// Configuration errors surface at construction or at the start of a call
var (
	ErrInvalidTalea         = errors.New("invalid talea")
	ErrInvalidTimeTreatment = errors.New("invalid time treatment")
	ErrInvalidState         = errors.New("invalid state manifest")
	ErrInvalidSegment       = errors.New("invalid segment")
	ErrAcciaccaturaMismatch = errors.New("acciaccatura groups do not match segment")
)

// Geometry errors surface while a tuplet is being built
var ErrImproperTupletMultiplier = errors.New("improper tuplet multiplier")

// ErrUnknownTimeTreatment means a treatment outside the closed set reached the tuplet
// dispatch. Validation should make this unreachable
var ErrUnknownTimeTreatment = errors.New("unknown time treatment")

// ErrRewriteMeterNotImplemented is returned when a spelling specifier asks for meter
// rewriting
var ErrRewriteMeterNotImplemented = errors.New("rewrite meter is not implemented")
