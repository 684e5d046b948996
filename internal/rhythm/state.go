package rhythm

import (
	"fmt"
	"sort"
)

// Manifest keys
const (
	KeyNextAttack  = "next_attack"
	KeyNextSegment = "next_segment"
)

// State is the talea cursor carried between calls
type State struct {
	NextAttack  int `json:"next_attack"`
	NextSegment int `json:"next_segment"`
}

// Manifest is the exported, re-injectable form of State. A manifest passed into a
// call may carry any subset of the keys
type Manifest map[string]int

// Validate rejects negative counters
func (s State) Validate() error {
	if s.NextAttack < 0 || s.NextSegment < 0 {
		return fmt.Errorf("%w: counters must be non-negative, got %d and %d", ErrInvalidState, s.NextAttack, s.NextSegment)
	}
	return nil
}

// Apply overwrites the counters named in m and keeps the rest
func (s State) Apply(m Manifest) (State, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := m[k]
		if v < 0 {
			return s, fmt.Errorf("%w: %s is negative (%d)", ErrInvalidState, k, v)
		}
		switch k {
		case KeyNextAttack:
			s.NextAttack = v
		case KeyNextSegment:
			s.NextSegment = v
		default:
			return s, fmt.Errorf("%w: unknown key %q", ErrInvalidState, k)
		}
	}
	return s, nil
}

// Manifest exports both counters
func (s State) Manifest() Manifest {
	return Manifest{
		KeyNextAttack:  s.NextAttack,
		KeyNextSegment: s.NextSegment,
	}
}

// StateFromManifest applies m to the zero state
func StateFromManifest(m Manifest) (State, error) {
	return State{}.Apply(m)
}
