package rhythm

import (
	"fmt"
	"math/big"
)

// GraceExtractor pulls grace pitches out of a segment before durations are assigned.
// Extract returns one grace group (or nil) per expression of the reduced segment
type GraceExtractor interface {
	Applies(segmentIndex, segmentCount int) bool
	Extract(segment Segment) ([]*GraceGroup, Segment, error)
}

// LMRSpecifier partitions a segment into left, middle and right regions and each region
// into parts. Counts are applied cyclically; empty counts keep a region whole
type LMRSpecifier struct {
	LeftLength   int
	RightLength  int
	LeftCounts   []int
	MiddleCounts []int
	RightCounts  []int
}

// Partition splits seg into non-empty parts in order
func (s LMRSpecifier) Partition(seg Segment) []Segment {
	n := len(seg)
	left := clamp(s.LeftLength, 0, n)
	right := clamp(s.RightLength, 0, n-left)

	var parts []Segment
	parts = append(parts, partitionCyclic(seg[:left], s.LeftCounts)...)
	parts = append(parts, partitionCyclic(seg[left:n-right], s.MiddleCounts)...)
	parts = append(parts, partitionCyclic(seg[n-right:], s.RightCounts)...)
	return parts
}

func partitionCyclic(seg Segment, counts []int) []Segment {
	if len(seg) == 0 {
		return nil
	}
	positive := make([]int, 0, len(counts))
	for _, c := range counts {
		if c > 0 {
			positive = append(positive, c)
		}
	}
	if len(positive) == 0 {
		return []Segment{seg}
	}

	var parts []Segment
	for i, start := 0, 0; start < len(seg); i++ {
		end := start + positive[i%len(positive)]
		if end > len(seg) {
			end = len(seg)
		}
		parts = append(parts, seg[start:end])
		start = end
	}
	return parts
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AcciaccaturaSpecifier turns all but the last expression of every LMR part into
// grace notes attached to that last expression
type AcciaccaturaSpecifier struct {
	// Durations are applied cyclically to grace leaves; empty means sixteenths
	Durations []*big.Rat
	LMR       LMRSpecifier
	// Pattern selects segments by index within the call; nil selects every segment
	Pattern *Pattern
}

// Applies reports whether the specifier acts on this segment
func (s *AcciaccaturaSpecifier) Applies(segmentIndex, segmentCount int) bool {
	if s.Pattern == nil {
		return true
	}
	return s.Pattern.Matches(segmentIndex, segmentCount)
}

// Extract returns the grace groups and the reduced segment
func (s *AcciaccaturaSpecifier) Extract(seg Segment) ([]*GraceGroup, Segment, error) {
	durations := s.Durations
	if len(durations) == 0 {
		durations = []*big.Rat{big.NewRat(1, 16)}
	}

	parts := s.LMR.Partition(seg)
	graces := make([]*GraceGroup, 0, len(parts))
	reduced := make(Segment, 0, len(parts))
	for _, part := range parts {
		reduced = append(reduced, part[len(part)-1])
		if len(part) == 1 {
			graces = append(graces, nil)
			continue
		}
		group := &GraceGroup{}
		for i, e := range part[:len(part)-1] {
			d := durations[i%len(durations)]
			if !IsAssignable(d) {
				return nil, nil, fmt.Errorf("%w: grace duration %s is not assignable", ErrAcciaccaturaMismatch, FormatDuration(d))
			}
			leaf := &Leaf{Written: new(big.Rat).Set(d)}
			switch v := e.(type) {
			case Pitch:
				leaf.Kind = NoteLeaf
				leaf.Pitch = float64(v)
			case Rest:
				leaf.Kind = RestLeaf
			default:
				return nil, nil, fmt.Errorf("%w: %s cannot be a grace note", ErrAcciaccaturaMismatch, e)
			}
			group.Leaves = append(group.Leaves, leaf)
		}
		group.Beamed = len(group.Leaves) > 1
		graces = append(graces, group)
	}
	return graces, reduced, nil
}
