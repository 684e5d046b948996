package rhythm

import (
	"fmt"
	"math/big"
	"strings"
)

// Talea is a cyclic sequence of signed duration counts over a power-of-two
// denominator. Negative counts are rests; indexing wraps around
type Talea struct {
	counts      []int
	denominator int
}

// NewTalea validates counts and denominator and returns an immutable talea
func NewTalea(counts []int, denominator int) (*Talea, error) {
	if denominator <= 0 || !isPowerOfTwo(int64(denominator)) {
		return nil, fmt.Errorf("%w: denominator %d is not a positive power of two", ErrInvalidTalea, denominator)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no counts", ErrInvalidTalea)
	}
	for i, c := range counts {
		if c == 0 {
			return nil, fmt.Errorf("%w: count %d is zero", ErrInvalidTalea, i)
		}
		if exceedsExpressionLimit(new(big.Rat).Abs(big.NewRat(int64(c), int64(denominator)))) {
			return nil, fmt.Errorf("%w: count %d lasts longer than %s", ErrInvalidTalea, i, FormatDuration(maxExpressionDuration))
		}
	}
	return &Talea{
		counts:      append([]int(nil), counts...),
		denominator: denominator,
	}, nil
}

// MustTalea is NewTalea for literals known to be valid
func MustTalea(counts []int, denominator int) *Talea {
	t, err := NewTalea(counts, denominator)
	if err != nil {
		panic(err)
	}
	return t
}

// At returns the count at position i, wrapping cyclically
func (t *Talea) At(i int) int {
	n := len(t.counts)
	return t.counts[((i%n)+n)%n]
}

// Len is the length of one talea cycle
func (t *Talea) Len() int {
	return len(t.counts)
}

// Denominator returns the talea's denominator
func (t *Talea) Denominator() int {
	return t.denominator
}

// Counts returns a copy of the talea's counts
func (t *Talea) Counts() []int {
	return append([]int(nil), t.counts...)
}

// Unit is the duration of one count
func (t *Talea) Unit() *big.Rat {
	return big.NewRat(1, int64(t.denominator))
}

// Duration converts a (possibly negative) count into its absolute duration
func (t *Talea) Duration(count int) *big.Rat {
	if count < 0 {
		count = -count
	}
	return big.NewRat(int64(count), int64(t.denominator))
}

// HasAttack reports whether at least one count is positive
func (t *Talea) HasAttack() bool {
	for _, c := range t.counts {
		if c > 0 {
			return true
		}
	}
	return false
}

func (t *Talea) String() string {
	parts := make([]string, len(t.counts))
	for i, c := range t.counts {
		parts[i] = fmt.Sprintf("%d", c)
	}
	return fmt.Sprintf("talea([%s], %d)", strings.Join(parts, " "), t.denominator)
}
