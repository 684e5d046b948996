package rhythm

import (
	"fmt"
	"math/big"
)

// Durations are exact fractions of a whole note: 1/4 is a quarter note

// maxAssignable is the first duration that no single note value can spell (a dotted
// maxima is the longest assignable value)
var maxAssignable = big.NewRat(16, 1)

// maxExpressionDuration bounds what a single talea count or scaled silence may last,
// which keeps the number of tied leaves one expression spells small
var maxExpressionDuration = big.NewRat(64, 1)

func exceedsExpressionLimit(d *big.Rat) bool {
	return d.Cmp(maxExpressionDuration) > 0
}

// NewDuration returns n/d of a whole note
func NewDuration(n, d int64) *big.Rat {
	return big.NewRat(n, d)
}

// ParseDuration parses "3/16", "1" or "0.25" into an exact duration
func ParseDuration(s string) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid duration %q", s)
	}
	return r, nil
}

// FormatDuration renders a duration as "n/d" (or "n" for whole multiples)
func FormatDuration(d *big.Rat) string {
	if d == nil {
		return ""
	}
	return d.RatString()
}

// DurationName renders an assignable duration the way note values are usually named:
// "4" for a quarter, "8." for a dotted eighth, "\breve" for two whole notes. Other
// durations fall back to FormatDuration
func DurationName(d *big.Rat) string {
	if !IsAssignable(d) {
		return FormatDuration(d)
	}
	// An n-dotted value is base * (2^(n+1)-1) / 2^n
	odd := d.Num().Int64()
	for odd%2 == 0 {
		odd /= 2
	}
	dots := 0
	for m := odd; m > 1; m >>= 1 {
		dots++
	}
	base := new(big.Rat).Mul(d, big.NewRat(int64(1)<<dots, odd))

	var name string
	switch {
	case base.Num().Int64() == 1:
		name = base.Denom().String()
	case base.Cmp(big.NewRat(2, 1)) == 0:
		name = `\breve`
	case base.Cmp(big.NewRat(4, 1)) == 0:
		name = `\longa`
	default:
		name = `\maxima`
	}
	for i := 0; i < dots; i++ {
		name += "."
	}
	return name
}

func isPowerOfTwo(n int64) bool {
	return n > 0 && n&(n-1) == 0
}

// isAssignableInteger reports whether n has the form 2^a * (2^b - 1)
func isAssignableInteger(n int64) bool {
	if n <= 0 {
		return false
	}
	for n%2 == 0 {
		n /= 2
	}
	return isPowerOfTwo(n + 1)
}

// IsAssignable reports whether d can be written as one (possibly dotted) note value
func IsAssignable(d *big.Rat) bool {
	if d == nil || d.Sign() <= 0 || d.Cmp(maxAssignable) >= 0 {
		return false
	}
	if !d.Num().IsInt64() || !d.Denom().IsInt64() {
		return false
	}
	return isPowerOfTwo(d.Denom().Int64()) && isAssignableInteger(d.Num().Int64())
}

// canonicParts splits n into its runs of consecutive one bits, largest first.
// 11 (0b1011) gives [8 3]; every part is an assignable integer
func canonicParts(n int64) []int64 {
	var parts []int64
	var run int64
	for bit := int64(1); bit > 0 && bit <= n; bit <<= 1 {
		if n&bit != 0 {
			run |= bit
			continue
		}
		if run != 0 {
			parts = append(parts, run)
			run = 0
		}
	}
	if run != 0 {
		parts = append(parts, run)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}

// previousPowerOfTwo returns the largest power of two strictly below n (n > 1)
func previousPowerOfTwo(n int64) int64 {
	p := int64(1)
	for p*2 < n {
		p *= 2
	}
	return p
}

// spellDuration splits d into written values that are tied together. When the
// denominator of d is not a power of two the written values are scaled up and the
// returned multiplier (p/den) restores the sounding duration; otherwise the multiplier
// is nil
func spellDuration(d *big.Rat, decreaseMonotonically bool) ([]*big.Rat, *big.Rat, error) {
	if d == nil || d.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: cannot spell non-positive duration %s", ErrInvalidSegment, FormatDuration(d))
	}
	if !d.Num().IsInt64() || !d.Denom().IsInt64() {
		return nil, nil, fmt.Errorf("%w: duration %s out of range", ErrInvalidSegment, FormatDuration(d))
	}

	num := d.Num().Int64()
	den := d.Denom().Int64()

	var multiplier *big.Rat
	if !isPowerOfTwo(den) {
		p := previousPowerOfTwo(den)
		multiplier = big.NewRat(p, den)
		den = p
	}

	parts := canonicParts(num)
	if !decreaseMonotonically {
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
	}

	written := make([]*big.Rat, 0, len(parts))
	for _, part := range parts {
		w := big.NewRat(part, den)
		// Split values too long for one note into maxima-sized chunks
		for w.Cmp(maxAssignable) >= 0 {
			written = append(written, big.NewRat(8, 1))
			w.Sub(w, big.NewRat(8, 1))
		}
		if w.Sign() > 0 {
			written = append(written, w)
		}
	}
	return written, multiplier, nil
}

// countOver expresses d as an integer count of 1/den units. When d does not fit the
// unit exactly the unit is refined to lcm(den, denominator of d)
func countOver(d *big.Rat, den int64) int64 {
	scaled := new(big.Rat).Mul(d, big.NewRat(den, 1))
	if scaled.IsInt() {
		return scaled.Num().Int64()
	}
	l := lcm(den, d.Denom().Int64())
	return new(big.Rat).Mul(d, big.NewRat(l, 1)).Num().Int64()
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func lcm(a, b int64) int64 {
	return a / gcd(a, b) * b
}

func sumDurations(ds []*big.Rat) *big.Rat {
	total := new(big.Rat)
	for _, d := range ds {
		total.Add(total, d)
	}
	return total
}

func ratOne() *big.Rat {
	return big.NewRat(1, 1)
}
