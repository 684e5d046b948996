package rhythm

import (
	"math"
	"math/big"
)

// Curve exponents for the accelerando and ritardando treatments
const (
	AccelerandoExponent = 0.625
	RitardandoExponent  = 1.625
)

// accelerandoResolution is the grid interpolated durations are rounded to
const accelerandoResolution = 1024

// AccelerandoMultipliers redistributes durations along the curve total*x^exponent
// and returns one multiplier per duration. The multiplied durations always sum to the
// original total exactly: rounding slack lands on the first or last duration
func AccelerandoMultipliers(durations []*big.Rat, exponent float64) []*big.Rat {
	n := len(durations)
	if n == 0 {
		return nil
	}
	total := sumDurations(durations)
	if n == 1 || total.Sign() <= 0 || exponent <= 0 {
		return identityMultipliers(n)
	}
	totalF, _ := total.Float64()

	// Interpolated attack offsets, closed by the total itself
	boundaries := make([]float64, 0, n+1)
	offset := new(big.Rat)
	for _, d := range durations {
		x, _ := new(big.Rat).Quo(offset, total).Float64()
		boundaries = append(boundaries, totalF*math.Pow(x, exponent))
		offset.Add(offset, d)
	}
	boundaries = append(boundaries, totalF)

	rounded := make([]*big.Rat, n)
	for i := 0; i < n; i++ {
		units := int64(math.RoundToEven((boundaries[i+1] - boundaries[i]) * accelerandoResolution))
		if units < 1 {
			units = 1
		}
		rounded[i] = big.NewRat(units, accelerandoResolution)
	}

	if !correctRounding(rounded, total) {
		return identityMultipliers(n)
	}

	multipliers := make([]*big.Rat, n)
	for i, d := range durations {
		multipliers[i] = new(big.Rat).Quo(rounded[i], d)
	}
	return multipliers
}

// correctRounding moves the difference between total and the sum of ds onto one edge
// element: a shortfall goes to the larger edge, an excess comes off the smaller edge
// unless that would leave it non-positive. It reports false when no edge can absorb
// the excess
func correctRounding(ds []*big.Rat, total *big.Rat) bool {
	diff := new(big.Rat).Sub(total, sumDurations(ds))
	if diff.Sign() == 0 {
		return true
	}

	first, last := 0, len(ds)-1
	larger, smaller := first, last
	if ds[last].Cmp(ds[first]) > 0 {
		larger, smaller = last, first
	}

	if diff.Sign() > 0 {
		ds[larger] = new(big.Rat).Add(ds[larger], diff)
		return true
	}
	for _, i := range []int{smaller, larger} {
		adjusted := new(big.Rat).Add(ds[i], diff)
		if adjusted.Sign() > 0 {
			ds[i] = adjusted
			return true
		}
	}
	return false
}

func identityMultipliers(n int) []*big.Rat {
	out := make([]*big.Rat, n)
	for i := range out {
		out[i] = ratOne()
	}
	return out
}
