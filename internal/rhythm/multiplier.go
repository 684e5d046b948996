package rhythm

import "math/big"

var (
	half = big.NewRat(1, 2)
	two  = big.NewRat(2, 1)
)

// IsProperTupletMultiplier reports whether 1/2 < m < 2
func IsProperTupletMultiplier(m *big.Rat) bool {
	return m != nil && m.Cmp(half) > 0 && m.Cmp(two) < 0
}

// NormalizeMultiplier folds a positive multiplier into (1/2, 2] by doubling values
// at or below 1/2 and halving values at or above 2
func NormalizeMultiplier(m *big.Rat) *big.Rat {
	out := new(big.Rat).Set(m)
	if out.Sign() <= 0 {
		return out
	}
	for out.Cmp(half) <= 0 {
		out.Mul(out, two)
	}
	for out.Cmp(two) >= 0 {
		out.Mul(out, half)
	}
	return out
}
