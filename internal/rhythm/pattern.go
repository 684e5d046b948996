package rhythm

// Pattern selects positions in a sequence of known length. Negative indices count from
// the end. With a positive Period the indices repeat every Period positions
type Pattern struct {
	Indices  []int
	Period   int
	Inverted bool
}

// Every returns a pattern matching every position
func Every() Pattern {
	return Pattern{Indices: []int{0}, Period: 1}
}

// Matches reports whether position index of a sequence of length total is selected
func (p Pattern) Matches(index, total int) bool {
	if index < 0 {
		index = total + index
	}
	matched := false
	for _, i := range p.Indices {
		if i < 0 {
			i = total + i
		}
		if p.Period > 0 {
			if mod(i, p.Period) == mod(index, p.Period) {
				matched = true
				break
			}
			continue
		}
		if i == index {
			matched = true
			break
		}
	}
	if p.Inverted {
		return !matched
	}
	return matched
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
