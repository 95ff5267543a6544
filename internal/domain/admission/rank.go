package admission

import (
	"cmp"
	"slices"
)

// Compare orders a before b when a has the higher probability. An estimate
// without a probability orders after every estimate that has one; two such
// estimates compare equal.
func Compare(a, b Estimate) int {
	switch {
	case a.Probability == nil && b.Probability == nil:
		return 0
	case a.Probability == nil:
		return 1
	case b.Probability == nil:
		return -1
	}
	return cmp.Compare(*b.Probability, *a.Probability)
}

// Rank sorts estimates in place by Compare. Ties keep their input order.
func Rank(estimates []Estimate) {
	slices.SortStableFunc(estimates, Compare)
}

// Top returns the first n ranked estimates. n <= 0 keeps all of them.
func Top(estimates []Estimate, n int) []Estimate {
	if n <= 0 || n >= len(estimates) {
		return estimates
	}
	return estimates[:n]
}
