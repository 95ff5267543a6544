// Package model contains domain models passed between layers.
package model

import "math"

// Record is one row of the historical cutoff table.
// Absent scores are NaN.
type Record struct {
	Specialty        string  // academic program identifier
	Group            string  // exam group the program admits from
	Sector           string  // language/track sector
	PassingScore     float64 // cutoff that secured admission that cycle
	MinScoreRequired float64 // published minimum, informational only
}

// HasPassingScore reports whether the passing score is a usable number.
func (r Record) HasPassingScore() bool {
	return !math.IsNaN(r.PassingScore) && !math.IsInf(r.PassingScore, 0)
}
