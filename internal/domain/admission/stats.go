package admission

import "math"

// validScores returns the finite scores, dropping NaN and ±Inf entries.
func validScores(scores []float64) []float64 {
	out := make([]float64, 0, len(scores))
	for _, v := range scores {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev uses the n-1 denominator. Undefined (NaN) below two values.
func sampleStdDev(values []float64, m float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// normalCDF is P(X <= x) for X ~ Normal(mu, sigma).
func normalCDF(x, mu, sigma float64) float64 {
	return 0.5 * math.Erfc(-(x-mu)/(sigma*math.Sqrt2))
}

// round2 rounds to 2 decimals, halves to even.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

func ptr(v float64) *float64 { return &v }
