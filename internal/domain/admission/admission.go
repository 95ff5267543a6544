package admission

// Engine turns a candidate score and historical cutoffs into ranked estimates.
// An Engine holds only its policy and is safe for concurrent use.
type Engine struct {
	policy Policy
}

// NewEngine creates an engine with the default policy and applies opts.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the zero-variance policy in effect.
func (e *Engine) Policy() Policy { return e.policy }

// Estimate returns one estimate per distinct specialty in records, ranked by
// probability descending with uncomputable estimates last. Records with an
// absent or non-finite passing score are excluded from their specialty's sample.
func (e *Engine) Estimate(userScore float64, records []HistoricalRecord) []Estimate {
	order, bySpecialty := groupBySpecialty(records)

	out := make([]Estimate, 0, len(order))
	for _, specialty := range order {
		out = append(out, e.estimateOne(userScore, specialty, bySpecialty[specialty]))
	}
	Rank(out)
	return out
}

// groupBySpecialty partitions scores by specialty in order of first appearance.
func groupBySpecialty(records []HistoricalRecord) ([]string, map[string][]float64) {
	order := make([]string, 0)
	by := make(map[string][]float64)
	for _, r := range records {
		if _, seen := by[r.Specialty]; !seen {
			order = append(order, r.Specialty)
			by[r.Specialty] = nil
		}
		by[r.Specialty] = append(by[r.Specialty], r.PassingScore)
	}
	return order, by
}

func (e *Engine) estimateOne(userScore float64, specialty string, raw []float64) Estimate {
	scores := validScores(raw)
	n := len(scores)
	est := Estimate{Specialty: specialty, Status: StatusInsufficientData, DataPoints: n}
	if n < 2 {
		return est
	}

	m := mean(scores)
	sd := sampleStdDev(scores, m)
	if !isFinite(sd) || !isFinite(m) {
		est.Status = StatusInsufficientDataAfterCleaning
		return est
	}

	var p float64
	// sd == 0 stays degenerate even with a zero threshold.
	if sd == 0 || sd < e.policy.ZeroVarianceThreshold {
		p = e.policy.ImpossibleProbability
		if userScore >= m {
			p = e.policy.CertainProbability
		}
	} else {
		p = normalCDF(userScore, m, sd) * 100
	}

	est.Status = StatusOK
	est.Probability = ptr(round2(p))
	est.Mean = ptr(round2(m))
	est.StdDev = ptr(round2(sd))
	return est
}
