package admission

// Zero-variance policy defaults. These are tunable policy values, not
// statistical constants.
const (
	DefaultZeroVarianceThreshold = 0.01
	DefaultCertainProbability    = 99.99
	DefaultImpossibleProbability = 0.01
)

// Policy controls how a specialty whose cutoffs barely vary is scored.
type Policy struct {
	// ZeroVarianceThreshold is the std-dev below which the history is treated as a single cutoff.
	ZeroVarianceThreshold float64
	// CertainProbability is reported when the score meets the fixed cutoff.
	CertainProbability float64
	// ImpossibleProbability is reported when the score is below the fixed cutoff.
	ImpossibleProbability float64
}

// DefaultPolicy returns the policy used when no option overrides it.
func DefaultPolicy() Policy {
	return Policy{
		ZeroVarianceThreshold: DefaultZeroVarianceThreshold,
		CertainProbability:    DefaultCertainProbability,
		ImpossibleProbability: DefaultImpossibleProbability,
	}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithZeroVarianceThreshold overrides the std-dev below which variance is treated as zero.
func WithZeroVarianceThreshold(threshold float64) Option {
	return func(e *Engine) {
		if threshold >= 0 {
			e.policy.ZeroVarianceThreshold = threshold
		}
	}
}

// WithFixedCutoffProbabilities overrides the probabilities reported for zero-variance history.
func WithFixedCutoffProbabilities(certain, impossible float64) Option {
	return func(e *Engine) {
		if certain >= 0 && certain <= 100 && impossible >= 0 && impossible <= certain {
			e.policy.CertainProbability = certain
			e.policy.ImpossibleProbability = impossible
		}
	}
}

// WithPolicy replaces the whole policy when it is internally consistent.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		WithZeroVarianceThreshold(p.ZeroVarianceThreshold)(e)
		WithFixedCutoffProbabilities(p.CertainProbability, p.ImpossibleProbability)(e)
	}
}
