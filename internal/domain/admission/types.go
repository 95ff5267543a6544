// Package admission estimates per-specialty admission probabilities from
// historical passing scores and ranks the results.
package admission

import "fmt"

// HistoricalRecord is one historical cutoff for a specialty.
// An absent passing score is represented by NaN.
type HistoricalRecord struct {
	Specialty    string
	PassingScore float64
}

// Status reports how an estimate was derived.
type Status int

const (
	// StatusOK means a probability was computed.
	StatusOK Status = iota
	// StatusInsufficientData means fewer than two valid historical scores exist.
	StatusInsufficientData
	// StatusInsufficientDataAfterCleaning means the standard deviation was not a finite number.
	StatusInsufficientDataAfterCleaning
)

// String returns the external label of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusInsufficientData:
		return "Insufficient Data"
	case StatusInsufficientDataAfterCleaning:
		return "Insufficient Data (after dropna)"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler so the status serializes as its label.
func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusOK, StatusInsufficientData, StatusInsufficientDataAfterCleaning:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, int(s))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "OK":
		*s = StatusOK
	case "Insufficient Data":
		*s = StatusInsufficientData
	case "Insufficient Data (after dropna)":
		*s = StatusInsufficientDataAfterCleaning
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, string(b))
	}
	return nil
}

// Estimate is the admission outlook for one specialty.
// Nil numeric fields mean the value could not be computed.
type Estimate struct {
	Specialty   string   `json:"specialty" yaml:"specialty"`
	Probability *float64 `json:"probability" yaml:"probability"`
	Status      Status   `json:"status" yaml:"status"`
	Mean        *float64 `json:"mean" yaml:"mean"`
	StdDev      *float64 `json:"stdDev" yaml:"stdDev"`
	DataPoints  int      `json:"dataPoints" yaml:"dataPoints"`
}

// HasProbability reports whether a probability was computed.
func (e Estimate) HasProbability() bool { return e.Probability != nil }
