package service

import (
	"time"

	"github.com/okian/admitcalc/internal/domain/admission"
)

// CalculateRequest is the input of a calculation. A nil TopN selects the
// configured default; an empty Sector means every sector.
type CalculateRequest struct {
	Score  float64 `json:"score"`
	Group  string  `json:"group" validate:"required,max=128"`
	Sector string  `json:"sector" validate:"max=128"`
	TopN   *int    `json:"topN,omitempty"`
}

// Metadata echoes the effective request parameters.
type Metadata struct {
	Score            float64 `json:"score" yaml:"score"`
	Group            string  `json:"group" yaml:"group"`
	Sector           string  `json:"sector" yaml:"sector"`
	TopN             int     `json:"topN" yaml:"topN"`
	TotalSpecialties int     `json:"totalSpecialties" yaml:"totalSpecialties"`
}

// CalculateResult is the ranked, truncated estimate list.
type CalculateResult struct {
	Results  []admission.Estimate `json:"results" yaml:"results"`
	Metadata Metadata             `json:"metadata" yaml:"metadata"`
}

// OptionsResult lists the valid request choices.
type OptionsResult struct {
	Groups      []string  `json:"groups" yaml:"groups"`
	Sectors     []string  `json:"sectors" yaml:"sectors"`
	AllSectors  string    `json:"allSectors" yaml:"allSectors"`
	ScoreMin    float64   `json:"scoreMin" yaml:"scoreMin"`
	ScoreMax    float64   `json:"scoreMax" yaml:"scoreMax"`
	TopNMin     int       `json:"topNMin" yaml:"topNMin"`
	TopNMax     int       `json:"topNMax" yaml:"topNMax"`
	TopNDefault int       `json:"topNDefault" yaml:"topNDefault"`
	LoadedAt    time.Time `json:"loadedAt" yaml:"loadedAt"`
}
