// internal/models/query_types.go
package models

// QueryType is the workflow selected by the intent resolver.
type QueryType string

const (
	QueryTypeSingleMachine QueryType = "single_machine"
	QueryTypeMultiMachine  QueryType = "multi_machine"
	QueryTypeDocumentation QueryType = "documentation"
)

func (q QueryType) Valid() bool {
	switch q {
	case QueryTypeSingleMachine, QueryTypeMultiMachine, QueryTypeDocumentation:
		return true
	}
	return false
}

// RiskLevel is the coarse risk band produced by condition analysis.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
)

// Rank orders risk levels for threshold comparisons; unknown levels rank below LOW.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	}
	return 0
}

// Confidence is the qualitative confidence attached to a time-to-failure estimate.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)
