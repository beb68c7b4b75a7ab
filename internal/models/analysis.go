// internal/models/analysis.go
package models

import "time"

type AnalysisResult struct {
	RiskScore       float64        `json:"riskScore"`
	RiskLevel       RiskLevel      `json:"riskLevel"`
	Summary         string         `json:"summary"`
	Alerts          []string       `json:"alerts"`
	Anomalies       []string       `json:"anomalies"`
	Recommendations []string       `json:"recommendations"`
	TimeToFailure   *TimeToFailure `json:"timeToFailure,omitempty"`
}

type TimeToFailure struct {
	EstimatedDays int        `json:"estimatedDays"`
	EstimatedDate time.Time  `json:"estimatedDate"`
	Confidence    Confidence `json:"confidence"`
	FailureType   string     `json:"failureType,omitempty"`
}

// DocumentationFilters narrows knowledge retrieval for documentation queries.
type DocumentationFilters struct {
	MachineType string `json:"machineType,omitempty"`
	Intent      string `json:"intent,omitempty"`
}

// AnalysisCriteria drives the machine-set analyzer.
type AnalysisCriteria struct {
	CriteriaType    string        `json:"criteriaType"`
	TimeWindow      string        `json:"timeWindow,omitempty"`
	RiskThreshold   string        `json:"riskThreshold,omitempty"`
	CompoundIntents []string      `json:"compoundIntents,omitempty"`
	MachineFilters  MachineFilter `json:"machineFilters"`
}
