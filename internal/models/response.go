// internal/models/response.go
package models

import "time"

type StructuredResponse struct {
	Summary         string            `json:"summary"`
	MachineAnalysis []MachineAnalysis `json:"machineAnalysis"`
	OverallRisk     RiskLevel         `json:"overallRisk"`
	CriticalAlerts  []string          `json:"criticalAlerts"`
	Recommendations []string          `json:"recommendations"`
}

type MachineAnalysis struct {
	MachineID        string         `json:"machineId"`
	ProductID        string         `json:"productId"`
	Type             string         `json:"type"`
	Status           string         `json:"status"`
	Location         string         `json:"location"`
	RiskScore        float64        `json:"riskScore"`
	RiskLevel        RiskLevel      `json:"riskLevel"`
	FailurePredicted bool           `json:"failurePredicted"`
	Recommendations  []string       `json:"recommendations"`
	LatestMetrics    *LatestMetrics `json:"latestMetrics,omitempty"`
}

type LatestMetrics struct {
	AirTemp         float64   `json:"airTemp"`
	ProcessTemp     float64   `json:"processTemp"`
	RotationalSpeed float64   `json:"rotationalSpeed"`
	Torque          float64   `json:"torque"`
	ToolWear        float64   `json:"toolWear"`
	Timestamp       time.Time `json:"timestamp"`
}

func MetricsFromReading(r SensorReading) *LatestMetrics {
	return &LatestMetrics{
		AirTemp:         r.AirTemp,
		ProcessTemp:     r.ProcessTemp,
		RotationalSpeed: r.RotationalSpeed,
		Torque:          r.Torque,
		ToolWear:        r.ToolWear,
		Timestamp:       r.Timestamp,
	}
}
