// internal/models/telemetry.go
package models

import "time"

type SensorReading struct {
	UDI             int64     `json:"udi"`
	MachineID       string    `json:"machineId"`
	ProductID       string    `json:"productId,omitempty"`
	AirTemp         float64   `json:"airTemp"`         // K
	ProcessTemp     float64   `json:"processTemp"`     // K
	RotationalSpeed float64   `json:"rotationalSpeed"` // rpm
	Torque          float64   `json:"torque"`          // Nm
	ToolWear        float64   `json:"toolWear"`        // min
	Timestamp       time.Time `json:"timestamp"`
}

// Prediction is the latest stored model output for a machine.
type Prediction struct {
	ID                   string     `json:"id"`
	MachineID            string     `json:"machineId"`
	RiskScore            float64    `json:"riskScore"`
	FailurePredicted     bool       `json:"failurePredicted"`
	FailureType          string     `json:"failureType,omitempty"`
	Confidence           *float64   `json:"confidence,omitempty"`
	PredictedFailureTime *time.Time `json:"predictedFailureTime,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}
