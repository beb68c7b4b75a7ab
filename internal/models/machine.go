// internal/models/machine.go
package models

import "time"

type Machine struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Type      string `json:"type"` // L, M or H
	Status    string `json:"status"`
	Location  string `json:"location"`
}

// Context returns the identity snapshot stored in workflow state.
func (m Machine) Context() MachineContext {
	return MachineContext{
		MachineID: m.ID,
		ProductID: m.ProductID,
		Name:      m.Name,
		Type:      m.Type,
		Status:    m.Status,
		Location:  m.Location,
	}
}

type MachineContext struct {
	MachineID string `json:"machineId"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Location  string `json:"location"`
}

// MachineFilter narrows a machine directory search. Empty fields are ignored.
type MachineFilter struct {
	ProductID string `json:"productId,omitempty"`
	Name      string `json:"name,omitempty"`
	Location  string `json:"location,omitempty"`
	Type      string `json:"type,omitempty"`
	Limit     int    `json:"-"`
}

func (f MachineFilter) IsEmpty() bool {
	return f.ProductID == "" && f.Name == "" && f.Location == "" && f.Type == ""
}

// RankedMachine is one row of a multi-machine analysis.
type RankedMachine struct {
	Machine
	RiskScore            float64        `json:"riskScore"`
	RiskLevel            RiskLevel      `json:"riskLevel"`
	FailurePredicted     bool           `json:"failurePredicted"`
	FailureType          string         `json:"failureType,omitempty"`
	PredictedFailureTime *time.Time     `json:"predictedFailureTime,omitempty"`
	CriticalAlerts       []string       `json:"criticalAlerts,omitempty"`
	LatestReading        *SensorReading `json:"latestReading,omitempty"`
}
