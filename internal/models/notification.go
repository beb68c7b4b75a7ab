// internal/models/notification.go
package models

// MaintenanceAlert is the payload fanned out when a copilot answer reports elevated risk.
type MaintenanceAlert struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"requestId,omitempty"`
	MachineID      string    `json:"machineId"`
	ProductID      string    `json:"productId"`
	MachineName    string    `json:"machineName,omitempty"`
	Location       string    `json:"location,omitempty"`
	RiskLevel      RiskLevel `json:"riskLevel"`
	RiskScore      float64   `json:"riskScore"`
	FailureType    string    `json:"failureType,omitempty"`
	EstimatedDays  int       `json:"estimatedDays,omitempty"`
	Alerts         []string  `json:"alerts,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
}

// Notification records the outcome of one delivery channel.
type Notification struct {
	ID        string `json:"id"`
	AlertID   string `json:"alertId"`
	Channel   string `json:"channel"` // "sns", "email"
	Status    string `json:"status"`  // "sent", "failed", "disabled"
	MessageID string `json:"messageId,omitempty"`
	SentAt    string `json:"sentAt,omitempty"`
}

// MachineRef identifies the machine an alert or chat result is about.
type MachineRef struct {
	MachineID string `json:"machineId,omitempty"`
	ProductID string `json:"productId"`
	Name      string `json:"name,omitempty"`
	Location  string `json:"location,omitempty"`
}
