package notifyalert

import "maintenance-copilot/internal/models"

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
	StatusSkipped  = "skipped"

	ChannelSNS   = "sns"
	ChannelEmail = "email"
)

// Input mirrors the alert fields a copilot-chat job completes with.
type Input struct {
	RequestID      string            `json:"requestId"`
	RiskLevel      models.RiskLevel  `json:"riskLevel"`
	RiskScore      float64           `json:"riskScore"`
	FailureType    string            `json:"failureType"`
	EstimatedDays  int               `json:"estimatedDays"`
	Alerts         []string          `json:"alerts"`
	Recommendation string            `json:"recommendation"`
	Machine        models.MachineRef `json:"machine"`
}

type Output struct {
	AlertID       string                `json:"alertId,omitempty"`
	Status        string                `json:"alertStatus"`
	Notifications []models.Notification `json:"notifications"`
}
