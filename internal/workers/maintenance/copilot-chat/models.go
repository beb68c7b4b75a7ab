package copilotchat

import "maintenance-copilot/internal/models"

const noResponse = "No response generated"

type Input struct {
	UserInput           string           `json:"user_input"`
	MachineID           string           `json:"machine_id"`
	ConversationHistory []models.Message `json:"conversation_history"`
}

// Output is the job result. The alert fields feed the notify-maintenance-alert task.
type Output struct {
	RequestID          string                    `json:"requestId"`
	Response           string                    `json:"response"`
	StructuredResponse models.StructuredResponse `json:"structuredResponse"`
	QueryType          models.QueryType          `json:"queryType,omitempty"`
	NeedsClarification bool                      `json:"needsClarification"`
	RiskLevel          models.RiskLevel          `json:"riskLevel,omitempty"`
	RiskScore          float64                   `json:"riskScore"`
	FailureType        string                    `json:"failureType,omitempty"`
	EstimatedDays      int                       `json:"estimatedDays,omitempty"`
	Alerts             []string                  `json:"alerts"`
	Recommendation     string                    `json:"recommendation,omitempty"`
	AlertRequired      bool                      `json:"alertRequired"`
	Machine            *models.MachineRef        `json:"machine,omitempty"`
}
