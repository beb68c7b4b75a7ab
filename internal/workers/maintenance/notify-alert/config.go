package notifyalert

import (
	"time"

	"maintenance-copilot/internal/models"
)

type Config struct {
	SNSEnabled   bool
	SESEnabled   bool
	Recipients   []string
	MinRiskLevel models.RiskLevel
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		SNSEnabled:   true,
		SESEnabled:   true,
		MinRiskLevel: models.RiskHigh,
		Timeout:      15 * time.Second,
	}
}
