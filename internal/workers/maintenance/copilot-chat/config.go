package copilotchat

import (
	"time"

	"maintenance-copilot/internal/models"
)

type Config struct {
	// AlertRiskLevel is the lowest risk level that sets alertRequired.
	AlertRiskLevel models.RiskLevel
	Timeout        time.Duration
}

func LoadConfig() *Config {
	return &Config{
		AlertRiskLevel: models.RiskHigh,
		Timeout:        2 * time.Minute,
	}
}
