// internal/workers/maintenance/analyze-condition/handler.go
package analyzecondition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
)

const (
	TaskType = "analyze-condition"
	NodeName = "analyze_condition"
)

const msgAnalysisFailed = "Failed to analyze machine condition"

var levelRecommendations = map[models.RiskLevel][]string{
	models.RiskHigh: {
		"Schedule immediate maintenance inspection",
		"Monitor machine continuously until maintenance is completed",
	},
	models.RiskModerate: {
		"Schedule preventative maintenance within 48 hours",
		"Increase monitoring frequency",
	},
	models.RiskLow: {
		"Continue normal operations",
		"Maintain regular monitoring schedule",
	},
}

type Handler struct {
	config *Config
	jitter Jitter
	now    func() time.Time
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		jitter: NewJitter(config.JitterSeed),
		now:    time.Now,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Name() string { return NodeName }

// Execute turns telemetry and the stored prediction into a risk assessment.
func (h *Handler) Execute(ctx context.Context, state models.WorkflowState) (update models.StateUpdate, err error) {
	if state.MachineID == "" {
		h.logger.Warn("no machine_id in state, skipping analysis", nil)
		return models.Continue(), nil
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("condition analysis panicked", map[string]interface{}{
				"machineId": state.MachineID,
				"panic":     fmt.Sprint(r),
			})
			update, err = models.SoftError(msgAnalysisFailed), nil
		}
	}()

	analysis := h.analyze(state)

	h.logger.Info("analysis complete", map[string]interface{}{
		"machineId": state.MachineID,
		"riskLevel": analysis.RiskLevel,
		"anomalies": len(analysis.Anomalies),
		"readings":  len(state.SensorData),
	})

	update = models.StateUpdate{
		Analysis:        analysis,
		AnomalyDetected: models.Ptr(len(analysis.Anomalies) > 0),
		ShouldContinue:  models.Ptr(true),
	}
	if state.PredictionData != nil {
		update.FailureType = models.Ptr(state.PredictionData.FailureType)
	}
	return update, nil
}

func (h *Handler) analyze(state models.WorkflowState) *models.AnalysisResult {
	var (
		alerts          []string
		anomalies       []string
		recommendations []string
		riskScore       float64
		ttf             *models.TimeToFailure
	)

	trends := AnalyzeSensorTrends(state.SensorData)

	if p := state.PredictionData; p != nil {
		riskScore = p.RiskScore

		if p.FailurePredicted || riskScore >= 0.5 {
			ttf = timeToFailure(p, trends, h.now(), h.jitter)
		}

		if p.FailurePredicted {
			failureType := p.FailureType
			if failureType == "" {
				failureType = "Unknown type"
			}
			if ttf != nil {
				alerts = append(alerts, fmt.Sprintf("⚠️ FAILURE PREDICTED: %s dalam %d hari", failureType, ttf.EstimatedDays))
			} else {
				alerts = append(alerts, fmt.Sprintf("⚠️ FAILURE PREDICTED: %s", failureType))
			}
			recommendations = append(recommendations, fmt.Sprintf("URGENT: Investigate predicted %s failure", p.FailureType))
		}
	}

	if trends.Readings > 0 {
		if trends.TemperatureAnomaly {
			anomalies = append(anomalies, "❌ Temperature anomaly detected")
			alerts = append(alerts, fmt.Sprintf("⚠️ Process temperature: %.1fK (abnormal)", trends.AvgProcessTemp))
		}
		if trends.VibrationAnomaly {
			anomalies = append(anomalies, "❌ Vibration/torque anomaly detected")
			alerts = append(alerts, fmt.Sprintf("⚠️ Torque: %.1fNm (high)", trends.AvgTorque))
		}
		if trends.ToolWearHigh {
			anomalies = append(anomalies, "❌ Tool wear approaching limit")
			alerts = append(alerts, fmt.Sprintf("⚠️ Tool wear: %.0fmin (high)", trends.AvgToolWear))
			recommendations = append(recommendations, "Schedule tool replacement soon")
		}
	}

	level := RiskLevelFor(riskScore, len(alerts))
	recommendations = append(recommendations, levelRecommendations[level]...)

	productID := "Unknown"
	if state.MachineContext != nil && state.MachineContext.ProductID != "" {
		productID = state.MachineContext.ProductID
	}

	return &models.AnalysisResult{
		RiskScore:       riskScore,
		RiskLevel:       level,
		Summary:         summarize(productID, level, alerts, ttf),
		Alerts:          nonNil(alerts),
		Anomalies:       nonNil(anomalies),
		Recommendations: recommendations,
		TimeToFailure:   ttf,
	}
}

// RiskLevelFor combines the prediction score with the number of raised alerts.
func RiskLevelFor(score float64, alerts int) models.RiskLevel {
	switch {
	case score >= 0.7 || alerts >= 2:
		return models.RiskHigh
	case score >= 0.4 || alerts == 1:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

func summarize(productID string, level models.RiskLevel, alerts []string, ttf *models.TimeToFailure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Machine %s Status: **%s**", productID, level)

	if ttf != nil {
		failureType := ""
		if ttf.FailureType != "" {
			failureType = " (" + ttf.FailureType + ")"
		}
		fmt.Fprintf(&b, "\n⏰ **Estimasi waktu hingga failure%s: %d hari**", failureType, ttf.EstimatedDays)
	}

	if len(alerts) > 0 {
		b.WriteString("\n\n**Alerts:**")
		for _, a := range alerts {
			b.WriteString("\n• " + a)
		}
	}
	return b.String()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
