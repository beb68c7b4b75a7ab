package generateanswer

import (
	"strings"

	"maintenance-copilot/internal/models"
)

func firstLines(lines []string, limit int, match func(string) bool) []string {
	out := []string{}
	for _, l := range lines {
		if len(out) == limit {
			break
		}
		if !match(l) {
			continue
		}
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseStructuredResponse scans the reply heuristically and joins it with state data.
func parseStructuredResponse(text string, state models.WorkflowState, limit int) *models.StructuredResponse {
	lines := strings.Split(text, "\n")

	summary := ""
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			summary = strings.TrimSpace(l)
			break
		}
	}
	if summary == "" {
		summary = truncate(text, 200)
	}

	alerts := firstLines(lines, limit, func(l string) bool {
		u := strings.ToUpper(l)
		return strings.Contains(u, "ALERT") || strings.Contains(u, "CRITICAL") || strings.Contains(u, "WARNING")
	})
	recommendations := firstLines(lines, limit, func(l string) bool {
		u := strings.ToUpper(l)
		return strings.Contains(u, "RECOMMEND") || strings.Contains(u, "ACTION") || strings.Contains(l, "Schedule")
	})

	overall := models.RiskModerate
	if state.Analysis != nil && state.Analysis.RiskLevel != "" {
		overall = state.Analysis.RiskLevel
	}

	return &models.StructuredResponse{
		Summary:         summary,
		MachineAnalysis: machineAnalysis(state),
		OverallRisk:     overall,
		CriticalAlerts:  alerts,
		Recommendations: recommendations,
	}
}

func machineAnalysis(state models.WorkflowState) []models.MachineAnalysis {
	if a := state.Analysis; a != nil {
		mc := models.MachineContext{}
		if state.MachineContext != nil {
			mc = *state.MachineContext
		}

		failurePredicted := false
		for _, alert := range a.Alerts {
			if strings.Contains(strings.ToUpper(alert), "FAILURE") {
				failurePredicted = true
				break
			}
		}

		entry := models.MachineAnalysis{
			MachineID:        orUnknown(mc.MachineID),
			ProductID:        orUnknown(mc.ProductID),
			Type:             orUnknown(mc.Type),
			Status:           orUnknown(mc.Status),
			Location:         mc.Location,
			RiskScore:        a.RiskScore,
			RiskLevel:        a.RiskLevel,
			FailurePredicted: failurePredicted,
			Recommendations:  a.Recommendations,
		}
		if latest, ok := state.LatestReading(); ok {
			entry.LatestMetrics = models.MetricsFromReading(latest)
		}
		return []models.MachineAnalysis{entry}
	}

	out := make([]models.MachineAnalysis, 0, len(state.MachineList))
	for _, m := range state.MachineList {
		entry := models.MachineAnalysis{
			MachineID:        m.ID,
			ProductID:        m.ProductID,
			Type:             orUnknown(m.Type),
			Status:           orUnknown(m.Status),
			Location:         m.Location,
			RiskScore:        m.RiskScore,
			RiskLevel:        m.RiskLevel,
			FailurePredicted: m.FailurePredicted,
			Recommendations:  []string{},
		}
		if m.LatestReading != nil {
			entry.LatestMetrics = models.MetricsFromReading(*m.LatestReading)
		}
		out = append(out, entry)
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
