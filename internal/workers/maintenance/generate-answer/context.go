package generateanswer

import (
	"fmt"
	"strings"
	"time"

	"maintenance-copilot/internal/models"
)

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// formatIndonesianDate renders t as "18 Oktober 2026".
func formatIndonesianDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

func bulletList(header string, items []string) string {
	var b strings.Builder
	b.WriteString(header)
	for _, item := range items {
		b.WriteString("\n- " + item)
	}
	return b.String()
}

// buildAnalysisContext assembles the grounding block sent with the user query.
func buildAnalysisContext(state models.WorkflowState) string {
	var parts []string
	add := func(format string, args ...interface{}) {
		parts = append(parts, fmt.Sprintf(format, args...))
	}

	switch {
	case state.QueryType == models.QueryTypeDocumentation:
		machineType := ""
		if state.DocumentationFilters != nil {
			machineType = state.DocumentationFilters.MachineType
		}

		add("=== DOCUMENTATION QUERY ===")
		add("User is asking for general information/procedures, not analyzing a specific machine.")
		if machineType != "" {
			add("Machine Type Filter: Type %s machines", machineType)
		}

		if len(state.KnowledgeContext) == 0 {
			add("\nNote: No specific SOP documents were found in the database.")
			add("Please provide general best practices and recommendations based on your knowledge of:")
			add("- Preventive maintenance procedures for industrial machines")
			add("- Common maintenance schedules and checklists")
			add("- Safety protocols and inspection steps")
			if machineType != "" {
				add("- Specific considerations for Type %s quality variant machines", machineType)
			}
		}

	case len(state.MachineList) > 0:
		add("=== MULTI-MACHINE ANALYSIS ===")
		add("Found %d machines in database:", len(state.MachineList))
		for _, m := range state.MachineList {
			location := m.Location
			if location == "" {
				location = "Unknown"
			}
			add("\nMachine: %s (ID: %s)", m.ProductID, m.ID)
			add("- Type: %s", m.Type)
			add("- Location: %s", location)
			add("- Risk Level: %s", m.RiskLevel)
			add("- Risk Score: %.2f", m.RiskScore)
			if len(m.CriticalAlerts) > 0 {
				add("- Critical Alerts: %s", strings.Join(m.CriticalAlerts, ", "))
			}
		}
		add("\n=== END MACHINE DATA ===")
		add("IMPORTANT: Use ONLY the machines listed above. Do NOT create fictional machines.")

	case state.MachineContext != nil:
		mc := state.MachineContext
		add("Machine: %s", mc.ProductID)
		add("Type: %s", mc.Type)
		add("Status: %s", mc.Status)
		if len(state.SensorData) == 0 {
			add("\nWARNING: No sensor data available for this machine in the database.")
		}
		if state.PredictionData == nil {
			add("\nWARNING: No prediction data available for this machine in the database.")
		}
	}

	if a := state.Analysis; a != nil {
		add("Risk Level: %s", a.RiskLevel)
		add("Risk Score: %.3f", a.RiskScore)

		if ttf := a.TimeToFailure; ttf != nil {
			add("\n⏰ TIME TO FAILURE PREDICTION:")
			add("- Estimated Days: %d hari", ttf.EstimatedDays)
			add("- Estimated Date: %s", formatIndonesianDate(ttf.EstimatedDate))
			add("- Confidence: %s", ttf.Confidence)
			if ttf.FailureType != "" {
				add("- Failure Type: %s", ttf.FailureType)
			}
			add("\n⚠️ IMPORTANT: Sebutkan estimasi waktu ini dalam response Anda!")
		}

		if len(a.Alerts) > 0 {
			parts = append(parts, bulletList("Alerts:", a.Alerts))
		}
		if len(a.Anomalies) > 0 {
			parts = append(parts, bulletList("Detected Anomalies:", a.Anomalies))
		}
		if len(a.Recommendations) > 0 {
			parts = append(parts, bulletList("Preliminary Recommendations:", a.Recommendations))
		}
	}

	if latest, ok := state.LatestReading(); ok {
		add("Latest Sensor Readings:\n- Air Temp: %.1fK\n- Process Temp: %.1fK\n- Rotational Speed: %.0fRPM\n- Torque: %.1fNm\n- Tool Wear: %.0fmin",
			latest.AirTemp, latest.ProcessTemp, latest.RotationalSpeed, latest.Torque, latest.ToolWear)
	}

	if p := state.PredictionData; p != nil {
		predicted := "NO"
		if p.FailurePredicted {
			predicted = "YES"
		}
		failureType := p.FailureType
		if failureType == "" {
			failureType = "None"
		}
		confidence := "N/A"
		if p.Confidence != nil && *p.Confidence != 0 {
			confidence = fmt.Sprintf("%.1f%%", *p.Confidence*100)
		}
		add("Prediction Data:\n- Failure Predicted: %s\n- Failure Type: %s\n- Confidence: %s", predicted, failureType, confidence)
	}

	if n := len(state.KnowledgeContext); n > 0 {
		add("\n=== RELEVANT SOP/MANUAL CONTENT ===")
		add("Found %d relevant document sections:", n)
		for i, doc := range state.KnowledgeContext {
			pageRef := ""
			if doc.PageNumber != nil && *doc.PageNumber != 0 {
				pageRef = fmt.Sprintf(" (Page %d)", *doc.PageNumber)
			}
			add("\n[Document %d] %s%s", i+1, doc.Source, pageRef)
			add("Relevance: %.1f%%", doc.Similarity*100)
			add("Content:\n%s\n", doc.Content)
		}
		add("=== END SOP/MANUAL CONTENT ===")
		add("IMPORTANT: Base your repair recommendations on the SOP content above. Cite sources with page numbers when providing repair steps.")
	}

	if len(state.RepairSteps) > 0 {
		add("\nExtracted Repair Steps from SOP:")
		for i, step := range state.RepairSteps {
			add("%d. %s", i+1, step)
		}
	}

	return strings.Join(parts, "\n\n")
}
