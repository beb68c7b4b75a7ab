package retrieveknowledge

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"maintenance-copilot/internal/models"
)

var failureQueries = map[string]string{
	"Tool Wear Failure":        "prosedur perbaikan tool wear failure TWF",
	"Heat Dissipation Failure": "prosedur perbaikan heat dissipation failure HDF overheat",
	"Power Failure":            "prosedur perbaikan power failure PWF",
	"Overstrain Failure":       "prosedur perbaikan overstrain failure OSF",
	"Random Failures":          "prosedur perbaikan random failures RNF",
}

var repairKeywords = []string{
	"perbaikan", "repair", "fix", "maintenance", "perawatan", "troubleshoot",
	"solve", "mengatasi", "cara", "langkah", "prosedur", "sop",
}

const anomalyQuery = "troubleshooting anomali mesin prosedur pemeriksaan"

// buildSearchQuery picks the retrieval query by priority. An empty result means no retrieval.
func buildSearchQuery(state models.WorkflowState) string {
	if state.QueryType == models.QueryTypeDocumentation {
		query := state.UserInput
		if f := state.DocumentationFilters; f != nil && f.MachineType != "" {
			query += " tipe " + f.MachineType
		}
		return query
	}

	if q, ok := failureQueries[state.FailureType]; ok {
		return q
	}

	lower := strings.ToLower(state.UserInput)
	for _, kw := range repairKeywords {
		if strings.Contains(lower, kw) {
			return state.UserInput
		}
	}

	if state.AnomalyDetected {
		return anomalyQuery
	}
	return ""
}

var stepPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)STEP \d+:([^\n]+)`),
	regexp.MustCompile(`\d+\.\s+([^\n]+)`),
	regexp.MustCompile(`\d+\)\s+([^\n]+)`),
	regexp.MustCompile(`[✓✗□]\s+([^\n]+)`),
}

// extractRepairSteps collects step-like lines from the chunks in pattern order,
// de-duplicated and capped at limit.
func extractRepairSteps(chunks []models.KnowledgeChunk, limit int) []string {
	seen := make(map[string]struct{})
	var steps []string

	for _, c := range chunks {
		for _, p := range stepPatterns {
			for _, m := range p.FindAllStringSubmatch(c.Content, -1) {
				step := strings.TrimSpace(m[1])
				n := utf8.RuneCountInString(step)
				if n <= 10 || n >= 200 {
					continue
				}
				if _, dup := seen[step]; dup {
					continue
				}
				seen[step] = struct{}{}
				steps = append(steps, step)
			}
		}
	}

	if len(steps) > limit {
		steps = steps[:limit]
	}
	return steps
}
