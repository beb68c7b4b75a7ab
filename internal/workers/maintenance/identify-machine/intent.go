package identifymachine

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"maintenance-copilot/internal/common/validation"
	"maintenance-copilot/internal/llm"
	"maintenance-copilot/internal/models"
)

// ParsedIntent is the model's structured reading of the user input.
type ParsedIntent struct {
	IsMultiMachineQuery  bool          `json:"isMultiMachineQuery"`
	IsDocumentationQuery bool          `json:"isDocumentationQuery"`
	Intent               string        `json:"intent"`
	CompoundIntents      []string      `json:"compoundIntents"`
	TimeWindow           string        `json:"timeWindow"`
	RiskThreshold        interface{}   `json:"riskThreshold"`
	Machine              MachineFields `json:"machine"`
	Confidence           float64       `json:"confidence"`
}

type MachineFields struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	Type      string `json:"type"`
}

func (m MachineFields) hasIdentifier() bool {
	return m.ProductID != "" || m.Name != "" || m.Location != ""
}

// riskThresholdString renders the threshold, which models emit either as a number or a level name.
func (p ParsedIntent) riskThresholdString() string {
	switch v := p.RiskThreshold.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

var docKeywords = []string{
	"prosedur", "sop", "cara", "langkah", "panduan", "manual", "petunjuk",
	"bagaimana", "apa itu", "jelaskan", "procedure", "how to", "what is",
	"guide", "steps", "preventive maintenance", "perawatan preventif",
}

var (
	productIDPattern   = regexp.MustCompile(`(?i)\b[LMH]\d{5}\b`)
	locationPattern    = regexp.MustCompile(`(?i)lantai|floor|area|ruang|zone|lokasi`)
	machineNamePattern = regexp.MustCompile(`(?i)mesin\s+[A-Z0-9-]+\b`)
	tipePattern        = regexp.MustCompile(`(?i)tipe?\s*([LMH])\b`)
	typePattern        = regexp.MustCompile(`(?i)type\s*([LMH])\b`)
)

// fastDocumentationCheck classifies procedure questions that name no specific machine
// without a model call. The returned filter carries an optional machine type.
func fastDocumentationCheck(input string) (*models.DocumentationFilters, bool) {
	lower := strings.ToLower(input)

	matched := false
	for _, kw := range docKeywords {
		if strings.Contains(lower, kw) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, false
	}

	if productIDPattern.MatchString(input) || locationPattern.MatchString(lower) || machineNamePattern.MatchString(input) {
		return nil, false
	}

	filters := &models.DocumentationFilters{Intent: "documentation"}
	if m := tipePattern.FindStringSubmatch(input); m != nil {
		filters.MachineType = strings.ToUpper(m[1])
	} else if m := typePattern.FindStringSubmatch(input); m != nil {
		filters.MachineType = strings.ToUpper(m[1])
	}
	return filters, true
}

var machineTypeAliases = map[string]string{
	"l": "L", "low": "L",
	"m": "M", "mid": "M", "medium": "M",
	"h": "H", "high": "H",
}

// normalizeMachineType maps L/M/H and low/medium/high spellings onto L, M or H. Unknown values become "".
func normalizeMachineType(t string) string {
	return machineTypeAliases[strings.ToLower(strings.TrimSpace(t))]
}

const intentPromptTemplate = `
Extract structured JSON from the user input.
Strict JSON only. No Markdown.

Schema:
{
  "isMultiMachineQuery": boolean,
  "isDocumentationQuery": boolean,
  "intent": "risk" | "prediction" | "anomaly" | "overheating" | "documentation" | "generic" | null,
  "compoundIntents": string[],
  "timeWindow": string | null,
  "riskThreshold": string | null,
  "machine": {
    "productId": string | null,
    "name": string | null,
    "location": string | null,
    "type": string | null
  },
  "confidence": number
}

Notes:
- Set "isDocumentationQuery" to true if user is asking about procedures, SOPs, manuals, maintenance steps, or general knowledge (not analyzing specific machine)
- For documentation queries, machine.type can be specified for filtering (e.g., "type H machines") but productId/name/location should be null

User input:
%q
`

func buildIntentPrompt(input string) string {
	return fmt.Sprintf(intentPromptTemplate, input)
}

// decodeIntent parses and schema-checks a model reply.
func decodeIntent(reply string) (*ParsedIntent, error) {
	var doc map[string]interface{}
	if err := llm.DecodeJSONObject(reply, &doc); err != nil {
		return nil, err
	}

	if res := validation.IntentSchema.Validate(doc); !res.Valid {
		return nil, res.Err()
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var parsed ParsedIntent
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	parsed.Confidence = normalizeConfidence(parsed.Confidence)
	return &parsed, nil
}

// normalizeConfidence maps percentages onto [0,1]. Confidence is informational only.
func normalizeConfidence(c float64) float64 {
	if c > 1 {
		c /= 100
	}
	return math.Max(0, math.Min(c, 1))
}
