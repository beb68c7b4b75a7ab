// internal/workers/maintenance/generate-answer/handler_test.go
package generateanswer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
)

// ==========================
// Fakes & Fixtures
// ==========================

type fakeProvider struct {
	reply        string
	err          error
	calls        int
	systemPrompt string
	messages     []models.Message
}

func (f *fakeProvider) Name() string         { return "fake" }
func (f *fakeProvider) SystemPrompt() string { return "You are a maintenance assistant." }
func (f *fakeProvider) Complete(_ context.Context, systemPrompt string, messages []models.Message) (string, error) {
	f.calls++
	f.systemPrompt = systemPrompt
	f.messages = messages
	return f.reply, f.err
}

func page(n int) *int { return &n }

func singleMachineState() models.WorkflowState {
	state := models.NewWorkflowState("req-1", "bagaimana kondisi mesin L47182?", nil)
	state.QueryType = models.QueryTypeSingleMachine
	state.MachineID = "m-1"
	state.MachineContext = &models.MachineContext{MachineID: "m-1", ProductID: "L47182", Type: "L", Status: "active", Location: "Lantai 2"}
	state.SensorData = []models.SensorReading{
		{UDI: 1, AirTemp: 298.0, ProcessTemp: 314.0, RotationalSpeed: 1500, Torque: 41.2, ToolWear: 100},
		{UDI: 2, AirTemp: 298.4, ProcessTemp: 315.2, RotationalSpeed: 1498.6, Torque: 42.5, ToolWear: 108},
	}
	state.PredictionData = &models.Prediction{
		RiskScore:        0.82,
		FailurePredicted: true,
		FailureType:      "Heat Dissipation Failure",
		Confidence:       models.Ptr(0.85),
	}
	state.Analysis = &models.AnalysisResult{
		RiskScore: 0.82,
		RiskLevel: models.RiskHigh,
		Alerts: []string{
			"⚠️ FAILURE PREDICTED: Heat Dissipation Failure dalam 3 hari",
			"⚠️ Process temperature: 314.6K (abnormal)",
		},
		Anomalies:       []string{"❌ Temperature anomaly detected"},
		Recommendations: []string{"Schedule immediate maintenance inspection"},
		TimeToFailure: &models.TimeToFailure{
			EstimatedDays: 3,
			EstimatedDate: time.Date(2026, 10, 21, 9, 0, 0, 0, time.UTC),
			Confidence:    models.ConfidenceHigh,
			FailureType:   "Heat Dissipation Failure",
		},
	}
	state.KnowledgeContext = []models.KnowledgeChunk{
		{ID: "c1", Source: "SOP_HDF.pdf", PageNumber: page(4), Similarity: 0.873, Content: "STEP 1: Matikan mesin"},
	}
	state.RepairSteps = []string{"Matikan mesin dan kunci panel daya"}
	return state
}

func execute(t *testing.T, p *fakeProvider, state models.WorkflowState) models.WorkflowState {
	h := NewHandler(LoadConfig(), p, logger.NewTestLogger(t))
	update, err := h.Execute(context.Background(), state)
	require.NoError(t, err)
	return state.Apply(update)
}

// ==========================
// Context Building
// ==========================

func TestBuildAnalysisContext_SingleMachine(t *testing.T) {
	ctx := buildAnalysisContext(singleMachineState())

	for _, want := range []string{
		"Machine: L47182\n\nType: L\n\nStatus: active",
		"Risk Level: HIGH\n\nRisk Score: 0.820",
		"\n⏰ TIME TO FAILURE PREDICTION:\n\n- Estimated Days: 3 hari\n\n- Estimated Date: 21 Oktober 2026\n\n- Confidence: HIGH\n\n- Failure Type: Heat Dissipation Failure",
		"⚠️ IMPORTANT: Sebutkan estimasi waktu ini dalam response Anda!",
		"Alerts:\n- ⚠️ FAILURE PREDICTED: Heat Dissipation Failure dalam 3 hari\n- ⚠️ Process temperature: 314.6K (abnormal)",
		"Detected Anomalies:\n- ❌ Temperature anomaly detected",
		"Preliminary Recommendations:\n- Schedule immediate maintenance inspection",
		"Latest Sensor Readings:\n- Air Temp: 298.4K\n- Process Temp: 315.2K\n- Rotational Speed: 1499RPM\n- Torque: 42.5Nm\n- Tool Wear: 108min",
		"Prediction Data:\n- Failure Predicted: YES\n- Failure Type: Heat Dissipation Failure\n- Confidence: 85.0%",
		"=== RELEVANT SOP/MANUAL CONTENT ===\n\nFound 1 relevant document sections:",
		"[Document 1] SOP_HDF.pdf (Page 4)\n\nRelevance: 87.3%\n\nContent:\nSTEP 1: Matikan mesin\n",
		"IMPORTANT: Base your repair recommendations on the SOP content above.",
		"Extracted Repair Steps from SOP:\n\n1. Matikan mesin dan kunci panel daya",
	} {
		assert.Contains(t, ctx, want)
	}
	assert.NotContains(t, ctx, "WARNING: No sensor data")
	assert.NotContains(t, ctx, "MULTI-MACHINE")
}

func TestBuildAnalysisContext_MissingDataWarnings(t *testing.T) {
	state := models.WorkflowState{
		QueryType:      models.QueryTypeSingleMachine,
		MachineContext: &models.MachineContext{ProductID: "M14860", Type: "M", Status: "active"},
	}
	ctx := buildAnalysisContext(state)

	assert.Contains(t, ctx, "WARNING: No sensor data available for this machine in the database.")
	assert.Contains(t, ctx, "WARNING: No prediction data available for this machine in the database.")
	assert.NotContains(t, ctx, "Latest Sensor Readings")
}

func TestBuildAnalysisContext_Documentation(t *testing.T) {
	state := models.WorkflowState{
		QueryType:            models.QueryTypeDocumentation,
		DocumentationFilters: &models.DocumentationFilters{MachineType: "H", Intent: "documentation"},
	}
	ctx := buildAnalysisContext(state)

	assert.True(t, strings.HasPrefix(ctx, "=== DOCUMENTATION QUERY ==="))
	assert.Contains(t, ctx, "Machine Type Filter: Type H machines")
	assert.Contains(t, ctx, "Note: No specific SOP documents were found in the database.")
	assert.Contains(t, ctx, "- Specific considerations for Type H quality variant machines")

	state.KnowledgeContext = []models.KnowledgeChunk{{Source: "manual.pdf", Similarity: 0.7, Content: "Pelumasan harian"}}
	ctx = buildAnalysisContext(state)
	assert.NotContains(t, ctx, "No specific SOP documents")
	assert.Contains(t, ctx, "[Document 1] manual.pdf\n")
}

func TestBuildAnalysisContext_MultiMachine(t *testing.T) {
	state := models.WorkflowState{
		QueryType: models.QueryTypeMultiMachine,
		MachineList: []models.RankedMachine{
			{
				Machine:        models.Machine{ID: "m-2", ProductID: "M14860", Type: "M", Location: "Factory Floor 1"},
				RiskScore:      0.944,
				RiskLevel:      models.RiskHigh,
				CriticalAlerts: []string{"FAILURE PREDICTED: Power Failure", "High torque (55.0Nm)"},
			},
			{
				Machine:   models.Machine{ID: "m-4", ProductID: "L47190", Type: "L"},
				RiskScore: 0.1,
				RiskLevel: models.RiskLow,
			},
		},
	}
	ctx := buildAnalysisContext(state)

	assert.Contains(t, ctx, "Found 2 machines in database:")
	assert.Contains(t, ctx, "\nMachine: M14860 (ID: m-2)\n\n- Type: M\n\n- Location: Factory Floor 1\n\n- Risk Level: HIGH\n\n- Risk Score: 0.94")
	assert.Contains(t, ctx, "- Critical Alerts: FAILURE PREDICTED: Power Failure, High torque (55.0Nm)")
	assert.Contains(t, ctx, "- Location: Unknown")
	assert.Contains(t, ctx, "IMPORTANT: Use ONLY the machines listed above. Do NOT create fictional machines.")
}

func TestFormatIndonesianDate(t *testing.T) {
	assert.Equal(t, "18 Oktober 2026", formatIndonesianDate(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1 Januari 2027", formatIndonesianDate(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
}

// ==========================
// Execute
// ==========================

func TestExecute_ComposesAnswer(t *testing.T) {
	reply := `Mesin L47182 berada dalam kondisi berisiko TINGGI.

⚠️ CRITICAL: Heat Dissipation Failure diperkirakan dalam 3 hari.
Warning: suhu proses 315.2K di atas batas normal.

Recommended action: periksa kipas pendingin.
Schedule maintenance dalam 24 jam.`

	state := singleMachineState()
	state.ConversationHistory = []models.Message{
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "a1"},
		{Role: "system", Content: "ignored"},
		{Role: "user", Content: "q2"},
		{Role: "assistant", Content: "a2"},
	}

	p := &fakeProvider{reply: reply}
	next := execute(t, p, state)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "You are a maintenance assistant.", p.systemPrompt)
	require.Len(t, p.messages, 3)
	assert.Equal(t, "q2", p.messages[0].Content)
	assert.Equal(t, "a2", p.messages[1].Content)
	assert.True(t, strings.HasPrefix(p.messages[2].Content, "User Query: bagaimana kondisi mesin L47182?\n\nAnalysis Context:\nMachine: L47182"))
	assert.True(t, strings.HasSuffix(p.messages[2].Content, "\n\nPlease provide a comprehensive response based on this analysis."))

	assert.Equal(t, reply, next.Response)
	assert.False(t, next.ShouldContinue)
	assert.Empty(t, next.Error)

	sr := next.StructuredResponse
	require.NotNil(t, sr)
	assert.Equal(t, "Mesin L47182 berada dalam kondisi berisiko TINGGI.", sr.Summary)
	assert.Equal(t, models.RiskHigh, sr.OverallRisk)
	assert.Equal(t, []string{
		"⚠️ CRITICAL: Heat Dissipation Failure diperkirakan dalam 3 hari.",
		"Warning: suhu proses 315.2K di atas batas normal.",
	}, sr.CriticalAlerts)
	assert.Equal(t, []string{
		"Recommended action: periksa kipas pendingin.",
		"Schedule maintenance dalam 24 jam.",
	}, sr.Recommendations)

	require.Len(t, sr.MachineAnalysis, 1)
	ma := sr.MachineAnalysis[0]
	assert.Equal(t, "L47182", ma.ProductID)
	assert.True(t, ma.FailurePredicted)
	require.NotNil(t, ma.LatestMetrics)
	assert.Equal(t, 315.2, ma.LatestMetrics.ProcessTemp)
}

func TestExecute_DocumentationHistoryWindow(t *testing.T) {
	state := models.NewWorkflowState("r", "prosedur SOP tipe H", []models.Message{
		{Role: "user", Content: "q1"}, {Role: "assistant", Content: "a1"}, {Role: "user", Content: "q2"},
	})
	state.QueryType = models.QueryTypeDocumentation

	p := &fakeProvider{reply: "Berikut prosedur umum perawatan preventif."}
	next := execute(t, p, state)

	require.Len(t, p.messages, 3)
	assert.Equal(t, "a1", p.messages[0].Content)
	assert.Equal(t, "Berikut prosedur umum perawatan preventif.", next.Response)
	assert.Equal(t, models.RiskModerate, next.StructuredResponse.OverallRisk)
	assert.Empty(t, next.StructuredResponse.MachineAnalysis)
	assert.NotNil(t, next.StructuredResponse.CriticalAlerts)
}

func TestExecute_GuardWithoutMachine(t *testing.T) {
	p := &fakeProvider{reply: "should not be used"}
	state := models.WorkflowState{QueryType: models.QueryTypeSingleMachine, UserInput: "status", ShouldContinue: true}

	next := execute(t, p, state)

	assert.Zero(t, p.calls)
	assert.True(t, next.NeedsClarification)
	assert.Equal(t, msgNeedMachine, next.ClarificationQuestion)
	assert.False(t, next.ShouldContinue)
	assert.Empty(t, next.Response)
}

func TestExecute_CompletionFailureDegrades(t *testing.T) {
	p := &fakeProvider{err: errors.New("LLM_TIMEOUT")}
	next := execute(t, p, singleMachineState())

	assert.Equal(t, msgGenerateFailed, next.Error)
	assert.Equal(t, msgFallbackAnswer, next.Response)
	assert.False(t, next.ShouldContinue)
	assert.Nil(t, next.StructuredResponse)
}

type panickingProvider struct{ fakeProvider }

func (p *panickingProvider) Complete(context.Context, string, []models.Message) (string, error) {
	panic("nil map in provider")
}

func TestExecute_PanicDegrades(t *testing.T) {
	h := NewHandler(LoadConfig(), &panickingProvider{}, logger.NewTestLogger(t))
	state := singleMachineState()

	update, err := h.Execute(context.Background(), state)
	require.NoError(t, err)

	next := state.Apply(update)
	assert.Equal(t, msgGenerateFailed, next.Error)
	assert.Equal(t, msgFallbackAnswer, next.Response)
	assert.False(t, next.ShouldContinue)
}

func TestParseStructuredResponse_MultiMachineEntries(t *testing.T) {
	state := models.WorkflowState{
		QueryType: models.QueryTypeMultiMachine,
		MachineList: []models.RankedMachine{
			{Machine: models.Machine{ID: "m-2", ProductID: "M14860"}, RiskScore: 0.94, RiskLevel: models.RiskHigh, FailurePredicted: true},
		},
	}

	sr := parseStructuredResponse("\n\n  Dua mesin perlu perhatian.  \nALERT 1\nALERT 2\nALERT 3\nALERT 4\nALERT 5\nALERT 6", state, 5)

	assert.Equal(t, "Dua mesin perlu perhatian.", sr.Summary)
	assert.Len(t, sr.CriticalAlerts, 5)
	assert.Empty(t, sr.Recommendations)
	require.Len(t, sr.MachineAnalysis, 1)
	assert.Equal(t, "M14860", sr.MachineAnalysis[0].ProductID)
	assert.Equal(t, "unknown", sr.MachineAnalysis[0].Type)
	assert.True(t, sr.MachineAnalysis[0].FailurePredicted)
	assert.Equal(t, models.RiskModerate, sr.OverallRisk)
}
