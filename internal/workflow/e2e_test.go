package workflow_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
	analyzecondition "maintenance-copilot/internal/workers/maintenance/analyze-condition"
	analyzemachines "maintenance-copilot/internal/workers/maintenance/analyze-machines"
	fetchprediction "maintenance-copilot/internal/workers/maintenance/fetch-prediction"
	fetchsensor "maintenance-copilot/internal/workers/maintenance/fetch-sensor"
	generateanswer "maintenance-copilot/internal/workers/maintenance/generate-answer"
	identifymachine "maintenance-copilot/internal/workers/maintenance/identify-machine"
	retrieveknowledge "maintenance-copilot/internal/workers/maintenance/retrieve-knowledge"
	"maintenance-copilot/internal/workflow"
)

// ==========================
// Collaborators
// ==========================

// scriptedProvider answers intent prompts with a fixed JSON reply and records the answer prompt.
type scriptedProvider struct {
	mu           sync.Mutex
	intentReply  string
	answerReply  string
	intentCalls  int
	answerCalls  int
	answerPrompt string
}

func (p *scriptedProvider) Name() string         { return "scripted" }
func (p *scriptedProvider) SystemPrompt() string { return "Anda adalah asisten perawatan mesin." }

func (p *scriptedProvider) Complete(_ context.Context, _ string, messages []models.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	last := messages[len(messages)-1].Content
	if strings.Contains(last, "Extract structured JSON") {
		p.intentCalls++
		return p.intentReply, nil
	}
	p.answerCalls++
	p.answerPrompt = last
	return p.answerReply, nil
}

type plant struct {
	machines    []models.Machine
	readings    map[string][]models.SensorReading
	predictions map[string]models.Prediction
}

func (p *plant) GetByIdentifier(_ context.Context, id string) (*models.Machine, error) {
	for _, m := range p.machines {
		if m.ProductID == id || m.ID == id {
			return &m, nil
		}
	}
	return nil, nil
}

func (p *plant) Search(_ context.Context, filter models.MachineFilter) ([]models.Machine, error) {
	var out []models.Machine
	for _, m := range p.machines {
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (p *plant) Recent(_ context.Context, machineID string) ([]models.SensorReading, error) {
	return p.readings[machineID], nil
}

func (p *plant) Latest(_ context.Context, machineID string) (*models.Prediction, error) {
	if pr, ok := p.predictions[machineID]; ok {
		return &pr, nil
	}
	return nil, nil
}

func (p *plant) LatestForMachines(_ context.Context, ids []string) (map[string]models.Prediction, error) {
	out := make(map[string]models.Prediction)
	for _, id := range ids {
		if pr, ok := p.predictions[id]; ok {
			out[id] = pr
		}
	}
	return out, nil
}

type staticEmbedder struct {
	mu    sync.Mutex
	texts []string
}

func (e *staticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.texts = append(e.texts, text)
	return []float32{0.1, 0.2, 0.3}, nil
}

type sopIndex struct {
	chunks []models.KnowledgeChunk
}

func (s *sopIndex) Search(context.Context, []float32, models.SearchOptions) ([]models.KnowledgeChunk, error) {
	return s.chunks, nil
}

const sopHDF = `SOP Penanganan Overheat
1. Matikan mesin dan tunggu hingga suhu turun
2. Periksa kipas pendingin dan saluran udara
3. Bersihkan heat sink dari debu dan kotoran`

func newPlant() *plant {
	now := time.Now()
	var readings []models.SensorReading
	for i := 0; i < 5; i++ {
		readings = append(readings, models.SensorReading{
			UDI:             int64(100 + i),
			MachineID:       "m-47182",
			AirTemp:         300.0,
			ProcessTemp:     315.0,
			RotationalSpeed: 1400,
			Torque:          40,
			ToolWear:        90,
			Timestamp:       now.Add(time.Duration(i-5) * time.Minute),
		})
	}

	return &plant{
		machines: []models.Machine{
			{ID: "m-47182", ProductID: "L47182", Name: "Mesin Bubut A", Type: "L", Status: "active", Location: "Lantai 2"},
			{ID: "m-29424", ProductID: "H29424", Name: "Mesin Frais B", Type: "H", Status: "active", Location: "Lantai 1"},
		},
		readings: map[string][]models.SensorReading{"m-47182": readings},
		predictions: map[string]models.Prediction{
			"m-47182": {
				ID:               "p-1",
				MachineID:        "m-47182",
				RiskScore:        0.82,
				FailurePredicted: true,
				FailureType:      "Heat Dissipation Failure",
				Confidence:       models.Ptr(0.85),
				CreatedAt:        now,
			},
			"m-29424": {ID: "p-2", MachineID: "m-29424", RiskScore: 0.31, CreatedAt: now},
		},
	}
}

type harness struct {
	provider *scriptedProvider
	embedder *staticEmbedder
	plant    *plant
	orch     *workflow.Orchestrator
}

func newHarness(t *testing.T, intentReply string) *harness {
	t.Helper()
	log := logger.NewTestLogger(t)

	h := &harness{
		provider: &scriptedProvider{
			intentReply: intentReply,
			answerReply: "Mesin L47182 berisiko tinggi mengalami Heat Dissipation Failure.\nSegera periksa sistem pendingin.",
		},
		embedder: &staticEmbedder{},
		plant:    newPlant(),
	}
	index := &sopIndex{chunks: []models.KnowledgeChunk{
		{ID: "c-1", Content: sopHDF, Source: "sop_overheat.pdf", Similarity: 0.88},
	}}

	conditionCfg := analyzecondition.LoadConfig()
	conditionCfg.JitterSeed = 42

	orch, err := workflow.New(workflow.Config{NodeTimeout: 5 * time.Second}, workflow.Nodes{
		IdentifyMachine:   identifymachine.NewHandler(identifymachine.LoadConfig(), h.provider, h.plant, log),
		FetchSensor:       fetchsensor.NewHandler(fetchsensor.LoadConfig(), h.plant, log),
		FetchPrediction:   fetchprediction.NewHandler(fetchprediction.LoadConfig(), h.plant, log),
		AnalyzeMachines:   analyzemachines.NewHandler(analyzemachines.LoadConfig(), h.plant, h.plant, h.plant, log),
		AnalyzeCondition:  analyzecondition.NewHandler(conditionCfg, log),
		RetrieveKnowledge: retrieveknowledge.NewHandler(retrieveknowledge.LoadConfig(), h.embedder, index, log),
		GenerateAnswer:    generateanswer.NewHandler(generateanswer.LoadConfig(), h.provider, log),
	}, log)
	require.NoError(t, err)
	h.orch = orch
	return h
}

const singleMachineIntent = `{"isMultiMachineQuery": false, "isDocumentationQuery": false, "intent": "risk",
"compoundIntents": [], "timeWindow": null, "riskThreshold": null,
"machine": {"productId": "L47182", "name": null, "location": null, "type": null}, "confidence": 0.9}`

// ==========================
// Single Machine
// ==========================

func TestEndToEnd_SingleMachineOverheating(t *testing.T) {
	h := newHarness(t, singleMachineIntent)

	state, err := h.orch.Execute(context.Background(), workflow.Input{UserInput: "bagaimana kondisi mesin L47182?"})
	require.NoError(t, err)

	assert.Equal(t, models.QueryTypeSingleMachine, state.QueryType)
	require.NotNil(t, state.MachineContext)
	assert.Equal(t, "L47182", state.MachineContext.ProductID)
	assert.Equal(t, "m-47182", state.MachineID)
	assert.Len(t, state.SensorData, 5)

	require.NotNil(t, state.Analysis)
	assert.Equal(t, models.RiskHigh, state.Analysis.RiskLevel)
	assert.Contains(t, state.Analysis.Anomalies, "❌ Temperature anomaly detected")
	assert.Contains(t, state.Analysis.Alerts, "⚠️ Process temperature: 315.0K (abnormal)")
	assert.True(t, state.AnomalyDetected)
	assert.Equal(t, "Heat Dissipation Failure", state.FailureType)

	ttf := state.Analysis.TimeToFailure
	require.NotNil(t, ttf)
	// 2-5 day bucket shortened by the temperature multiplier
	assert.GreaterOrEqual(t, ttf.EstimatedDays, 1)
	assert.LessOrEqual(t, ttf.EstimatedDays, 3)
	assert.Equal(t, models.ConfidenceHigh, ttf.Confidence)

	require.Len(t, state.KnowledgeContext, 1)
	assert.Equal(t, []string{"prosedur perbaikan heat dissipation failure HDF overheat"}, h.embedder.texts)
	assert.Contains(t, state.RepairSteps, "Matikan mesin dan tunggu hingga suhu turun")

	assert.Equal(t, 1, h.provider.intentCalls)
	assert.Equal(t, 1, h.provider.answerCalls)
	assert.Contains(t, h.provider.answerPrompt, "Heat Dissipation Failure")
	assert.Contains(t, h.provider.answerPrompt, "L47182")
	assert.Contains(t, h.provider.answerPrompt, "sop_overheat.pdf")

	assert.Contains(t, state.Response, "Heat Dissipation Failure")
	require.NotNil(t, state.StructuredResponse)
	assert.False(t, state.ShouldContinue)
	assert.Empty(t, state.Error)
	assert.NotEmpty(t, state.RequestID)
}

func TestEndToEnd_RepeatedRunsAgree(t *testing.T) {
	input := workflow.Input{UserInput: "bagaimana kondisi mesin L47182?"}

	first, err := newHarness(t, singleMachineIntent).orch.Execute(context.Background(), input)
	require.NoError(t, err)
	second, err := newHarness(t, singleMachineIntent).orch.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.QueryType, second.QueryType)
	assert.Equal(t, first.Analysis.RiskLevel, second.Analysis.RiskLevel)
	assert.Equal(t, first.Analysis.Anomalies, second.Analysis.Anomalies)
	assert.Equal(t, first.Analysis.TimeToFailure.EstimatedDays, second.Analysis.TimeToFailure.EstimatedDays)
	assert.Equal(t, first.RepairSteps, second.RepairSteps)
	assert.NotEqual(t, first.RequestID, second.RequestID)
}

// ==========================
// Documentation
// ==========================

func TestEndToEnd_DocumentationSkipsIntentModel(t *testing.T) {
	h := newHarness(t, singleMachineIntent)

	state, err := h.orch.Execute(context.Background(), workflow.Input{UserInput: "apa prosedur SOP untuk tipe H"})
	require.NoError(t, err)

	assert.Equal(t, models.QueryTypeDocumentation, state.QueryType)
	assert.Equal(t, 0, h.provider.intentCalls)
	assert.Equal(t, 1, h.provider.answerCalls)
	assert.Equal(t, []string{"apa prosedur SOP untuk tipe H tipe H"}, h.embedder.texts)
	assert.Nil(t, state.Analysis)
	assert.Len(t, state.KnowledgeContext, 1)
	assert.NotEmpty(t, state.Response)
}

// ==========================
// Multi Machine
// ==========================

func TestEndToEnd_MultiMachineRanking(t *testing.T) {
	h := newHarness(t, `{"isMultiMachineQuery": true, "isDocumentationQuery": false, "intent": "risk",
"compoundIntents": [], "timeWindow": null, "riskThreshold": null,
"machine": {"productId": null, "name": null, "location": null, "type": null}, "confidence": 0.8}`)

	state, err := h.orch.Execute(context.Background(), workflow.Input{UserInput: "mesin mana yang paling berisiko?"})
	require.NoError(t, err)

	assert.Equal(t, models.QueryTypeMultiMachine, state.QueryType)
	require.Len(t, state.MachineList, 2)
	assert.Equal(t, "L47182", state.MachineList[0].ProductID)
	assert.Equal(t, models.RiskHigh, state.MachineList[0].RiskLevel)
	assert.Equal(t, "H29424", state.MachineList[1].ProductID)
	assert.Empty(t, h.embedder.texts)
	assert.Contains(t, h.provider.answerPrompt, "L47182")
}

// ==========================
// Clarification
// ==========================

func TestEndToEnd_UnresolvedMachineAsksForClarification(t *testing.T) {
	h := newHarness(t, `{"isMultiMachineQuery": false, "isDocumentationQuery": false, "intent": "risk",
"compoundIntents": [], "timeWindow": null, "riskThreshold": null,
"machine": {"productId": "Z99999", "name": null, "location": null, "type": null}, "confidence": 0.6}`)
	h.plant.machines = nil

	state, err := h.orch.Execute(context.Background(), workflow.Input{UserInput: "cek mesin Z99999"})
	require.NoError(t, err)

	assert.True(t, state.NeedsClarification)
	assert.NotEmpty(t, state.Response)
	assert.Equal(t, 0, h.provider.answerCalls)
	assert.Nil(t, state.Analysis)
}
