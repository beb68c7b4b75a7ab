// internal/workers/maintenance/analyze-condition/handler_test.go
package analyzecondition

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
)

// ==========================
// Test Helpers
// ==========================

type fixedJitter float64

func (f fixedJitter) Float64() float64 { return float64(f) }

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T, jitter float64) *Handler {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))
	h.jitter = fixedJitter(jitter)
	h.now = func() time.Time { return testNow }
	return h
}

func readings(n int, r models.SensorReading) []models.SensorReading {
	out := make([]models.SensorReading, n)
	for i := range out {
		out[i] = r
		out[i].UDI = int64(i + 1)
	}
	return out
}

var normalReading = models.SensorReading{
	AirTemp:         298.1,
	ProcessTemp:     308.6,
	RotationalSpeed: 1551,
	Torque:          42.8,
	ToolWear:        0,
}

func analyzedState(t *testing.T, h *Handler, state models.WorkflowState) models.WorkflowState {
	update, err := h.Execute(context.Background(), state)
	require.NoError(t, err)
	return state.Apply(update)
}

// ==========================
// Core Analysis Tests
// ==========================

func TestExecute_HeatDissipationScenario(t *testing.T) {
	hot := normalReading
	hot.ProcessTemp = 315

	state := models.WorkflowState{
		MachineID:      "m-1",
		MachineContext: &models.MachineContext{MachineID: "m-1", ProductID: "L47182"},
		SensorData:     readings(10, hot),
		PredictionData: &models.Prediction{
			RiskScore:        0.82,
			FailurePredicted: true,
			FailureType:      "Heat Dissipation Failure",
			Confidence:       models.Ptr(0.85),
		},
		ShouldContinue: true,
	}

	next := analyzedState(t, newTestHandler(t, 0.5), state)
	a := next.Analysis
	require.NotNil(t, a)

	assert.Equal(t, models.RiskHigh, a.RiskLevel)
	assert.Equal(t, 0.82, a.RiskScore)
	assert.Equal(t, []string{"❌ Temperature anomaly detected"}, a.Anomalies)
	assert.Equal(t, []string{
		"⚠️ FAILURE PREDICTED: Heat Dissipation Failure dalam 2 hari",
		"⚠️ Process temperature: 315.0K (abnormal)",
	}, a.Alerts)
	assert.Equal(t, []string{
		"URGENT: Investigate predicted Heat Dissipation Failure failure",
		"Schedule immediate maintenance inspection",
		"Monitor machine continuously until maintenance is completed",
	}, a.Recommendations)

	require.NotNil(t, a.TimeToFailure)
	// (2 + 0.5*3) * 0.7 = 2.45
	assert.Equal(t, 2, a.TimeToFailure.EstimatedDays)
	assert.Equal(t, testNow.Add(48*time.Hour), a.TimeToFailure.EstimatedDate)
	assert.Equal(t, models.ConfidenceHigh, a.TimeToFailure.Confidence)
	assert.Equal(t, "Heat Dissipation Failure", a.TimeToFailure.FailureType)

	assert.Equal(t, "Machine L47182 Status: **HIGH**"+
		"\n⏰ **Estimasi waktu hingga failure (Heat Dissipation Failure): 2 hari**"+
		"\n\n**Alerts:**"+
		"\n• ⚠️ FAILURE PREDICTED: Heat Dissipation Failure dalam 2 hari"+
		"\n• ⚠️ Process temperature: 315.0K (abnormal)", a.Summary)

	assert.Equal(t, "Heat Dissipation Failure", next.FailureType)
	assert.True(t, next.AnomalyDetected)
	assert.True(t, next.ShouldContinue)
}

func TestExecute_RiskLevels(t *testing.T) {
	highTorque := normalReading
	highTorque.Torque = 55
	wornAndStrained := highTorque
	wornAndStrained.ToolWear = 200

	tests := []struct {
		name       string
		prediction *models.Prediction
		sensors    []models.SensorReading
		wantLevel  models.RiskLevel
		wantTTF    bool
		wantRecs   []string
	}{
		{
			name:      "no data at all",
			wantLevel: models.RiskLow,
			wantRecs:  []string{"Continue normal operations", "Maintain regular monitoring schedule"},
		},
		{
			name:       "low score healthy sensors",
			prediction: &models.Prediction{RiskScore: 0.2},
			sensors:    readings(5, normalReading),
			wantLevel:  models.RiskLow,
			wantRecs:   []string{"Continue normal operations", "Maintain regular monitoring schedule"},
		},
		{
			name:       "moderate score without time to failure",
			prediction: &models.Prediction{RiskScore: 0.45},
			wantLevel:  models.RiskModerate,
			wantRecs:   []string{"Schedule preventative maintenance within 48 hours", "Increase monitoring frequency"},
		},
		{
			name:       "single alert raises to moderate",
			prediction: &models.Prediction{RiskScore: 0.1},
			sensors:    readings(3, highTorque),
			wantLevel:  models.RiskModerate,
			wantRecs:   []string{"Schedule preventative maintenance within 48 hours", "Increase monitoring frequency"},
		},
		{
			name:      "two alerts raise to high",
			sensors:   readings(2, wornAndStrained),
			wantLevel: models.RiskHigh,
		},
		{
			name:       "score at 0.5 computes time to failure",
			prediction: &models.Prediction{RiskScore: 0.5},
			wantLevel:  models.RiskModerate,
			wantTTF:    true,
		},
		{
			name:       "failure predicted at low score computes time to failure",
			prediction: &models.Prediction{RiskScore: 0.3, FailurePredicted: true},
			wantLevel:  models.RiskModerate,
			wantTTF:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := models.WorkflowState{
				MachineID:      "m-1",
				SensorData:     tt.sensors,
				PredictionData: tt.prediction,
				ShouldContinue: true,
			}
			a := analyzedState(t, newTestHandler(t, 0), state).Analysis
			require.NotNil(t, a)

			assert.Equal(t, tt.wantLevel, a.RiskLevel)
			assert.Equal(t, tt.wantTTF, a.TimeToFailure != nil)
			if tt.wantRecs != nil {
				assert.Equal(t, tt.wantRecs, a.Recommendations)
			}
		})
	}
}

func TestExecute_FailurePredictedWithoutType(t *testing.T) {
	state := models.WorkflowState{
		MachineID:      "m-1",
		PredictionData: &models.Prediction{RiskScore: 0.95, FailurePredicted: true},
	}
	a := analyzedState(t, newTestHandler(t, 0), state).Analysis

	assert.Equal(t, "⚠️ FAILURE PREDICTED: Unknown type dalam 1 hari", a.Alerts[0])
	assert.Contains(t, a.Summary, "Machine Unknown Status: **HIGH**")
	assert.Contains(t, a.Summary, "⏰ **Estimasi waktu hingga failure: 1 hari**")
}

func TestExecute_ToolWearRecommendation(t *testing.T) {
	worn := normalReading
	worn.ToolWear = 212
	state := models.WorkflowState{MachineID: "m-1", SensorData: readings(4, worn)}

	a := analyzedState(t, newTestHandler(t, 0), state).Analysis
	assert.Equal(t, []string{"❌ Tool wear approaching limit"}, a.Anomalies)
	assert.Equal(t, []string{"⚠️ Tool wear: 212min (high)"}, a.Alerts)
	assert.Equal(t, "Schedule tool replacement soon", a.Recommendations[0])
}

func TestExecute_NoMachineIsNoOp(t *testing.T) {
	state := models.WorkflowState{PredictionData: &models.Prediction{RiskScore: 0.9}, ShouldContinue: true}
	next := analyzedState(t, newTestHandler(t, 0), state)

	assert.Nil(t, next.Analysis)
	assert.True(t, next.ShouldContinue)
	assert.Empty(t, next.Error)
}

// ==========================
// Sensor Trends
// ==========================

func TestAnalyzeSensorTrends(t *testing.T) {
	tests := []struct {
		name     string
		reading  models.SensorReading
		wantTemp bool
		wantVib  bool
		wantWear bool
	}{
		{name: "normal", reading: normalReading},
		{name: "process temperature over 310K", reading: models.SensorReading{AirTemp: 298, ProcessTemp: 310.5}, wantTemp: true},
		{name: "air temperature over 30C", reading: models.SensorReading{AirTemp: 304.0, ProcessTemp: 308}, wantTemp: true},
		{name: "air temperature below 30C", reading: models.SensorReading{AirTemp: 303.0, ProcessTemp: 308}},
		{name: "torque over 50Nm", reading: models.SensorReading{AirTemp: 298, ProcessTemp: 308, Torque: 50.1}, wantVib: true},
		{name: "tool wear over 150min", reading: models.SensorReading{AirTemp: 298, ProcessTemp: 308, ToolWear: 151}, wantWear: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trends := AnalyzeSensorTrends(readings(3, tt.reading))
			assert.Equal(t, tt.wantTemp, trends.TemperatureAnomaly)
			assert.Equal(t, tt.wantVib, trends.VibrationAnomaly)
			assert.Equal(t, tt.wantWear, trends.ToolWearHigh)
			assert.Equal(t, tt.wantTemp || tt.wantVib || tt.wantWear, trends.AnyAnomaly())
		})
	}
}

func TestAnalyzeSensorTrends_AveragesWholeWindow(t *testing.T) {
	trends := AnalyzeSensorTrends([]models.SensorReading{
		{ProcessTemp: 300, Torque: 40, ToolWear: 100},
		{ProcessTemp: 320, Torque: 70, ToolWear: 220},
	})

	assert.Equal(t, 2, trends.Readings)
	assert.InDelta(t, 310.0, trends.AvgProcessTemp, 1e-9)
	assert.False(t, trends.TemperatureAnomaly)
	assert.InDelta(t, 55.0, trends.AvgTorque, 1e-9)
	assert.True(t, trends.VibrationAnomaly)
	assert.True(t, trends.ToolWearHigh)

	assert.Equal(t, SensorTrends{}, AnalyzeSensorTrends(nil))
}

// ==========================
// Time To Failure
// ==========================

func TestEstimateDays_Buckets(t *testing.T) {
	tests := []struct {
		risk    float64
		minDays int
		maxDays int
	}{
		{risk: 1.0, minDays: 1, maxDays: 2},
		{risk: 0.9, minDays: 1, maxDays: 2},
		{risk: 0.82, minDays: 2, maxDays: 5},
		{risk: 0.7, minDays: 2, maxDays: 5},
		{risk: 0.6, minDays: 5, maxDays: 10},
		{risk: 0.3, minDays: 10, maxDays: 20},
	}

	for _, tt := range tests {
		for _, j := range []float64{0, 0.25, 0.5, 0.75, 0.9999} {
			days := estimateDays(tt.risk, SensorTrends{}, nil, testNow, fixedJitter(j))
			assert.GreaterOrEqual(t, days, tt.minDays, "risk %.2f jitter %.2f", tt.risk, j)
			assert.LessOrEqual(t, days, tt.maxDays, "risk %.2f jitter %.2f", tt.risk, j)
		}
	}
}

func TestEstimateDays_Adjustments(t *testing.T) {
	all := SensorTrends{TemperatureAnomaly: true, ToolWearHigh: true, VibrationAnomaly: true}

	// 5 * 0.7 * 0.8 * 0.75 = 2.1
	assert.Equal(t, 2, estimateDays(0.6, all, nil, testNow, fixedJitter(0)))
	// 10 * 0.8 = 8
	assert.Equal(t, 8, estimateDays(0.1, SensorTrends{ToolWearHigh: true}, nil, testNow, fixedJitter(0)))
	// 1 * 0.42 rounds to 0 and is floored
	assert.Equal(t, 1, estimateDays(0.95, all, nil, testNow, fixedJitter(0)))
}

func TestEstimateDays_TemperatureAnomalyRange(t *testing.T) {
	trends := SensorTrends{TemperatureAnomaly: true}
	seen := map[int]bool{}

	for seed := int64(1); seed <= 2000; seed++ {
		days := estimateDays(0.82, trends, nil, testNow, NewJitter(seed))
		assert.GreaterOrEqual(t, days, 1, "seed %d", seed)
		assert.LessOrEqual(t, days, 3, "seed %d", seed)
		seen[days] = true
	}
	// round([1.4, 3.5)) covers every day in the range
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, seen)
}

func TestEstimateDays_PredictedFailureTime(t *testing.T) {
	tests := []struct {
		name      string
		predicted time.Time
		want      int
	}{
		{name: "partial day rounds up", predicted: testNow.Add(36 * time.Hour), want: 2},
		{name: "exact days", predicted: testNow.Add(72 * time.Hour), want: 3},
		{name: "past date floored", predicted: testNow.Add(-48 * time.Hour), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := SensorTrends{TemperatureAnomaly: true}
			assert.Equal(t, tt.want, estimateDays(0.99, all, &tt.predicted, testNow, fixedJitter(0.9)))
		})
	}
}

func TestTimeToFailure_UsesPredictedDate(t *testing.T) {
	predicted := testNow.Add(50 * time.Hour)
	ttf := timeToFailure(&models.Prediction{RiskScore: 0.8, PredictedFailureTime: &predicted}, SensorTrends{}, testNow, fixedJitter(0))

	assert.Equal(t, 3, ttf.EstimatedDays)
	assert.Equal(t, predicted, ttf.EstimatedDate)
	assert.Equal(t, models.ConfidenceMedium, ttf.Confidence)
}

func TestConfidenceTier(t *testing.T) {
	tests := []struct {
		in   *float64
		want models.Confidence
	}{
		{in: nil, want: models.ConfidenceMedium},
		{in: models.Ptr(0.0), want: models.ConfidenceMedium},
		{in: models.Ptr(0.85), want: models.ConfidenceHigh},
		{in: models.Ptr(0.8), want: models.ConfidenceHigh},
		{in: models.Ptr(0.6), want: models.ConfidenceMedium},
		{in: models.Ptr(0.59), want: models.ConfidenceLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, confidenceTier(tt.in))
	}
}

func TestNewJitter_SeedIsReproducible(t *testing.T) {
	a, b := NewJitter(42), NewJitter(42)
	for i := 0; i < 5; i++ {
		v := a.Float64()
		assert.Equal(t, v, b.Float64())
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestRiskLevelFor(t *testing.T) {
	assert.Equal(t, models.RiskHigh, RiskLevelFor(0.7, 0))
	assert.Equal(t, models.RiskHigh, RiskLevelFor(0, 2))
	assert.Equal(t, models.RiskModerate, RiskLevelFor(0.4, 0))
	assert.Equal(t, models.RiskModerate, RiskLevelFor(0.1, 1))
	assert.Equal(t, models.RiskLow, RiskLevelFor(0.39, 0))
}
