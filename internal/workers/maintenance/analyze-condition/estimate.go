package analyzecondition

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"maintenance-copilot/internal/models"
)

// Jitter yields values in [0, 1).
type Jitter interface {
	Float64() float64
}

type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewJitter returns a goroutine-safe source. A zero seed uses the clock.
func NewJitter(seed int64) Jitter {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

const day = 24 * time.Hour

// estimateDays returns whole days until failure, never less than one. A stored predicted
// failure time wins; otherwise the risk bucket is sampled and shortened by sensor anomalies.
func estimateDays(riskScore float64, trends SensorTrends, predicted *time.Time, now time.Time, jitter Jitter) int {
	if predicted != nil {
		days := int(math.Ceil(float64(predicted.Sub(now)) / float64(day)))
		return max(1, days)
	}

	var days float64
	switch {
	case riskScore >= 0.9:
		days = 1 + jitter.Float64()
	case riskScore >= 0.7:
		days = 2 + jitter.Float64()*3
	case riskScore >= 0.5:
		days = 5 + jitter.Float64()*5
	default:
		days = 10 + jitter.Float64()*10
	}

	if trends.TemperatureAnomaly {
		days *= 0.7
	}
	if trends.ToolWearHigh {
		days *= 0.8
	}
	if trends.VibrationAnomaly {
		days *= 0.75
	}

	return max(1, int(math.Round(days)))
}

// confidenceTier buckets a prediction confidence. Missing or zero confidence is MEDIUM.
func confidenceTier(c *float64) models.Confidence {
	switch {
	case c == nil || *c == 0:
		return models.ConfidenceMedium
	case *c >= 0.8:
		return models.ConfidenceHigh
	case *c >= 0.6:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func timeToFailure(p *models.Prediction, trends SensorTrends, now time.Time, jitter Jitter) *models.TimeToFailure {
	days := estimateDays(p.RiskScore, trends, p.PredictedFailureTime, now, jitter)

	date := now.Add(time.Duration(days) * day)
	if p.PredictedFailureTime != nil {
		date = *p.PredictedFailureTime
	}

	return &models.TimeToFailure{
		EstimatedDays: days,
		EstimatedDate: date,
		Confidence:    confidenceTier(p.Confidence),
		FailureType:   p.FailureType,
	}
}
