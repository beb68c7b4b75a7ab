// internal/workers/maintenance/analyze-machines/handler.go
package analyzemachines

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
	"maintenance-copilot/internal/repository"
	analyzecondition "maintenance-copilot/internal/workers/maintenance/analyze-condition"
)

const (
	TaskType = "analyze-machines"
	NodeName = "analyze_machines"
)

const (
	msgQueryFailed = "Failed to analyze machines"
	msgNoMachines  = "No machines found matching the criteria"
)

type Handler struct {
	config      *Config
	machines    repository.MachineDirectory
	predictions repository.PredictionRepository
	sensors     repository.SensorRepository
	now         func() time.Time
	logger      logger.Logger
}

func NewHandler(
	config *Config,
	machines repository.MachineDirectory,
	predictions repository.PredictionRepository,
	sensors repository.SensorRepository,
	log logger.Logger,
) *Handler {
	return &Handler{
		config:      config,
		machines:    machines,
		predictions: predictions,
		sensors:     sensors,
		now:         time.Now,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Name() string { return NodeName }

// Execute ranks the machines matching the analysis criteria by predicted risk.
func (h *Handler) Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error) {
	criteria := models.AnalysisCriteria{CriteriaType: "generic"}
	if state.AnalysisCriteria != nil {
		criteria = *state.AnalysisCriteria
	}

	filter := criteria.MachineFilters
	filter.Limit = h.config.SearchLimit

	machines, err := h.machines.Search(ctx, filter)
	if err != nil {
		h.logger.Error("machine search failed", map[string]interface{}{"error": err.Error()})
		return models.SoftError(msgQueryFailed), nil
	}
	if len(machines) == 0 {
		return noMachines(), nil
	}

	ids := make([]string, len(machines))
	for i, m := range machines {
		ids[i] = m.ID
	}

	predictions, err := h.predictions.LatestForMachines(ctx, ids)
	if err != nil {
		h.logger.Error("prediction batch query failed", map[string]interface{}{
			"machines": len(ids),
			"error":    err.Error(),
		})
		return models.SoftError(msgQueryFailed), nil
	}

	ranked := make([]models.RankedMachine, len(machines))
	for i, m := range machines {
		ranked[i] = rank(m, predictions[m.ID])
	}

	if wantsSensorTrends(criteria.CriteriaType, criteria.CompoundIntents) {
		if err := h.attachTrends(ctx, ranked); err != nil {
			h.logger.Warn("sensor trend analysis aborted", map[string]interface{}{"error": err.Error()})
		}
	}

	ranked = h.applyCriteria(ranked, criteria)

	h.logger.Info("machine set analyzed", map[string]interface{}{
		"criteriaType": criteria.CriteriaType,
		"matched":      len(machines),
		"ranked":       len(ranked),
	})

	if len(ranked) == 0 {
		return noMachines(), nil
	}
	return models.StateUpdate{
		MachineList:    ranked,
		ShouldContinue: models.Ptr(true),
	}, nil
}

func rank(m models.Machine, p models.Prediction) models.RankedMachine {
	r := models.RankedMachine{
		Machine:              m,
		RiskScore:            p.RiskScore,
		RiskLevel:            analyzecondition.RiskLevelFor(p.RiskScore, 0),
		FailurePredicted:     p.FailurePredicted,
		FailureType:          p.FailureType,
		PredictedFailureTime: p.PredictedFailureTime,
	}
	if p.FailurePredicted {
		failureType := p.FailureType
		if failureType == "" {
			failureType = "Unknown type"
		}
		r.CriticalAlerts = append(r.CriticalAlerts, "FAILURE PREDICTED: "+failureType)
	}
	return r
}

// attachTrends reads telemetry per machine concurrently. A failed read only skips that machine.
func (h *Handler) attachTrends(ctx context.Context, ranked []models.RankedMachine) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, h.config.SensorConcurrency))

	for i := range ranked {
		m := &ranked[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			readings, err := h.sensors.Recent(gctx, m.ID)
			if err != nil {
				h.logger.Warn("sensor read failed", map[string]interface{}{
					"machineId": m.ID,
					"error":     err.Error(),
				})
				return nil
			}
			if len(readings) == 0 {
				return nil
			}

			latest := readings[len(readings)-1]
			m.LatestReading = &latest

			trends := analyzecondition.AnalyzeSensorTrends(readings)
			if trends.TemperatureAnomaly {
				m.CriticalAlerts = append(m.CriticalAlerts, fmt.Sprintf("Temperature anomaly (process %.1fK)", trends.AvgProcessTemp))
			}
			if trends.VibrationAnomaly {
				m.CriticalAlerts = append(m.CriticalAlerts, fmt.Sprintf("High torque (%.1fNm)", trends.AvgTorque))
			}
			if trends.ToolWearHigh {
				m.CriticalAlerts = append(m.CriticalAlerts, fmt.Sprintf("Tool wear high (%.0fmin)", trends.AvgToolWear))
			}
			return nil
		})
	}

	return g.Wait()
}

// applyCriteria filters by risk threshold and time window, sorts by risk and caps the list.
func (h *Handler) applyCriteria(ranked []models.RankedMachine, criteria models.AnalysisCriteria) []models.RankedMachine {
	threshold, hasThreshold := parseRiskThreshold(criteria.RiskThreshold)
	if !hasThreshold && strings.TrimSpace(criteria.RiskThreshold) != "" {
		h.logger.Warn("risk threshold not understood, listing all risk levels", map[string]interface{}{
			"riskThreshold": criteria.RiskThreshold,
		})
	}
	window, hasWindow := parseTimeWindow(criteria.TimeWindow)
	deadline := h.now().Add(window)

	out := ranked[:0]
	for _, m := range ranked {
		if hasThreshold && m.RiskScore < threshold {
			continue
		}
		if hasWindow && m.PredictedFailureTime != nil && m.PredictedFailureTime.After(deadline) {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RiskScore != out[j].RiskScore {
			return out[i].RiskScore > out[j].RiskScore
		}
		return out[i].ProductID < out[j].ProductID
	})

	if h.config.MaxMachines > 0 && len(out) > h.config.MaxMachines {
		out = out[:h.config.MaxMachines]
	}
	return out
}

func noMachines() models.StateUpdate {
	update := models.SoftError(msgNoMachines)
	update.MachineList = []models.RankedMachine{}
	return update
}
