// internal/workers/maintenance/fetch-prediction/handler.go
package fetchprediction

import (
	"context"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
	"maintenance-copilot/internal/repository"
)

const (
	TaskType = "fetch-prediction"
	NodeName = "fetch_prediction"
)

const msgFetchFailed = "Failed to fetch prediction data"

type Handler struct {
	config      *Config
	predictions repository.PredictionRepository
	logger      logger.Logger
}

func NewHandler(config *Config, predictions repository.PredictionRepository, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		predictions: predictions,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Name() string { return NodeName }

// Execute attaches the latest stored prediction, if any, for the resolved machine.
func (h *Handler) Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error) {
	if state.MachineID == "" {
		return models.Continue(), nil
	}

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	prediction, err := h.predictions.Latest(ctx, state.MachineID)
	if err != nil {
		h.logger.Error("prediction query failed", map[string]interface{}{
			"machineId": state.MachineID,
			"error":     err.Error(),
		})
		return models.SoftError(msgFetchFailed), nil
	}

	if prediction == nil {
		h.logger.Info("no prediction stored for machine", map[string]interface{}{
			"machineId": state.MachineID,
		})
		return models.Continue(), nil
	}

	h.logger.Debug("prediction loaded", map[string]interface{}{
		"machineId":        state.MachineID,
		"riskScore":        prediction.RiskScore,
		"failurePredicted": prediction.FailurePredicted,
	})

	return models.StateUpdate{
		PredictionData: prediction,
		ShouldContinue: models.Ptr(true),
	}, nil
}
