// internal/workers/maintenance/fetch-sensor/handler.go
package fetchsensor

import (
	"context"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
	"maintenance-copilot/internal/repository"
)

const (
	TaskType = "fetch-sensor"
	NodeName = "fetch_sensor"
)

const msgFetchFailed = "Failed to fetch sensor data"

type Handler struct {
	config  *Config
	sensors repository.SensorRepository
	logger  logger.Logger
}

func NewHandler(config *Config, sensors repository.SensorRepository, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		sensors: sensors,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Name() string { return NodeName }

// Execute loads the recent readings of the resolved machine. No readings is a valid result.
func (h *Handler) Execute(ctx context.Context, state models.WorkflowState) (models.StateUpdate, error) {
	if state.MachineID == "" {
		return models.Continue(), nil
	}

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	readings, err := h.sensors.Recent(ctx, state.MachineID)
	if err != nil {
		h.logger.Error("sensor query failed", map[string]interface{}{
			"machineId": state.MachineID,
			"error":     err.Error(),
		})
		return models.SoftError(msgFetchFailed), nil
	}

	h.logger.Debug("sensor data loaded", map[string]interface{}{
		"machineId": state.MachineID,
		"readings":  len(readings),
	})

	if readings == nil {
		readings = []models.SensorReading{}
	}
	return models.StateUpdate{
		SensorData:     readings,
		ShouldContinue: models.Ptr(true),
	}, nil
}
