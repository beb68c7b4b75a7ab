package repository

import (
	"context"
	"database/sql"
	"fmt"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
)

const defaultSensorWindow = 100

// SensorStore reads the sensor_data table.
type SensorStore struct {
	db     *sql.DB
	window int
	logger logger.Logger
}

// NewSensorStore builds a store returning at most window readings per call.
func NewSensorStore(db *sql.DB, window int, log logger.Logger) *SensorStore {
	if window <= 0 {
		window = defaultSensorWindow
	}
	return &SensorStore{
		db:     db,
		window: window,
		logger: log.With(map[string]interface{}{"store": "sensor_data"}),
	}
}

// Recent returns the newest readings, oldest first.
func (s *SensorStore) Recent(ctx context.Context, machineID string) ([]models.SensorReading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT udi, machine_id, air_temp, process_temp, rotational_speed, torque, tool_wear, timestamp
		FROM sensor_data
		WHERE machine_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`, machineID, s.window)
	if err != nil {
		return nil, fmt.Errorf("%w: sensor data %s: %v", ErrQueryFailed, machineID, err)
	}
	defer rows.Close()

	readings := []models.SensorReading{}
	for rows.Next() {
		var r models.SensorReading
		if err := rows.Scan(&r.UDI, &r.MachineID, &r.AirTemp, &r.ProcessTemp,
			&r.RotationalSpeed, &r.Torque, &r.ToolWear, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scan reading: %v", ErrQueryFailed, err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: sensor rows: %v", ErrQueryFailed, err)
	}

	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	return readings, nil
}
