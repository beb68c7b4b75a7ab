package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
)

const predictionColumns = `id, machine_id, risk_score, failure_predicted, failure_type, confidence, predicted_failure_time, created_at`

// PredictionStore reads the predictions table.
type PredictionStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPredictionStore(db *sql.DB, log logger.Logger) *PredictionStore {
	return &PredictionStore{
		db:     db,
		logger: log.With(map[string]interface{}{"store": "predictions"}),
	}
}

func (s *PredictionStore) Latest(ctx context.Context, machineID string) (*models.Prediction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+predictionColumns+`
		FROM predictions
		WHERE machine_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, machineID)

	p, err := scanPrediction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: prediction %s: %v", ErrQueryFailed, machineID, err)
	}
	return &p, nil
}

// LatestForMachines returns the newest prediction per machine id. Machines without one are absent.
func (s *PredictionStore) LatestForMachines(ctx context.Context, machineIDs []string) (map[string]models.Prediction, error) {
	out := make(map[string]models.Prediction, len(machineIDs))
	if len(machineIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (machine_id) `+predictionColumns+`
		FROM predictions
		WHERE machine_id = ANY($1)
		ORDER BY machine_id, created_at DESC`, pq.Array(machineIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: batch predictions: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan prediction: %v", ErrQueryFailed, err)
		}
		out[p.MachineID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: prediction rows: %v", ErrQueryFailed, err)
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPrediction(row rowScanner) (models.Prediction, error) {
	var (
		p             models.Prediction
		failureType   sql.NullString
		confidence    sql.NullFloat64
		predictedTime pq.NullTime
	)

	if err := row.Scan(&p.ID, &p.MachineID, &p.RiskScore, &p.FailurePredicted,
		&failureType, &confidence, &predictedTime, &p.CreatedAt); err != nil {
		return p, err
	}

	p.FailureType = failureType.String
	if confidence.Valid {
		c := confidence.Float64
		p.Confidence = &c
	}
	if predictedTime.Valid {
		t := predictedTime.Time
		p.PredictedFailureTime = &t
	}
	return p, nil
}
