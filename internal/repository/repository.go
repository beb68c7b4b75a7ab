// Package repository holds the read-side stores the copilot nodes consume.
package repository

import (
	"context"
	"errors"

	"maintenance-copilot/internal/models"
)

var (
	ErrQueryFailed  = errors.New("QUERY_FAILED")
	ErrSearchFailed = errors.New("SEARCH_FAILED")
)

// MachineDirectory looks machines up by identifier or by filter.
type MachineDirectory interface {
	// GetByIdentifier returns nil, nil when nothing matches.
	GetByIdentifier(ctx context.Context, id string) (*models.Machine, error)
	Search(ctx context.Context, filter models.MachineFilter) ([]models.Machine, error)
}

// SensorRepository returns recent readings in chronological order.
type SensorRepository interface {
	Recent(ctx context.Context, machineID string) ([]models.SensorReading, error)
}

// PredictionRepository returns the latest stored prediction, nil when absent.
type PredictionRepository interface {
	Latest(ctx context.Context, machineID string) (*models.Prediction, error)
	LatestForMachines(ctx context.Context, machineIDs []string) (map[string]models.Prediction, error)
}

// KnowledgeIndex runs a vector similarity search over SOP/manual chunks.
type KnowledgeIndex interface {
	Search(ctx context.Context, vector []float32, opts models.SearchOptions) ([]models.KnowledgeChunk, error)
}
