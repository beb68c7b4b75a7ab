package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
)

const defaultSearchLimit = 50

const machineColumns = `id, product_id, COALESCE(name, ''), type, status, COALESCE(location, '')`

// MachineStore reads the machines table.
type MachineStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewMachineStore(db *sql.DB, log logger.Logger) *MachineStore {
	return &MachineStore{
		db:     db,
		logger: log.With(map[string]interface{}{"store": "machines"}),
	}
}

// GetByIdentifier matches the product id exactly or the primary key.
func (s *MachineStore) GetByIdentifier(ctx context.Context, id string) (*models.Machine, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+machineColumns+`
		FROM machines
		WHERE product_id = $1 OR id::text = $1
		LIMIT 1`, id)

	var m models.Machine
	if err := row.Scan(&m.ID, &m.ProductID, &m.Name, &m.Type, &m.Status, &m.Location); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: machine %s: %v", ErrQueryFailed, id, err)
	}
	return &m, nil
}

// Search runs a case-insensitive partial match on every present filter; type matches exactly.
func (s *MachineStore) Search(ctx context.Context, filter models.MachineFilter) ([]models.Machine, error) {
	query, args := buildMachineSearch(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: machine search: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	machines := []models.Machine{}
	for rows.Next() {
		var m models.Machine
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Name, &m.Type, &m.Status, &m.Location); err != nil {
			return nil, fmt.Errorf("%w: scan machine: %v", ErrQueryFailed, err)
		}
		machines = append(machines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: machine rows: %v", ErrQueryFailed, err)
	}

	s.logger.Debug("machine search", map[string]interface{}{"filter": filter, "count": len(machines)})
	return machines, nil
}

func buildMachineSearch(filter models.MachineFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)

	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.ProductID != "" {
		add("product_id ILIKE $%d", "%"+filter.ProductID+"%")
	}
	if filter.Name != "" {
		add("name ILIKE $%d", "%"+filter.Name+"%")
	}
	if filter.Location != "" {
		add("location ILIKE $%d", "%"+filter.Location+"%")
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + machineColumns + " FROM machines")
	if len(conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	args = append(args, limit)
	sb.WriteString(fmt.Sprintf(" ORDER BY product_id LIMIT $%d", len(args)))

	return sb.String(), args
}
