package threshold

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bloodlink/internal/inventory/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// Postgres persists inventory thresholds. The table carries a unique
// constraint on (blood_group_id, blood_component_id).
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const thresholdColumns = `id, blood_group_id, blood_component_id,
	threshold_unit_stable, unit_count, total_volume_ml, is_stable,
	updated_by, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, t *models.InventoryThreshold) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO inventory_thresholds (`+thresholdColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(t.ID), uuid.UUID(t.GroupID), uuid.UUID(t.ComponentID),
		t.StableUnitCount, t.UnitCount, t.TotalVolumeML, t.IsStable,
		uuid.UUID(t.UpdatedBy), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert inventory threshold: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, thresholdID id.InventoryThresholdID) (*models.InventoryThreshold, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+thresholdColumns+` FROM inventory_thresholds WHERE id = $1`,
		uuid.UUID(thresholdID))
	return scanThreshold(row)
}

func (s *Postgres) FindByPair(ctx context.Context, pair models.Pair) (*models.InventoryThreshold, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+thresholdColumns+` FROM inventory_thresholds
		 WHERE blood_group_id = $1 AND blood_component_id = $2`,
		uuid.UUID(pair.GroupID), uuid.UUID(pair.ComponentID))
	return scanThreshold(row)
}

func (s *Postgres) Update(ctx context.Context, t *models.InventoryThreshold) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE inventory_thresholds
		 SET threshold_unit_stable = $2, unit_count = $3, total_volume_ml = $4,
		     is_stable = $5, updated_by = $6, updated_at = $7
		 WHERE id = $1`,
		uuid.UUID(t.ID), t.StableUnitCount, t.UnitCount, t.TotalVolumeML,
		t.IsStable, uuid.UUID(t.UpdatedBy), t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update inventory threshold: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update inventory threshold: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.InventoryThreshold, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+thresholdColumns+` FROM inventory_thresholds`)
	if err != nil {
		return nil, fmt.Errorf("list inventory thresholds: %w", err)
	}
	defer rows.Close()

	var out []*models.InventoryThreshold
	for rows.Next() {
		t, err := scanThresholdRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanThreshold(row *sql.Row) (*models.InventoryThreshold, error) {
	t, err := scanThresholdRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanThresholdRow(row scannable) (*models.InventoryThreshold, error) {
	var (
		t           models.InventoryThreshold
		thresholdID uuid.UUID
		groupID     uuid.UUID
		componentID uuid.UUID
		updatedBy   uuid.UUID
	)
	err := row.Scan(&thresholdID, &groupID, &componentID,
		&t.StableUnitCount, &t.UnitCount, &t.TotalVolumeML, &t.IsStable,
		&updatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan inventory threshold: %w", err)
	}
	t.ID = id.InventoryThresholdID(thresholdID)
	t.GroupID = id.BloodGroupID(groupID)
	t.ComponentID = id.BloodComponentID(componentID)
	t.UpdatedBy = id.UserID(updatedBy)
	return &t, nil
}
