package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bloodlink/internal/reference"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// Postgres serves reference data from the blood_groups and blood_components
// tables. Seed inserts rows for any missing type; existing rows keep their
// identifiers so foreign keys stay stable across restarts.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Seed inserts any missing reference rows. Idempotent.
func (s *Postgres) Seed(ctx context.Context) error {
	for _, t := range id.AllBloodTypes() {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO blood_groups (id, type) VALUES ($1, $2) ON CONFLICT (type) DO NOTHING`,
			uuid.New(), t.String(),
		)
		if err != nil {
			return fmt.Errorf("seed blood group %s: %w", t, err)
		}
	}
	for _, name := range id.AllComponents() {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO blood_components (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			uuid.New(), name.String(),
		)
		if err != nil {
			return fmt.Errorf("seed blood component %s: %w", name, err)
		}
	}
	return nil
}

func (s *Postgres) GroupByID(ctx context.Context, groupID id.BloodGroupID) (*reference.BloodGroup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type FROM blood_groups WHERE id = $1`, uuid.UUID(groupID))
	return scanGroup(row)
}

func (s *Postgres) GroupByType(ctx context.Context, bloodType id.BloodType) (*reference.BloodGroup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type FROM blood_groups WHERE type = $1`, bloodType.String())
	return scanGroup(row)
}

func (s *Postgres) ListGroups(ctx context.Context) ([]*reference.BloodGroup, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type FROM blood_groups ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("list blood groups: %w", err)
	}
	defer rows.Close()

	var out []*reference.BloodGroup
	for rows.Next() {
		var (
			gid uuid.UUID
			t   string
		)
		if err := rows.Scan(&gid, &t); err != nil {
			return nil, fmt.Errorf("scan blood group: %w", err)
		}
		out = append(out, &reference.BloodGroup{ID: id.BloodGroupID(gid), Type: id.BloodType(t)})
	}
	return out, rows.Err()
}

func (s *Postgres) ComponentByID(ctx context.Context, componentID id.BloodComponentID) (*reference.BloodComponent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM blood_components WHERE id = $1`, uuid.UUID(componentID))
	return scanComponent(row)
}

func (s *Postgres) ComponentByName(ctx context.Context, name id.ComponentName) (*reference.BloodComponent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM blood_components WHERE name = $1`, name.String())
	return scanComponent(row)
}

func (s *Postgres) ListComponents(ctx context.Context) ([]*reference.BloodComponent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM blood_components ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list blood components: %w", err)
	}
	defer rows.Close()

	var out []*reference.BloodComponent
	for rows.Next() {
		var (
			cid  uuid.UUID
			name string
		)
		if err := rows.Scan(&cid, &name); err != nil {
			return nil, fmt.Errorf("scan blood component: %w", err)
		}
		out = append(out, &reference.BloodComponent{ID: id.BloodComponentID(cid), Name: id.ComponentName(name)})
	}
	return out, rows.Err()
}

func scanGroup(row *sql.Row) (*reference.BloodGroup, error) {
	var (
		gid uuid.UUID
		t   string
	)
	if err := row.Scan(&gid, &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan blood group: %w", err)
	}
	return &reference.BloodGroup{ID: id.BloodGroupID(gid), Type: id.BloodType(t)}, nil
}

func scanComponent(row *sql.Row) (*reference.BloodComponent, error) {
	var (
		cid  uuid.UUID
		name string
	)
	if err := row.Scan(&cid, &name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan blood component: %w", err)
	}
	return &reference.BloodComponent{ID: id.BloodComponentID(cid), Name: id.ComponentName(name)}, nil
}
