package registration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bloodlink/internal/donation/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// Postgres persists donation registrations. Screening answers and the
// component list are stored as jsonb, keeping the aggregate's document shape.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const regColumns = `id, donor_id, health_check_id, donation_process_id,
	blood_group_id, donation_type, blood_components, status, scheduled_at,
	screening, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, r *models.DonationRegistration) error {
	screening, err := json.Marshal(r.Screening)
	if err != nil {
		return fmt.Errorf("marshal screening: %w", err)
	}
	components := make([]string, len(r.Components))
	for i, c := range r.Components {
		components[i] = c.String()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO donation_registrations (`+regColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(r.ID), uuid.UUID(r.DonorID), uuid.UUID(r.HealthCheckID),
		uuid.UUID(r.ProcessID), uuid.UUID(r.GroupID), r.DonationType.String(),
		pq.Array(components), string(r.Status), r.ScheduledAt, screening,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert donation registration: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, regID id.DonationRegistrationID) (*models.DonationRegistration, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+regColumns+` FROM donation_registrations WHERE id = $1`, uuid.UUID(regID))
	r, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *Postgres) Update(ctx context.Context, r *models.DonationRegistration) error {
	screening, err := json.Marshal(r.Screening)
	if err != nil {
		return fmt.Errorf("marshal screening: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE donation_registrations
		 SET blood_group_id = $2, status = $3, scheduled_at = $4, screening = $5,
		     updated_at = $6
		 WHERE id = $1`,
		uuid.UUID(r.ID), uuid.UUID(r.GroupID), string(r.Status), r.ScheduledAt,
		screening, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update donation registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update donation registration: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByDonor(ctx context.Context, donorID id.UserID) ([]*models.DonationRegistration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+regColumns+` FROM donation_registrations WHERE donor_id = $1 ORDER BY created_at DESC`,
		uuid.UUID(donorID))
	if err != nil {
		return nil, fmt.Errorf("list registrations by donor: %w", err)
	}
	defer rows.Close()

	var out []*models.DonationRegistration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRegistration(row scannable) (*models.DonationRegistration, error) {
	var (
		r            models.DonationRegistration
		regID        uuid.UUID
		donorID      uuid.UUID
		hcID         uuid.UUID
		processID    uuid.UUID
		groupID      uuid.UUID
		donationType string
		components   pq.StringArray
		status       string
		scheduledAt  sql.NullTime
		screening    []byte
	)
	err := row.Scan(&regID, &donorID, &hcID, &processID, &groupID, &donationType,
		&components, &status, &scheduledAt, &screening, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan donation registration: %w", err)
	}

	r.ID = id.DonationRegistrationID(regID)
	r.DonorID = id.UserID(donorID)
	r.HealthCheckID = id.HealthCheckID(hcID)
	r.ProcessID = id.DonationProcessID(processID)
	r.GroupID = id.BloodGroupID(groupID)
	r.DonationType = id.DonationType(donationType)
	for _, c := range components {
		r.Components = append(r.Components, id.ComponentName(c))
	}
	r.Status = models.RegistrationStatus(status)
	if scheduledAt.Valid {
		r.ScheduledAt = scheduledAt.Time
	}
	if len(screening) > 0 {
		if err := json.Unmarshal(screening, &r.Screening); err != nil {
			return nil, fmt.Errorf("unmarshal screening: %w", err)
		}
	}
	return &r, nil
}
