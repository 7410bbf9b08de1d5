package process

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bloodlink/internal/donation/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// Postgres persists donation processes.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const procColumns = `id, donor_id, donation_registration_id, health_check_id,
	volume_collected_ml, status, collected_at, description, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, p *models.DonationProcess) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO donation_processes (`+procColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(p.ID), uuid.UUID(p.DonorID), uuid.UUID(p.RegistrationID),
		uuid.UUID(p.HealthCheckID), p.VolumeCollectedML, string(p.Status),
		nullTime(p.CollectedAt), p.Description, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert donation process: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, procID id.DonationProcessID) (*models.DonationProcess, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+procColumns+` FROM donation_processes WHERE id = $1`, uuid.UUID(procID))
	p, err := scanProcess(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Postgres) FindByRegistration(ctx context.Context, regID id.DonationRegistrationID) (*models.DonationProcess, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+procColumns+` FROM donation_processes WHERE donation_registration_id = $1`,
		uuid.UUID(regID))
	p, err := scanProcess(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Postgres) Update(ctx context.Context, p *models.DonationProcess) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE donation_processes
		 SET volume_collected_ml = $2, status = $3, collected_at = $4,
		     description = $5, updated_at = $6
		 WHERE id = $1`,
		uuid.UUID(p.ID), p.VolumeCollectedML, string(p.Status),
		nullTime(p.CollectedAt), p.Description, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update donation process: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update donation process: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByDonor(ctx context.Context, donorID id.UserID) ([]*models.DonationProcess, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+procColumns+` FROM donation_processes WHERE donor_id = $1 ORDER BY created_at DESC`,
		uuid.UUID(donorID))
	if err != nil {
		return nil, fmt.Errorf("list processes by donor: %w", err)
	}
	defer rows.Close()

	var out []*models.DonationProcess
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProcess(row scannable) (*models.DonationProcess, error) {
	var (
		p           models.DonationProcess
		procID      uuid.UUID
		donorID     uuid.UUID
		regID       uuid.UUID
		hcID        uuid.UUID
		status      string
		collectedAt sql.NullTime
	)
	err := row.Scan(&procID, &donorID, &regID, &hcID, &p.VolumeCollectedML,
		&status, &collectedAt, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan donation process: %w", err)
	}

	p.ID = id.DonationProcessID(procID)
	p.DonorID = id.UserID(donorID)
	p.RegistrationID = id.DonationRegistrationID(regID)
	p.HealthCheckID = id.HealthCheckID(hcID)
	p.Status = models.ProcessStatus(status)
	if collectedAt.Valid {
		p.CollectedAt = collectedAt.Time
	}
	return &p, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
