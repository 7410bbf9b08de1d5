package healthcheck

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

// Postgres persists health checks. Vitals and condition flags are stored as
// jsonb; a unique index on donation_registration_id enforces one check per
// donation.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const hcColumns = `id, user_id, blood_group_id, donation_registration_id,
	request_registration_id, vitals, conditions, status, notes, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, h *models.HealthCheck) error {
	vitals, err := json.Marshal(h.Vitals)
	if err != nil {
		return fmt.Errorf("marshal vitals: %w", err)
	}
	conditions, err := json.Marshal(h.Conditions)
	if err != nil {
		return fmt.Errorf("marshal conditions: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO health_checks (`+hcColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(h.ID), uuid.UUID(h.UserID), uuid.UUID(h.GroupID),
		nullUUID(uuid.UUID(h.DonationRegID)), nullUUID(uuid.UUID(h.RequestRegID)),
		vitals, conditions, string(h.Status), h.Notes, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert health check: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, hcID id.HealthCheckID) (*models.HealthCheck, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+hcColumns+` FROM health_checks WHERE id = $1`, uuid.UUID(hcID))
	h, err := scanHealthCheck(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

func (s *Postgres) Update(ctx context.Context, h *models.HealthCheck) error {
	vitals, err := json.Marshal(h.Vitals)
	if err != nil {
		return fmt.Errorf("marshal vitals: %w", err)
	}
	conditions, err := json.Marshal(h.Conditions)
	if err != nil {
		return fmt.Errorf("marshal conditions: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE health_checks
		 SET blood_group_id = $2, vitals = $3, conditions = $4, status = $5,
		     notes = $6, updated_at = $7
		 WHERE id = $1`,
		uuid.UUID(h.ID), uuid.UUID(h.GroupID), vitals, conditions,
		string(h.Status), h.Notes, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update health check: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update health check: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanHealthCheck(row *sql.Row) (*models.HealthCheck, error) {
	var (
		h          models.HealthCheck
		hcID       uuid.UUID
		userID     uuid.UUID
		groupID    uuid.UUID
		donRegID   uuid.NullUUID
		reqRegID   uuid.NullUUID
		vitals     []byte
		conditions []byte
		status     string
	)
	err := row.Scan(&hcID, &userID, &groupID, &donRegID, &reqRegID,
		&vitals, &conditions, &status, &h.Notes, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan health check: %w", err)
	}

	h.ID = id.HealthCheckID(hcID)
	h.UserID = id.UserID(userID)
	h.GroupID = id.BloodGroupID(groupID)
	if donRegID.Valid {
		h.DonationRegID = id.DonationRegistrationID(donRegID.UUID)
	}
	if reqRegID.Valid {
		h.RequestRegID = id.RequestRegistrationID(reqRegID.UUID)
	}
	if err := json.Unmarshal(vitals, &h.Vitals); err != nil {
		return nil, fmt.Errorf("unmarshal vitals: %w", err)
	}
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &h.Conditions); err != nil {
			return nil, fmt.Errorf("unmarshal conditions: %w", err)
		}
	}
	h.Status = models.HealthCheckStatus(status)
	return &h, nil
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
