package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bloodlink/internal/users/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// Postgres persists users. A unique index on lower(email) backs the
// one-account-per-email rule.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const userColumns = `id, email, password_hash, full_name, role, blood_group_id,
	weight_kg, latitude, longitude, active, donation_count, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.UUID(u.ID), u.Email, u.PasswordHash, u.FullName, u.Role,
		uuid.UUID(u.GroupID), u.WeightKG, u.Location.Latitude, u.Location.Longitude,
		u.Active, u.DonationCount, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID))
	return scanUser(row)
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (s *Postgres) Update(ctx context.Context, u *models.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users
		 SET email = $2, password_hash = $3, full_name = $4, role = $5,
		     blood_group_id = $6, weight_kg = $7, latitude = $8, longitude = $9,
		     active = $10, donation_count = $11, updated_at = $12
		 WHERE id = $1`,
		uuid.UUID(u.ID), u.Email, u.PasswordHash, u.FullName, u.Role,
		uuid.UUID(u.GroupID), u.WeightKG, u.Location.Latitude, u.Location.Longitude,
		u.Active, u.DonationCount, u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListActiveByGroups(ctx context.Context, groupIDs []id.BloodGroupID) ([]*models.User, error) {
	ids := make([]uuid.UUID, len(groupIDs))
	for i, g := range groupIDs {
		ids[i] = uuid.UUID(g)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE active AND blood_group_id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list active users by group: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanUser(row scannable) (*models.User, error) {
	var (
		u       models.User
		userID  uuid.UUID
		groupID uuid.UUID
	)
	err := row.Scan(&userID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role,
		&groupID, &u.WeightKG, &u.Location.Latitude, &u.Location.Longitude,
		&u.Active, &u.DonationCount, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.ID = id.UserID(userID)
	u.GroupID = id.BloodGroupID(groupID)
	return &u, nil
}
