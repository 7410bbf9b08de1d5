package unit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bloodlink/internal/inventory/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// Postgres persists blood units. The blood_units table carries a unique
// constraint on (donation_process_id, blood_component_id); CreateForProcess
// relies on it to reject duplicate materialization under concurrent approval
// submissions.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const unitColumns = `id, donation_process_id, request_process_id, blood_group_id,
	blood_component_id, status, volume_ml, expired_at, storage_temp_c, note,
	created_by, updated_by, created_at, updated_at`

func (s *Postgres) CreateForProcess(ctx context.Context, processID id.DonationProcessID, units []*models.BloodUnit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create units: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM blood_units WHERE donation_process_id = $1)`,
		uuid.UUID(processID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check existing units: %w", err)
	}
	if exists {
		return sentinel.ErrConflict
	}

	// A concurrent approval that slips past the existence check trips the
	// unique constraint on (donation_process_id, blood_component_id) below.

	for _, u := range units {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO blood_units (`+unitColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			uuid.UUID(u.ID), uuid.UUID(u.ProcessID), nullUUID(uuid.UUID(u.RequestID)),
			uuid.UUID(u.GroupID), uuid.UUID(u.ComponentID), string(u.Status),
			u.VolumeML, nullTime(u.ExpiredAt), u.StorageTemp, u.Note,
			uuid.UUID(u.CreatedBy), uuid.UUID(u.UpdatedBy), u.CreatedAt, u.UpdatedAt,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert blood unit: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Postgres) FindByID(ctx context.Context, unitID id.BloodUnitID) (*models.BloodUnit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+unitColumns+` FROM blood_units WHERE id = $1`, uuid.UUID(unitID))
	u, err := scanUnit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Postgres) FindByProcess(ctx context.Context, processID id.DonationProcessID) ([]*models.BloodUnit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+unitColumns+` FROM blood_units WHERE donation_process_id = $1`, uuid.UUID(processID))
	if err != nil {
		return nil, fmt.Errorf("find units by process: %w", err)
	}
	return collectUnits(rows)
}

func (s *Postgres) Update(ctx context.Context, u *models.BloodUnit) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE blood_units
		 SET request_process_id = $2, blood_group_id = $3, status = $4,
		     volume_ml = $5, expired_at = $6, storage_temp_c = $7, note = $8,
		     updated_by = $9, updated_at = $10
		 WHERE id = $1`,
		uuid.UUID(u.ID), nullUUID(uuid.UUID(u.RequestID)), uuid.UUID(u.GroupID),
		string(u.Status), u.VolumeML, nullTime(u.ExpiredAt), u.StorageTemp,
		u.Note, uuid.UUID(u.UpdatedBy), u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update blood unit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update blood unit: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListAvailable(ctx context.Context, groupIDs []id.BloodGroupID, componentIDs []id.BloodComponentID, now time.Time) ([]*models.BloodUnit, error) {
	groups := make([]uuid.UUID, len(groupIDs))
	for i, g := range groupIDs {
		groups[i] = uuid.UUID(g)
	}
	components := make([]uuid.UUID, len(componentIDs))
	for i, c := range componentIDs {
		components[i] = uuid.UUID(c)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+unitColumns+` FROM blood_units
		 WHERE status = $1
		   AND (expired_at IS NULL OR expired_at > $2)
		   AND (cardinality($3::uuid[]) = 0 OR blood_group_id = ANY($3))
		   AND (cardinality($4::uuid[]) = 0 OR blood_component_id = ANY($4))`,
		string(models.UnitStatusAvailable), now, pq.Array(groups), pq.Array(components),
	)
	if err != nil {
		return nil, fmt.Errorf("list available units: %w", err)
	}
	return collectUnits(rows)
}

func (s *Postgres) ListExpiredCandidates(ctx context.Context, now time.Time) ([]*models.BloodUnit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+unitColumns+` FROM blood_units
		 WHERE status = $1 AND expired_at IS NOT NULL AND expired_at <= $2`,
		string(models.UnitStatusAvailable), now,
	)
	if err != nil {
		return nil, fmt.Errorf("list expired candidates: %w", err)
	}
	return collectUnits(rows)
}

func (s *Postgres) CountAvailableByPair(ctx context.Context) (map[models.Pair]models.PairCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT blood_group_id, blood_component_id, COUNT(*), COALESCE(SUM(volume_ml), 0)
		 FROM blood_units
		 WHERE status = $1
		 GROUP BY blood_group_id, blood_component_id`,
		string(models.UnitStatusAvailable),
	)
	if err != nil {
		return nil, fmt.Errorf("count available by pair: %w", err)
	}
	defer rows.Close()

	out := make(map[models.Pair]models.PairCount)
	for rows.Next() {
		var (
			groupID     uuid.UUID
			componentID uuid.UUID
			pc          models.PairCount
		)
		if err := rows.Scan(&groupID, &componentID, &pc.UnitCount, &pc.TotalVolumeML); err != nil {
			return nil, fmt.Errorf("scan pair count: %w", err)
		}
		out[models.Pair{
			GroupID:     id.BloodGroupID(groupID),
			ComponentID: id.BloodComponentID(componentID),
		}] = pc
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanUnit(row scannable) (*models.BloodUnit, error) {
	var (
		u         models.BloodUnit
		unitID    uuid.UUID
		process   uuid.UUID
		request   uuid.NullUUID
		group     uuid.UUID
		component uuid.UUID
		status    string
		expiredAt sql.NullTime
		createdBy uuid.UUID
		updatedBy uuid.UUID
	)
	err := row.Scan(&unitID, &process, &request, &group, &component, &status,
		&u.VolumeML, &expiredAt, &u.StorageTemp, &u.Note,
		&createdBy, &updatedBy, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.CreatedBy = id.UserID(createdBy)
	u.UpdatedBy = id.UserID(updatedBy)
	u.ID = id.BloodUnitID(unitID)
	u.ProcessID = id.DonationProcessID(process)
	if request.Valid {
		u.RequestID = id.RequestProcessID(request.UUID)
	}
	u.GroupID = id.BloodGroupID(group)
	u.ComponentID = id.BloodComponentID(component)
	u.Status = models.UnitStatus(status)
	if expiredAt.Valid {
		u.ExpiredAt = expiredAt.Time
	}
	return &u, nil
}

func collectUnits(rows *sql.Rows) ([]*models.BloodUnit, error) {
	defer rows.Close()

	var out []*models.BloodUnit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blood unit: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
