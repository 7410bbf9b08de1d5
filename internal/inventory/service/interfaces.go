package service

import (
	"context"
	"time"

	"bloodlink/internal/inventory/models"
	"bloodlink/internal/reference"
	id "bloodlink/pkg/domain"
	audit "bloodlink/pkg/platform/audit"
)

// UnitStore persists blood units.
type UnitStore interface {
	// CreateForProcess atomically creates the materialization batch for one
	// donation process; fails with sentinel.ErrConflict when units already
	// exist for it.
	CreateForProcess(ctx context.Context, processID id.DonationProcessID, units []*models.BloodUnit) error
	FindByID(ctx context.Context, unitID id.BloodUnitID) (*models.BloodUnit, error)
	FindByProcess(ctx context.Context, processID id.DonationProcessID) ([]*models.BloodUnit, error)
	Update(ctx context.Context, unit *models.BloodUnit) error
	ListAvailable(ctx context.Context, groupIDs []id.BloodGroupID, componentIDs []id.BloodComponentID, now time.Time) ([]*models.BloodUnit, error)
	ListExpiredCandidates(ctx context.Context, now time.Time) ([]*models.BloodUnit, error)
	CountAvailableByPair(ctx context.Context) (map[models.Pair]models.PairCount, error)
}

// ThresholdStore persists inventory thresholds.
type ThresholdStore interface {
	Create(ctx context.Context, threshold *models.InventoryThreshold) error
	FindByID(ctx context.Context, thresholdID id.InventoryThresholdID) (*models.InventoryThreshold, error)
	FindByPair(ctx context.Context, pair models.Pair) (*models.InventoryThreshold, error)
	Update(ctx context.Context, threshold *models.InventoryThreshold) error
	List(ctx context.Context) ([]*models.InventoryThreshold, error)
}

// ReferenceStore resolves blood-group and blood-component reference data.
type ReferenceStore interface {
	GroupByID(ctx context.Context, groupID id.BloodGroupID) (*reference.BloodGroup, error)
	ComponentByID(ctx context.Context, componentID id.BloodComponentID) (*reference.BloodComponent, error)
	ComponentByName(ctx context.Context, name id.ComponentName) (*reference.BloodComponent, error)
	ListGroups(ctx context.Context) ([]*reference.BloodGroup, error)
	ListComponents(ctx context.Context) ([]*reference.BloodComponent, error)
}

// DonationReader exposes the one fact this module needs from the donation
// side: the volume recorded as collected for a process. Declared here so the
// dependency points outward, not into the donation package.
type DonationReader interface {
	CollectedVolume(ctx context.Context, processID id.DonationProcessID) (float64, error)
}

// AuditPublisher emits audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
