package models

import (
	"time"

	id "bloodlink/pkg/domain"
)

// InventoryThreshold tracks stock stability for one (blood group, component)
// pair.
//
// Invariants:
//   - The (GroupID, ComponentID) pair is unique across records
//   - IsStable is always derived: current unit count strictly greater than
//     the configured StableUnitCount (equality does not count as stable)
//
// Lifecycle: lazily created the first time inventory is queried for an
// untracked pair, seeded with the observed counts and stable; recomputed on
// every snapshot and on every configuration change; never deleted.
type InventoryThreshold struct {
	ID              id.InventoryThresholdID `json:"id"`
	GroupID         id.BloodGroupID         `json:"blood_group_id"`
	ComponentID     id.BloodComponentID     `json:"blood_component_id"`
	StableUnitCount int                     `json:"threshold_unit_stable"`
	UnitCount       int                     `json:"unit_count"`
	TotalVolumeML   float64                 `json:"total_volume_ml"`
	IsStable        bool                    `json:"is_stable"`
	UpdatedBy       id.UserID               `json:"updated_by"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// Recompute refreshes the live counts and re-derives stability.
// Strict greater-than: a pair sitting exactly at its threshold is flagged.
func (t *InventoryThreshold) Recompute(unitCount int, totalVolumeML float64, actor id.UserID, now time.Time) {
	t.UnitCount = unitCount
	t.TotalVolumeML = totalVolumeML
	t.IsStable = unitCount > t.StableUnitCount
	t.UpdatedBy = actor
	t.UpdatedAt = now
}
