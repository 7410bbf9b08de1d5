package models

import (
	"time"

	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// UnitStatus is the lifecycle state of a blood unit.
type UnitStatus string

const (
	UnitStatusAvailable UnitStatus = "available"
	UnitStatusUsed      UnitStatus = "used"
	UnitStatusExpired   UnitStatus = "expired"
	UnitStatusDamaged   UnitStatus = "damaged"
)

var validUnitStatuses = map[UnitStatus]bool{
	UnitStatusAvailable: true,
	UnitStatusUsed:      true,
	UnitStatusExpired:   true,
	UnitStatusDamaged:   true,
}

// ParseUnitStatus constructs a UnitStatus from external input.
func ParseUnitStatus(s string) (UnitStatus, error) {
	st := UnitStatus(s)
	if !validUnitStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown unit status")
	}
	return st, nil
}

// IsTerminal reports whether the status admits no further transitions.
// Available is the only non-terminal state.
func (s UnitStatus) IsTerminal() bool {
	return s != UnitStatusAvailable
}

// BloodUnit is one physical bag of a single blood component from one
// donation.
//
// Invariants:
//   - Status transitions are one-directional: Used/Expired/Damaged are
//     terminal, Available is the only state a unit can leave
//   - ExpiredAt is derived from the component's shelf life when the unit is
//     created; recording a collection re-derives it from the same policy
//   - Volume is non-negative
//
// Lifecycle: created only when a donation process first reaches Approved,
// one unit per qualifying component; mutated by staff corrections or the
// expiry sweep; never deleted.
type BloodUnit struct {
	ID          id.BloodUnitID       `json:"id"`
	ProcessID   id.DonationProcessID `json:"donation_process_id"`
	RequestID   id.RequestProcessID  `json:"request_process_id,omitempty"`
	GroupID     id.BloodGroupID      `json:"blood_group_id"`
	ComponentID id.BloodComponentID  `json:"blood_component_id"`
	Status      UnitStatus           `json:"status"`
	VolumeML    float64              `json:"volume_ml"`
	ExpiredAt   time.Time            `json:"expired_at"`
	StorageTemp float64              `json:"storage_temp_c"`
	Note        string               `json:"note,omitempty"`
	CreatedBy   id.UserID            `json:"created_by"`
	UpdatedBy   id.UserID            `json:"updated_by"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewUnit materializes a unit for a donation process entering Approved.
// Volume starts at zero; staff record the collected volume later. Expiry is
// fixed from the component's shelf life at creation so an uncorrected unit
// still ages out of inventory.
func NewUnit(unitID id.BloodUnitID, processID id.DonationProcessID, groupID id.BloodGroupID, componentID id.BloodComponentID, actor id.UserID, now, expiresAt time.Time) *BloodUnit {
	return &BloodUnit{
		ID:          unitID,
		ProcessID:   processID,
		GroupID:     groupID,
		ComponentID: componentID,
		Status:      UnitStatusAvailable,
		VolumeML:    0,
		ExpiredAt:   expiresAt,
		CreatedBy:   actor,
		UpdatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CanTransitionTo checks the one-way lifecycle rule.
func (u *BloodUnit) CanTransitionTo(next UnitStatus) error {
	if u.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeValidation, "unit is in a terminal state")
	}
	if !validUnitStatuses[next] {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown unit status")
	}
	return nil
}

// ApplyStatus transitions the unit, stamping the actor and time.
// Call CanTransitionTo first.
func (u *BloodUnit) ApplyStatus(next UnitStatus, actor id.UserID, now time.Time) {
	u.Status = next
	u.UpdatedBy = actor
	u.UpdatedAt = now
}

// MarkUsed consumes the unit for a request process. Expired stock cannot be
// consumed even before the sweep has flipped its status.
func (u *BloodUnit) MarkUsed(requestID id.RequestProcessID, actor id.UserID, now time.Time) error {
	if err := u.CanTransitionTo(UnitStatusUsed); err != nil {
		return err
	}
	if u.IsExpiredAt(now) {
		return dErrors.New(dErrors.CodeValidation, "unit is past its shelf life")
	}
	u.RequestID = requestID
	u.ApplyStatus(UnitStatusUsed, actor, now)
	return nil
}

// IsExpiredAt reports whether the unit's shelf life has elapsed.
func (u *BloodUnit) IsExpiredAt(now time.Time) bool {
	return !u.ExpiredAt.IsZero() && !u.ExpiredAt.After(now)
}
