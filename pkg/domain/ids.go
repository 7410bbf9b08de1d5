// Package domain holds identifier newtypes and domain primitives shared across
// modules. IDs are distinct types over uuid.UUID so the compiler rejects
// cross-entity assignment; construct from external input via the Parse helpers
// at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "bloodlink/pkg/domain-errors"
)

// Typed identifiers for every persisted entity.
type (
	UserID                 uuid.UUID
	BloodGroupID           uuid.UUID
	BloodComponentID       uuid.UUID
	BloodUnitID            uuid.UUID
	DonationRegistrationID uuid.UUID
	DonationProcessID      uuid.UUID
	HealthCheckID          uuid.UUID
	RequestRegistrationID  uuid.UUID
	RequestProcessID       uuid.UUID
	InventoryThresholdID   uuid.UUID
)

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

func ParseBloodGroupID(s string) (BloodGroupID, error) {
	u, err := parseUUID(s)
	return BloodGroupID(u), err
}

func ParseBloodComponentID(s string) (BloodComponentID, error) {
	u, err := parseUUID(s)
	return BloodComponentID(u), err
}

func ParseBloodUnitID(s string) (BloodUnitID, error) {
	u, err := parseUUID(s)
	return BloodUnitID(u), err
}

func ParseDonationRegistrationID(s string) (DonationRegistrationID, error) {
	u, err := parseUUID(s)
	return DonationRegistrationID(u), err
}

func ParseDonationProcessID(s string) (DonationProcessID, error) {
	u, err := parseUUID(s)
	return DonationProcessID(u), err
}

func ParseHealthCheckID(s string) (HealthCheckID, error) {
	u, err := parseUUID(s)
	return HealthCheckID(u), err
}

func ParseRequestRegistrationID(s string) (RequestRegistrationID, error) {
	u, err := parseUUID(s)
	return RequestRegistrationID(u), err
}

func ParseRequestProcessID(s string) (RequestProcessID, error) {
	u, err := parseUUID(s)
	return RequestProcessID(u), err
}

func ParseInventoryThresholdID(s string) (InventoryThresholdID, error) {
	u, err := parseUUID(s)
	return InventoryThresholdID(u), err
}

func (id UserID) String() string                 { return uuid.UUID(id).String() }
func (id BloodGroupID) String() string           { return uuid.UUID(id).String() }
func (id BloodComponentID) String() string       { return uuid.UUID(id).String() }
func (id BloodUnitID) String() string            { return uuid.UUID(id).String() }
func (id DonationRegistrationID) String() string { return uuid.UUID(id).String() }
func (id DonationProcessID) String() string      { return uuid.UUID(id).String() }
func (id HealthCheckID) String() string          { return uuid.UUID(id).String() }
func (id RequestRegistrationID) String() string  { return uuid.UUID(id).String() }
func (id RequestProcessID) String() string       { return uuid.UUID(id).String() }
func (id InventoryThresholdID) String() string   { return uuid.UUID(id).String() }

// IDs cross the wire as canonical UUID strings. encoding/json picks these up
// so request bodies and responses never see the raw byte array form.
func (id UserID) MarshalText() ([]byte, error)                 { return []byte(id.String()), nil }
func (id BloodGroupID) MarshalText() ([]byte, error)           { return []byte(id.String()), nil }
func (id BloodComponentID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id BloodUnitID) MarshalText() ([]byte, error)            { return []byte(id.String()), nil }
func (id DonationRegistrationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id DonationProcessID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id HealthCheckID) MarshalText() ([]byte, error)          { return []byte(id.String()), nil }
func (id RequestRegistrationID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id RequestProcessID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id InventoryThresholdID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = UserID(u)
	return err
}

func (id *BloodGroupID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = BloodGroupID(u)
	return err
}

func (id *BloodComponentID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = BloodComponentID(u)
	return err
}

func (id *BloodUnitID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = BloodUnitID(u)
	return err
}

func (id *DonationRegistrationID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = DonationRegistrationID(u)
	return err
}

func (id *DonationProcessID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = DonationProcessID(u)
	return err
}

func (id *HealthCheckID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = HealthCheckID(u)
	return err
}

func (id *RequestRegistrationID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = RequestRegistrationID(u)
	return err
}

func (id *RequestProcessID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = RequestProcessID(u)
	return err
}

func (id *InventoryThresholdID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	*id = InventoryThresholdID(u)
	return err
}

func (id UserID) IsNil() bool                 { return uuid.UUID(id) == uuid.Nil }
func (id BloodGroupID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id BloodComponentID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id BloodUnitID) IsNil() bool            { return uuid.UUID(id) == uuid.Nil }
func (id DonationRegistrationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DonationProcessID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id HealthCheckID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id RequestRegistrationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id RequestProcessID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id InventoryThresholdID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
