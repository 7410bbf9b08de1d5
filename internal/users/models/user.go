package models

import (
	"time"

	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// Geo is a donor's last known coordinates. Zero-valued Geo means the donor
// never shared a location and is invisible to proximity search.
type Geo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsSet reports whether the donor shared a location. The null island origin
// is treated as unset.
func (g Geo) IsSet() bool {
	return g.Latitude != 0 || g.Longitude != 0
}

// User is a platform account: a donor, staff member or admin.
//
// Invariants:
//   - Email is unique across accounts
//   - PasswordHash never leaves the store layer in API responses
//   - DonationCount only moves forward, incremented once per first-approved
//     donation process
type User struct {
	ID            id.UserID       `json:"id"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"-"`
	FullName      string          `json:"full_name"`
	Role          string          `json:"role"`
	GroupID       id.BloodGroupID `json:"blood_group_id"`
	WeightKG      float64         `json:"weight_kg"`
	Location      Geo             `json:"location"`
	Active        bool            `json:"active"`
	DonationCount int             `json:"donation_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CanDonate applies the donor-side eligibility gates used by proximity
// search: the account is active and the recorded weight clears the donation
// floor. Weight zero means never recorded, which also fails the gate.
func (u *User) CanDonate(minWeightKG float64) bool {
	return u.Active && u.WeightKG >= minWeightKG
}

// Validate checks the fields a registration must carry.
func (u *User) Validate() error {
	if u.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if u.GroupID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "blood group is required")
	}
	return nil
}
