package models

import (
	"time"

	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// MinDonationWeightKG is the floor below which a donor cannot give blood.
// Enforced at health-check time and again in the volume calculator.
const MinDonationWeightKG = 42.0

// HealthCheckStatus is the outcome of vitals screening.
type HealthCheckStatus string

const (
	HealthCheckStatusPending  HealthCheckStatus = "pending"
	HealthCheckStatusApproved HealthCheckStatus = "approved"
	HealthCheckStatusRejected HealthCheckStatus = "rejected"
)

var validHealthCheckStatuses = map[HealthCheckStatus]bool{
	HealthCheckStatusPending:  true,
	HealthCheckStatusApproved: true,
	HealthCheckStatusRejected: true,
}

// ParseHealthCheckStatus constructs a HealthCheckStatus from external input.
func ParseHealthCheckStatus(s string) (HealthCheckStatus, error) {
	st := HealthCheckStatus(s)
	if !validHealthCheckStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown health check status")
	}
	return st, nil
}

// BloodPressure is a systolic/diastolic pair in mmHg.
type BloodPressure struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

// Vitals are the measurements staff record during screening.
type Vitals struct {
	WeightKG      float64       `json:"weight_kg"`
	TemperatureC  float64       `json:"temperature_c"`
	HeartRateBPM  int           `json:"heart_rate_bpm"`
	BloodPressure BloodPressure `json:"blood_pressure"`
	HemoglobinGDL float64       `json:"hemoglobin_g_dl"`
}

// HealthCheck is the vitals/eligibility screening tied to either a donation
// registration or a request registration.
//
// Invariants:
//   - Exactly one of DonationRegID / RequestRegID is set (mutually exclusive
//     linkage), fixed at creation
//   - Status is Rejected whenever recorded weight is below
//     MinDonationWeightKG, regardless of the submitted status
//   - Exactly one health check exists per donation/request process
type HealthCheck struct {
	ID            id.HealthCheckID          `json:"id"`
	UserID        id.UserID                 `json:"user_id"`
	GroupID       id.BloodGroupID           `json:"blood_group_id"`
	DonationRegID id.DonationRegistrationID `json:"donation_registration_id,omitempty"`
	RequestRegID  id.RequestRegistrationID  `json:"request_registration_id,omitempty"`
	Vitals        Vitals                    `json:"vitals"`
	Conditions    []string                  `json:"underlying_conditions,omitempty"`
	Status        HealthCheckStatus         `json:"status"`
	Notes         string                    `json:"notes,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

// RecordVitals applies staff measurements and derives the effective status.
// A weight below the donation floor forces Rejected no matter what status
// the staff submitted.
func (h *HealthCheck) RecordVitals(v Vitals, conditions []string, submitted HealthCheckStatus, notes string, now time.Time) HealthCheckStatus {
	h.Vitals = v
	h.Conditions = conditions
	h.Notes = notes

	effective := submitted
	if v.WeightKG < MinDonationWeightKG {
		effective = HealthCheckStatusRejected
	}
	h.Status = effective
	h.UpdatedAt = now
	return effective
}

// LinkageValid checks the mutually-exclusive linkage invariant.
func (h *HealthCheck) LinkageValid() bool {
	return h.DonationRegID.IsNil() != h.RequestRegID.IsNil()
}
