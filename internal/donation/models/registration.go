package models

import (
	"time"

	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// RegistrationStatus is the lifecycle state of a donation registration.
type RegistrationStatus string

const (
	RegistrationStatusPending   RegistrationStatus = "pending"
	RegistrationStatusApproved  RegistrationStatus = "approved"
	RegistrationStatusRejected  RegistrationStatus = "rejected"
	RegistrationStatusCheckedIn RegistrationStatus = "checked_in"
)

var validRegistrationStatuses = map[RegistrationStatus]bool{
	RegistrationStatusPending:   true,
	RegistrationStatusApproved:  true,
	RegistrationStatusRejected:  true,
	RegistrationStatusCheckedIn: true,
}

// ParseRegistrationStatus constructs a RegistrationStatus from external input.
func ParseRegistrationStatus(s string) (RegistrationStatus, error) {
	st := RegistrationStatus(s)
	if !validRegistrationStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown registration status")
	}
	return st, nil
}

// ScreeningAnswer is one questionnaire response. A true answer disqualifies
// the donation.
type ScreeningAnswer struct {
	Question     string `json:"question"`
	Disqualifies bool   `json:"answer"`
}

// DonationRegistration is a donor's scheduled donation attempt.
//
// Invariants:
//   - HealthCheckID and ProcessID are allocated before the first write so
//     all three aggregate documents cross-reference each other from creation
//   - A disqualifying screening answer puts the registration (and its health
//     check and process) in Rejected at creation; the record persists for
//     audit but the creating call reports the rejection
//   - Once Rejected, no further field updates are accepted
type DonationRegistration struct {
	ID            id.DonationRegistrationID `json:"id"`
	DonorID       id.UserID                 `json:"donor_id"`
	HealthCheckID id.HealthCheckID          `json:"health_check_id"`
	ProcessID     id.DonationProcessID      `json:"donation_process_id"`
	GroupID       id.BloodGroupID           `json:"blood_group_id"`
	DonationType  id.DonationType           `json:"donation_type"`
	Components    []id.ComponentName        `json:"blood_components"`
	Status        RegistrationStatus        `json:"status"`
	ScheduledAt   time.Time                 `json:"scheduled_at"`
	Screening     []ScreeningAnswer         `json:"screening"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

// ScreeningDisqualifies reports whether any questionnaire answer gates the
// donation.
func (r *DonationRegistration) ScreeningDisqualifies() bool {
	for _, a := range r.Screening {
		if a.Disqualifies {
			return true
		}
	}
	return false
}

// IsLocked reports whether the registration accepts further updates.
func (r *DonationRegistration) IsLocked() bool {
	return r.Status == RegistrationStatusRejected
}

// CanUpdate checks the rejected-lock rule.
func (r *DonationRegistration) CanUpdate() error {
	if r.IsLocked() {
		return dErrors.New(dErrors.CodeValidation, "registration is rejected and locked")
	}
	return nil
}

// ApplyStatus transitions the registration, stamping the time.
// Call CanUpdate first.
func (r *DonationRegistration) ApplyStatus(next RegistrationStatus, now time.Time) {
	r.Status = next
	r.UpdatedAt = now
}
