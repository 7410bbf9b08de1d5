package models

import (
	"time"

	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// ProcessStatus is the lifecycle state of a donation process.
type ProcessStatus string

const (
	ProcessStatusPending  ProcessStatus = "pending"
	ProcessStatusApproved ProcessStatus = "approved"
	ProcessStatusRejected ProcessStatus = "rejected"
)

var validProcessStatuses = map[ProcessStatus]bool{
	ProcessStatusPending:  true,
	ProcessStatusApproved: true,
	ProcessStatusRejected: true,
}

// ParseProcessStatus constructs a ProcessStatus from external input.
func ParseProcessStatus(s string) (ProcessStatus, error) {
	st := ProcessStatus(s)
	if !validProcessStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown process status")
	}
	return st, nil
}

// DonationProcess is the operational record of collecting blood from a donor
// on a given date.
//
// Invariants:
//   - Status cannot become Approved while the linked health check is Pending
//     or Rejected
//   - The first transition into Approved is a one-time trigger: it creates
//     exactly one blood unit per component named by the health check and
//     increments the donor's lifetime donation counter exactly once
type DonationProcess struct {
	ID                id.DonationProcessID      `json:"id"`
	DonorID           id.UserID                 `json:"donor_id"`
	RegistrationID    id.DonationRegistrationID `json:"donation_registration_id"`
	HealthCheckID     id.HealthCheckID          `json:"health_check_id"`
	VolumeCollectedML float64                   `json:"volume_collected_ml"`
	Status            ProcessStatus             `json:"status"`
	CollectedAt       time.Time                 `json:"collected_at,omitempty"`
	Description       string                    `json:"description,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// CanApprove checks the approval gate against the linked health check.
func (p *DonationProcess) CanApprove(healthCheckStatus HealthCheckStatus) error {
	if healthCheckStatus != HealthCheckStatusApproved {
		return dErrors.New(dErrors.CodeValidation,
			"donation process cannot be approved while its health check is not approved")
	}
	return nil
}

// ApplyStatus transitions the process, stamping the time.
func (p *DonationProcess) ApplyStatus(next ProcessStatus, now time.Time) {
	p.Status = next
	p.UpdatedAt = now
}
