package audit

import (
	"context"
	"time"

	id "bloodlink/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance in a
	// blood-banking context: screening rejections, unit materialization,
	// unit disposition. These require long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational
	// visibility: threshold changes, sweeps, searches.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// ActorID is the verified staff or donor performing the action.
	ActorID id.UserID
	// SubjectID identifies the affected record (registration, process, unit).
	SubjectID string
	Action    string
	Reason    string
	RequestID string
}

// AuditEvent names the actions this core records.
type AuditEvent string

const (
	// Donation pipeline events
	EventDonationRegistered       AuditEvent = "donation_registered"
	EventDonationScreeningFailed  AuditEvent = "donation_screening_failed"
	EventHealthCheckRecorded      AuditEvent = "health_check_recorded"
	EventDonationProcessApproved  AuditEvent = "donation_process_approved"
	EventDonationProcessRejected  AuditEvent = "donation_process_rejected"

	// Inventory events
	EventUnitsMaterialized AuditEvent = "blood_units_materialized"
	EventUnitCollected     AuditEvent = "blood_unit_collected"
	EventUnitExpired       AuditEvent = "blood_unit_expired"
	EventUnitUsed          AuditEvent = "blood_unit_used"
	EventThresholdUpdated  AuditEvent = "inventory_threshold_updated"

	// Locator events
	EventDonorSearch AuditEvent = "compatible_donor_search"
)

// Store persists audit events. Implementations must preserve insertion order
// per actor.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context, actorID id.UserID) ([]Event, error)
}
