package service

import (
	"context"

	"bloodlink/internal/donation/models"
	invmodels "bloodlink/internal/inventory/models"
	"bloodlink/internal/reference"
	id "bloodlink/pkg/domain"
	audit "bloodlink/pkg/platform/audit"
)

// RegistrationStore persists donation registrations.
type RegistrationStore interface {
	Create(ctx context.Context, r *models.DonationRegistration) error
	FindByID(ctx context.Context, regID id.DonationRegistrationID) (*models.DonationRegistration, error)
	Update(ctx context.Context, r *models.DonationRegistration) error
	ListByDonor(ctx context.Context, donorID id.UserID) ([]*models.DonationRegistration, error)
}

// HealthCheckStore persists health checks, at most one per registration.
type HealthCheckStore interface {
	Create(ctx context.Context, h *models.HealthCheck) error
	FindByID(ctx context.Context, hcID id.HealthCheckID) (*models.HealthCheck, error)
	Update(ctx context.Context, h *models.HealthCheck) error
}

// ProcessStore persists donation processes.
type ProcessStore interface {
	Create(ctx context.Context, p *models.DonationProcess) error
	FindByID(ctx context.Context, procID id.DonationProcessID) (*models.DonationProcess, error)
	FindByRegistration(ctx context.Context, regID id.DonationRegistrationID) (*models.DonationProcess, error)
	Update(ctx context.Context, p *models.DonationProcess) error
	ListByDonor(ctx context.Context, donorID id.UserID) ([]*models.DonationProcess, error)
}

// ReferenceStore resolves blood-group reference data.
type ReferenceStore interface {
	GroupByID(ctx context.Context, groupID id.BloodGroupID) (*reference.BloodGroup, error)
}

// UnitCreator materializes blood units when a donation process is approved.
// Satisfied by the inventory service.
type UnitCreator interface {
	CreateUnitsForApprovedDonation(ctx context.Context, processID id.DonationProcessID, groupID id.BloodGroupID, components []id.ComponentName, actor id.UserID) ([]*invmodels.BloodUnit, error)
}

// DonorCounter increments a donor's lifetime donation count. Satisfied by the
// users service.
type DonorCounter interface {
	IncrementDonationCount(ctx context.Context, donorID id.UserID) error
}

// AuditPublisher emits audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
