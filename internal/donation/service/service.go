// Package service implements the donation eligibility pipeline: registration
// screening, health-check vitals recording, and the donation process state
// machine that feeds approved collections into the inventory.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bloodlink/internal/donation/metrics"
	"bloodlink/internal/donation/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	audit "bloodlink/pkg/platform/audit"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

// Service owns the donation aggregate: registration, health check and
// process, kept cross-referenced from the moment of creation.
type Service struct {
	registrations RegistrationStore
	healthChecks  HealthCheckStore
	processes     ProcessStore
	reference     ReferenceStore
	units         UnitCreator
	donors        DonorCounter
	logger        *slog.Logger
	metrics       *metrics.Metrics
	audit         AuditPublisher
}

// Option configures the service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithUnitCreator wires the inventory side that materializes blood units on
// the first approval of a process.
func WithUnitCreator(c UnitCreator) Option {
	return func(s *Service) { s.units = c }
}

// WithDonorCounter wires the users side that tracks lifetime donations.
func WithDonorCounter(c DonorCounter) Option {
	return func(s *Service) { s.donors = c }
}

func New(registrations RegistrationStore, healthChecks HealthCheckStore, processes ProcessStore, ref ReferenceStore, opts ...Option) (*Service, error) {
	if registrations == nil {
		return nil, fmt.Errorf("registration store is required")
	}
	if healthChecks == nil {
		return nil, fmt.Errorf("health check store is required")
	}
	if processes == nil {
		return nil, fmt.Errorf("process store is required")
	}
	if ref == nil {
		return nil, fmt.Errorf("reference store is required")
	}

	svc := &Service{
		registrations: registrations,
		healthChecks:  healthChecks,
		processes:     processes,
		reference:     ref,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RegistrationInput carries the donor's submission.
type RegistrationInput struct {
	DonorID      id.UserID
	GroupID      id.BloodGroupID
	DonationType id.DonationType
	ScheduledAt  time.Time
	Screening    []models.ScreeningAnswer
}

// RegistrationBundle is the three documents the pipeline creates together.
type RegistrationBundle struct {
	Registration *models.DonationRegistration `json:"registration"`
	HealthCheck  *models.HealthCheck          `json:"health_check"`
	Process      *models.DonationProcess      `json:"donation_process"`
}

// CreateRegistration creates the registration together with its pre-allocated
// health check and donation process, so all three cross-reference each other
// from the first write.
//
// A disqualifying screening answer still persists all three records, in
// Rejected, for the audit trail; the returned error carries
// CodeEligibilityRejected and the bundle holds the created IDs so callers can
// surface them.
func (s *Service) CreateRegistration(ctx context.Context, in RegistrationInput) (*RegistrationBundle, error) {
	group, err := s.reference.GroupByID(ctx, in.GroupID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "blood group not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve blood group")
	}
	components := in.DonationType.Components()
	if len(components) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown donation type")
	}

	now := requestcontext.Now(ctx)
	reg := &models.DonationRegistration{
		ID:            id.DonationRegistrationID(uuid.New()),
		DonorID:       in.DonorID,
		HealthCheckID: id.HealthCheckID(uuid.New()),
		ProcessID:     id.DonationProcessID(uuid.New()),
		GroupID:       group.ID,
		DonationType:  in.DonationType,
		Components:    components,
		Status:        models.RegistrationStatusApproved,
		ScheduledAt:   in.ScheduledAt,
		Screening:     in.Screening,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	hc := &models.HealthCheck{
		ID:            reg.HealthCheckID,
		UserID:        in.DonorID,
		GroupID:       group.ID,
		DonationRegID: reg.ID,
		Status:        models.HealthCheckStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	proc := &models.DonationProcess{
		ID:             reg.ProcessID,
		DonorID:        in.DonorID,
		RegistrationID: reg.ID,
		HealthCheckID:  reg.HealthCheckID,
		Status:         models.ProcessStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	rejected := reg.ScreeningDisqualifies()
	if rejected {
		reg.Status = models.RegistrationStatusRejected
		hc.Status = models.HealthCheckStatusRejected
		proc.Status = models.ProcessStatusRejected
	}

	if err := s.registrations.Create(ctx, reg); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "registration already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registration")
	}
	if err := s.healthChecks.Create(ctx, hc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create health check")
	}
	if err := s.processes.Create(ctx, proc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create donation process")
	}

	bundle := &RegistrationBundle{Registration: reg, HealthCheck: hc, Process: proc}
	if rejected {
		if s.metrics != nil {
			s.metrics.ScreeningRejections.Inc()
		}
		s.emitAudit(ctx, audit.Event{
			Category:  audit.CategoryCompliance,
			Timestamp: now,
			ActorID:   in.DonorID,
			SubjectID: reg.ID.String(),
			Action:    string(audit.EventDonationScreeningFailed),
			Reason:    "disqualifying screening answer",
		})
		return bundle, dErrors.New(dErrors.CodeEligibilityRejected,
			"screening answers disqualify this donation")
	}

	if s.metrics != nil {
		s.metrics.RegistrationsCreated.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Timestamp: now,
		ActorID:   in.DonorID,
		SubjectID: reg.ID.String(),
		Action:    string(audit.EventDonationRegistered),
	})
	return bundle, nil
}

// GetRegistration returns a registration by ID.
func (s *Service) GetRegistration(ctx context.Context, regID id.DonationRegistrationID) (*models.DonationRegistration, error) {
	reg, err := s.registrations.FindByID(ctx, regID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	return reg, nil
}

// ListRegistrationsByDonor lists a donor's registrations.
func (s *Service) ListRegistrationsByDonor(ctx context.Context, donorID id.UserID) ([]*models.DonationRegistration, error) {
	regs, err := s.registrations.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return regs, nil
}

// RescheduleRegistration moves a registration's scheduled date. Rejected
// registrations are locked and refuse the update.
func (s *Service) RescheduleRegistration(ctx context.Context, regID id.DonationRegistrationID, scheduledAt time.Time) (*models.DonationRegistration, error) {
	reg, err := s.GetRegistration(ctx, regID)
	if err != nil {
		return nil, err
	}
	if err := reg.CanUpdate(); err != nil {
		return nil, err
	}

	reg.ScheduledAt = scheduledAt
	reg.UpdatedAt = requestcontext.Now(ctx)
	if err := s.registrations.Update(ctx, reg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration")
	}
	return reg, nil
}

// GetHealthCheck returns a health check by ID.
func (s *Service) GetHealthCheck(ctx context.Context, hcID id.HealthCheckID) (*models.HealthCheck, error) {
	hc, err := s.healthChecks.FindByID(ctx, hcID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "health check not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load health check")
	}
	return hc, nil
}

// GetProcess returns a donation process by ID.
func (s *Service) GetProcess(ctx context.Context, procID id.DonationProcessID) (*models.DonationProcess, error) {
	proc, err := s.processes.FindByID(ctx, procID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "donation process not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation process")
	}
	return proc, nil
}

// ListProcessesByDonor lists a donor's donation processes.
func (s *Service) ListProcessesByDonor(ctx context.Context, donorID id.UserID) ([]*models.DonationProcess, error) {
	procs, err := s.processes.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donation processes")
	}
	return procs, nil
}

// CollectedVolume reports the volume recorded for an approved process. The
// inventory module reads this when staff record per-unit volumes.
func (s *Service) CollectedVolume(ctx context.Context, processID id.DonationProcessID) (float64, error) {
	proc, err := s.processes.FindByID(ctx, processID)
	if err != nil {
		return 0, err
	}
	if proc.Status != models.ProcessStatusApproved {
		return 0, dErrors.New(dErrors.CodeValidation, "donation process has no collected volume yet")
	}
	return proc.VolumeCollectedML, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
