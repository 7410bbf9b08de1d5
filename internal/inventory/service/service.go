// Package service implements the blood-unit lifecycle manager and the
// inventory threshold engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"bloodlink/internal/inventory/metrics"
	"bloodlink/internal/inventory/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	audit "bloodlink/pkg/platform/audit"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

// volumeEpsilon bounds float comparison when matching a collection batch
// against the process's recorded volume. Volumes are in whole-ish ml; a
// nanoliter-scale tolerance only absorbs float arithmetic noise.
const volumeEpsilon = 1e-6

// Service owns blood-unit lifecycle transitions and threshold recomputation.
type Service struct {
	units      UnitStore
	thresholds ThresholdStore
	reference  ReferenceStore
	donations  DonationReader
	logger     *slog.Logger
	metrics    *metrics.Metrics
	audit      AuditPublisher
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

// WithDonationReader wires the donation-side volume lookup used by
// RecordCollectionVolumes.
func WithDonationReader(r DonationReader) Option {
	return func(s *Service) { s.donations = r }
}

func New(units UnitStore, thresholds ThresholdStore, ref ReferenceStore, opts ...Option) (*Service, error) {
	if units == nil {
		return nil, fmt.Errorf("unit store is required")
	}
	if thresholds == nil {
		return nil, fmt.Errorf("threshold store is required")
	}
	if ref == nil {
		return nil, fmt.Errorf("reference store is required")
	}

	svc := &Service{
		units:      units,
		thresholds: thresholds,
		reference:  ref,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateUnitsForApprovedDonation materializes one Available unit per
// component for a donation process entering Approved. Volume starts at zero
// and expiry is fixed from the component's shelf life immediately; staff
// record collected volumes later. Idempotent: when units already exist
// for the process no new units are created and the existing batch is
// returned.
func (s *Service) CreateUnitsForApprovedDonation(ctx context.Context, processID id.DonationProcessID, groupID id.BloodGroupID, components []id.ComponentName, actor id.UserID) ([]*models.BloodUnit, error) {
	if len(components) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "no blood components to materialize")
	}

	now := requestcontext.Now(ctx)
	units := make([]*models.BloodUnit, 0, len(components))
	for _, name := range components {
		component, err := s.reference.ComponentByName(ctx, name)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve blood component")
		}
		units = append(units, models.NewUnit(
			id.BloodUnitID(uuid.New()), processID, groupID, component.ID, actor,
			now, now.Add(ShelfLife(name)),
		))
	}

	if err := s.units.CreateForProcess(ctx, processID, units); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Duplicate approval submission; return what exists.
			return s.units.FindByProcess(ctx, processID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create blood units")
	}

	if s.metrics != nil {
		for range units {
			s.metrics.UnitsCreated.Inc()
		}
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: now,
		ActorID:   actor,
		SubjectID: processID.String(),
		Action:    string(audit.EventUnitsMaterialized),
	})
	return units, nil
}

// CollectionUpdate is one per-unit correction within a collection batch.
type CollectionUpdate struct {
	UnitID      id.BloodUnitID
	VolumeML    float64
	Status      models.UnitStatus
	GroupID     id.BloodGroupID
	StorageTemp float64
	Note        string
}

// RecordCollectionVolumes applies a batch of per-unit volume/status
// corrections for a donation process. The declared volumes must sum exactly
// to the process's recorded collected volume; on mismatch the whole batch is
// rejected and nothing is written. Expiry is derived here, once, from the
// component's shelf life.
func (s *Service) RecordCollectionVolumes(ctx context.Context, processID id.DonationProcessID, updates []CollectionUpdate, actor id.UserID) error {
	if s.donations == nil {
		return dErrors.New(dErrors.CodeInternal, "donation reader not configured")
	}
	if len(updates) == 0 {
		return dErrors.New(dErrors.CodeValidation, "collection batch cannot be empty")
	}

	expected, err := s.donations.CollectedVolume(ctx, processID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "donation process not found")
		}
		// Reader errors already carry a domain code (a pending process is a
		// caller mistake, not an internal failure); pass them through so the
		// outermost code survives to the HTTP mapping.
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read collected volume")
	}

	var total float64
	for _, u := range updates {
		if u.VolumeML < 0 {
			return dErrors.New(dErrors.CodeValidation, "unit volume cannot be negative")
		}
		total += u.VolumeML
	}
	if math.Abs(total-expected) > volumeEpsilon {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("declared volume %.2f ml does not match collected volume %.2f ml", total, expected))
	}

	// Load and validate everything before the first write so a bad entry
	// rejects the batch without partial application.
	now := requestcontext.Now(ctx)
	staged := make([]*models.BloodUnit, 0, len(updates))
	for _, upd := range updates {
		unit, err := s.units.FindByID(ctx, upd.UnitID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeNotFound, "blood unit not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load blood unit")
		}
		if unit.ProcessID != processID {
			return dErrors.New(dErrors.CodeValidation, "unit does not belong to this donation process")
		}
		if err := unit.CanTransitionTo(upd.Status); err != nil {
			return err
		}

		component, err := s.reference.ComponentByID(ctx, unit.ComponentID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve blood component")
		}

		unit.VolumeML = upd.VolumeML
		if !upd.GroupID.IsNil() {
			unit.GroupID = upd.GroupID
		}
		unit.StorageTemp = upd.StorageTemp
		unit.Note = upd.Note
		unit.ExpiredAt = now.Add(ShelfLife(component.Name))
		unit.ApplyStatus(upd.Status, actor, now)
		staged = append(staged, unit)
	}

	for _, unit := range staged {
		if err := s.units.Update(ctx, unit); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update blood unit")
		}
	}

	if s.metrics != nil {
		s.metrics.CollectionsRecorded.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: now,
		ActorID:   actor,
		SubjectID: processID.String(),
		Action:    string(audit.EventUnitCollected),
	})
	return nil
}

// MarkExpired transitions every Available unit past its shelf life to
// Expired and returns how many were swept. One unit's failure must not abort
// the sweep for the rest; the predicate makes re-runs idempotent.
func (s *Service) MarkExpired(ctx context.Context, actor id.UserID) (int, error) {
	now := requestcontext.Now(ctx)
	candidates, err := s.units.ListExpiredCandidates(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expiry candidates")
	}

	swept := 0
	for _, unit := range candidates {
		unit.ApplyStatus(models.UnitStatusExpired, actor, now)
		if err := s.units.Update(ctx, unit); err != nil {
			s.logger.WarnContext(ctx, "expiry sweep: unit update failed",
				"unit_id", unit.ID,
				"error", err,
			)
			continue
		}
		swept++
		if s.metrics != nil {
			s.metrics.UnitsExpired.Inc()
		}
		s.emitAudit(ctx, audit.Event{
			Category:  audit.CategoryCompliance,
			Timestamp: now,
			ActorID:   actor,
			SubjectID: unit.ID.String(),
			Action:    string(audit.EventUnitExpired),
		})
	}
	return swept, nil
}

// FindAvailableByGroupAndComponents returns Available, non-expired units
// matching the filter. Empty filters match everything.
func (s *Service) FindAvailableByGroupAndComponents(ctx context.Context, groupIDs []id.BloodGroupID, componentIDs []id.BloodComponentID) ([]*models.BloodUnit, error) {
	units, err := s.units.ListAvailable(ctx, groupIDs, componentIDs, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list available units")
	}
	return units, nil
}

// GetUnit returns a unit by ID.
func (s *Service) GetUnit(ctx context.Context, unitID id.BloodUnitID) (*models.BloodUnit, error) {
	unit, err := s.units.FindByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "blood unit not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load blood unit")
	}
	return unit, nil
}

// UnitsForProcess lists the units materialized for a donation process.
func (s *Service) UnitsForProcess(ctx context.Context, processID id.DonationProcessID) ([]*models.BloodUnit, error) {
	units, err := s.units.FindByProcess(ctx, processID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list process units")
	}
	return units, nil
}

// MarkUsed consumes an Available unit for a request process.
func (s *Service) MarkUsed(ctx context.Context, unitID id.BloodUnitID, requestID id.RequestProcessID, actor id.UserID) (*models.BloodUnit, error) {
	unit, err := s.GetUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if err := unit.MarkUsed(requestID, actor, now); err != nil {
		return nil, err
	}
	if err := s.units.Update(ctx, unit); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update blood unit")
	}

	if s.metrics != nil {
		s.metrics.UnitsUsed.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: now,
		ActorID:   actor,
		SubjectID: unitID.String(),
		Action:    string(audit.EventUnitUsed),
	})
	return unit, nil
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
