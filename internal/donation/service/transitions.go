package service

import (
	"context"
	"errors"
	"time"

	"bloodlink/internal/donation/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	audit "bloodlink/pkg/platform/audit"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

// HealthCheckInput carries staff measurements for one screening.
type HealthCheckInput struct {
	Vitals     models.Vitals
	Conditions []string
	Status     models.HealthCheckStatus
	Notes      string
}

// RecordHealthCheck applies staff vitals to a pending health check and
// cascades the outcome across the aggregate in one place:
//
//   - weight below the donation floor forces the check to Rejected no matter
//     what status the staff submitted
//   - a Rejected check rejects the linked process and locks the registration
//   - an Approved check marks the registration CheckedIn and approves the
//     linked process, stamping the collected volume and firing the one-time
//     approval trigger
func (s *Service) RecordHealthCheck(ctx context.Context, hcID id.HealthCheckID, in HealthCheckInput, actor id.UserID) (*models.HealthCheck, error) {
	hc, err := s.GetHealthCheck(ctx, hcID)
	if err != nil {
		return nil, err
	}
	if hc.DonationRegID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "health check is not linked to a donation registration")
	}

	reg, err := s.GetRegistration(ctx, hc.DonationRegID)
	if err != nil {
		return nil, err
	}
	if err := reg.CanUpdate(); err != nil {
		return nil, err
	}

	if _, err := models.ParseHealthCheckStatus(string(in.Status)); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	effective := hc.RecordVitals(in.Vitals, in.Conditions, in.Status, in.Notes, now)
	if err := s.healthChecks.Update(ctx, hc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update health check")
	}

	switch effective {
	case models.HealthCheckStatusRejected:
		if err := s.rejectAggregate(ctx, reg, now); err != nil {
			return nil, err
		}
	case models.HealthCheckStatusApproved:
		reg.ApplyStatus(models.RegistrationStatusCheckedIn, now)
		if err := s.registrations.Update(ctx, reg); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration")
		}
		proc, err := s.GetProcess(ctx, reg.ProcessID)
		if err != nil {
			return nil, err
		}
		if err := s.approveProcess(ctx, proc, reg, hc.Vitals.WeightKG, actor, now); err != nil {
			return nil, err
		}
	}

	if s.metrics != nil {
		s.metrics.HealthChecksRecorded.WithLabelValues(string(effective)).Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: now,
		ActorID:   actor,
		SubjectID: hc.ID.String(),
		Action:    string(audit.EventHealthCheckRecorded),
		Reason:    string(effective),
	})
	return hc, nil
}

// rejectAggregate pushes a health-check rejection through the process and the
// registration so no half-rejected aggregate survives.
func (s *Service) rejectAggregate(ctx context.Context, reg *models.DonationRegistration, now time.Time) error {
	proc, err := s.processes.FindByID(ctx, reg.ProcessID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation process")
	}
	if proc != nil {
		proc.ApplyStatus(models.ProcessStatusRejected, now)
		if err := s.processes.Update(ctx, proc); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update donation process")
		}
	}

	reg.ApplyStatus(models.RegistrationStatusRejected, now)
	if err := s.registrations.Update(ctx, reg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration")
	}
	return nil
}

// ProcessUpdateInput carries a staff decision on a donation process.
type ProcessUpdateInput struct {
	Status      models.ProcessStatus
	Description string
}

// UpdateProcessStatus transitions a donation process on a direct staff
// decision.
//
// Approval is gated on the linked health check being Approved; the cascade
// from an approved health check enters the same approval path, so a direct
// call after the cascade is a no-op beyond the status re-stamp. Rejection
// locks the registration.
func (s *Service) UpdateProcessStatus(ctx context.Context, procID id.DonationProcessID, in ProcessUpdateInput, actor id.UserID) (*models.DonationProcess, error) {
	if _, err := models.ParseProcessStatus(string(in.Status)); err != nil {
		return nil, err
	}
	if in.Status == models.ProcessStatusPending {
		return nil, dErrors.New(dErrors.CodeValidation, "donation process cannot return to pending")
	}

	proc, err := s.GetProcess(ctx, procID)
	if err != nil {
		return nil, err
	}
	reg, err := s.GetRegistration(ctx, proc.RegistrationID)
	if err != nil {
		return nil, err
	}
	if err := reg.CanUpdate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if in.Description != "" {
		proc.Description = in.Description
	}

	if in.Status == models.ProcessStatusApproved {
		hc, err := s.GetHealthCheck(ctx, proc.HealthCheckID)
		if err != nil {
			return nil, err
		}
		if err := proc.CanApprove(hc.Status); err != nil {
			return nil, err
		}
		if err := s.approveProcess(ctx, proc, reg, hc.Vitals.WeightKG, actor, now); err != nil {
			return nil, err
		}
		return proc, nil
	}

	proc.ApplyStatus(in.Status, now)
	if err := s.processes.Update(ctx, proc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update donation process")
	}
	reg.ApplyStatus(models.RegistrationStatusRejected, now)
	if err := s.registrations.Update(ctx, reg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration")
	}

	if s.metrics != nil {
		s.metrics.ProcessTransitions.WithLabelValues(string(in.Status)).Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: now,
		ActorID:   actor,
		SubjectID: proc.ID.String(),
		Action:    string(audit.EventDonationProcessRejected),
	})
	return proc, nil
}

// approveProcess is the single Approved transition for a donation process,
// entered both from the health-check cascade and from a direct staff update.
// The first pass stamps the collected volume (weight * 8 ml, capped at 450)
// and collection time, materializes one Available blood unit per registered
// component, and increments the donor's lifetime donation count. Later
// passes only re-stamp the status; unit materialization is idempotent on the
// inventory side as well.
func (s *Service) approveProcess(ctx context.Context, proc *models.DonationProcess, reg *models.DonationRegistration, weightKG float64, actor id.UserID, now time.Time) error {
	first := proc.Status != models.ProcessStatusApproved
	if first {
		volume, err := models.CalculateDonationVolume(weightKG)
		if err != nil {
			return err
		}
		proc.VolumeCollectedML = volume
		proc.CollectedAt = now
	}

	proc.ApplyStatus(models.ProcessStatusApproved, now)
	if err := s.processes.Update(ctx, proc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update donation process")
	}

	if first {
		if err := s.onFirstApproval(ctx, proc, reg, actor); err != nil {
			return err
		}
	}

	if s.metrics != nil {
		s.metrics.ProcessTransitions.WithLabelValues(string(models.ProcessStatusApproved)).Inc()
		if first {
			s.metrics.VolumeCollectedML.Add(proc.VolumeCollectedML)
		}
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: now,
		ActorID:   actor,
		SubjectID: proc.ID.String(),
		Action:    string(audit.EventDonationProcessApproved),
	})
	return nil
}

// onFirstApproval runs the one-time side effects of an approval. Failures
// here surface to the caller; the approval itself is already durable, and a
// retry re-enters through the idempotent materialization path.
func (s *Service) onFirstApproval(ctx context.Context, proc *models.DonationProcess, reg *models.DonationRegistration, actor id.UserID) error {
	if s.units != nil {
		if _, err := s.units.CreateUnitsForApprovedDonation(ctx, proc.ID, reg.GroupID, reg.Components, actor); err != nil {
			return err
		}
	}
	if s.donors != nil {
		if err := s.donors.IncrementDonationCount(ctx, proc.DonorID); err != nil {
			s.logger.WarnContext(ctx, "donation count increment failed",
				"donor_id", proc.DonorID,
				"error", err,
			)
		}
	}
	return nil
}
