package handler

import (
	"time"

	"bloodlink/internal/donation/models"
	"bloodlink/internal/donation/service"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

type createRegistrationRequest struct {
	BloodGroupID string                   `json:"blood_group_id"`
	DonationType string                   `json:"donation_type"`
	ScheduledAt  time.Time                `json:"scheduled_at"`
	Screening    []models.ScreeningAnswer `json:"screening"`

	groupID      id.BloodGroupID
	donationType id.DonationType
}

func (r *createRegistrationRequest) Validate() error {
	groupID, err := id.ParseBloodGroupID(r.BloodGroupID)
	if err != nil {
		return err
	}
	donationType, err := id.ParseDonationType(r.DonationType)
	if err != nil {
		return err
	}
	if r.ScheduledAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "scheduled_at is required")
	}

	r.groupID = groupID
	r.donationType = donationType
	return nil
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (r *rescheduleRequest) Validate() error {
	if r.ScheduledAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "scheduled_at is required")
	}
	return nil
}

type recordHealthCheckRequest struct {
	Vitals     models.Vitals `json:"vitals"`
	Conditions []string      `json:"underlying_conditions"`
	Status     string        `json:"status"`
	Notes      string        `json:"notes"`

	status models.HealthCheckStatus
}

func (r *recordHealthCheckRequest) Validate() error {
	status, err := models.ParseHealthCheckStatus(r.Status)
	if err != nil {
		return err
	}
	if r.Vitals.WeightKG <= 0 {
		return dErrors.New(dErrors.CodeValidation, "weight_kg must be positive")
	}

	r.status = status
	return nil
}

func (r *recordHealthCheckRequest) toInput() service.HealthCheckInput {
	return service.HealthCheckInput{
		Vitals:     r.Vitals,
		Conditions: r.Conditions,
		Status:     r.status,
		Notes:      r.Notes,
	}
}

type updateProcessRequest struct {
	Status      string `json:"status"`
	Description string `json:"description"`

	status models.ProcessStatus
}

func (r *updateProcessRequest) Validate() error {
	status, err := models.ParseProcessStatus(r.Status)
	if err != nil {
		return err
	}
	r.status = status
	return nil
}
