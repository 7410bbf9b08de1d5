package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodlink/internal/donation/models"
	hcStore "bloodlink/internal/donation/store/healthcheck"
	procStore "bloodlink/internal/donation/store/process"
	regStore "bloodlink/internal/donation/store/registration"
	invmodels "bloodlink/internal/inventory/models"
	refStore "bloodlink/internal/reference/store"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

// =============================================================================
// Donation Service Test Suite
// =============================================================================
// Justification for unit tests: the pipeline couples three documents through
// cross-entity cascades (screening gate, health-check rejection, approval
// trigger) that are awkward to pin down through HTTP-level tests alone.

type fakeUnitCreator struct {
	calls     int
	processID id.DonationProcessID
	groupID   id.BloodGroupID
	names     []id.ComponentName
}

func (f *fakeUnitCreator) CreateUnitsForApprovedDonation(_ context.Context, processID id.DonationProcessID, groupID id.BloodGroupID, components []id.ComponentName, _ id.UserID) ([]*invmodels.BloodUnit, error) {
	f.calls++
	f.processID = processID
	f.groupID = groupID
	f.names = components
	return nil, nil
}

type fakeDonorCounter struct {
	counts map[id.UserID]int
}

func (f *fakeDonorCounter) IncrementDonationCount(_ context.Context, donorID id.UserID) error {
	if f.counts == nil {
		f.counts = make(map[id.UserID]int)
	}
	f.counts[donorID]++
	return nil
}

type DonationServiceSuite struct {
	suite.Suite
	reference *refStore.InMemory
	units     *fakeUnitCreator
	donors    *fakeDonorCounter
	service   *Service
	ctx       context.Context
	now       time.Time
	donorID   id.UserID
	groupID   id.BloodGroupID
}

func TestDonationServiceSuite(t *testing.T) {
	suite.Run(t, new(DonationServiceSuite))
}

func (s *DonationServiceSuite) SetupTest() {
	s.reference = refStore.NewInMemory()
	s.units = &fakeUnitCreator{}
	s.donors = &fakeDonorCounter{}

	var err error
	s.service, err = New(
		regStore.NewInMemory(),
		hcStore.NewInMemory(),
		procStore.NewInMemory(),
		s.reference,
		WithUnitCreator(s.units),
		WithDonorCounter(s.donors),
	)
	s.Require().NoError(err)

	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.donorID = id.UserID(uuid.New())

	group, err := s.reference.GroupByType(s.ctx, id.BloodTypeONeg)
	s.Require().NoError(err)
	s.groupID = group.ID
}

// Each subtest works on a fresh aggregate; the fakes count one-time side
// effects and must not bleed across subtests.
func (s *DonationServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *DonationServiceSuite) register(screening []models.ScreeningAnswer) (*RegistrationBundle, error) {
	return s.service.CreateRegistration(s.ctx, RegistrationInput{
		DonorID:      s.donorID,
		GroupID:      s.groupID,
		DonationType: id.DonationWholeBlood,
		ScheduledAt:  s.now.Add(48 * time.Hour),
		Screening:    screening,
	})
}

func (s *DonationServiceSuite) approveHealthCheck(hcID id.HealthCheckID, weightKG float64) *models.HealthCheck {
	hc, err := s.service.RecordHealthCheck(s.ctx, hcID, HealthCheckInput{
		Vitals: models.Vitals{
			WeightKG:      weightKG,
			TemperatureC:  36.7,
			HeartRateBPM:  68,
			BloodPressure: models.BloodPressure{Systolic: 118, Diastolic: 76},
			HemoglobinGDL: 14.1,
		},
		Status: models.HealthCheckStatusApproved,
	}, id.UserID(uuid.New()))
	s.Require().NoError(err)
	return hc
}

// =============================================================================
// Registration Tests (Screening Gate)
// =============================================================================

func (s *DonationServiceSuite) TestCreateRegistration() {
	s.Run("clean screening creates the cross-referenced bundle", func() {
		bundle, err := s.register(nil)
		s.NoError(err)

		s.Equal(models.RegistrationStatusApproved, bundle.Registration.Status)
		s.Equal(models.HealthCheckStatusPending, bundle.HealthCheck.Status)
		s.Equal(models.ProcessStatusPending, bundle.Process.Status)

		s.Equal(bundle.Registration.HealthCheckID, bundle.HealthCheck.ID)
		s.Equal(bundle.Registration.ProcessID, bundle.Process.ID)
		s.Equal(bundle.Registration.ID, bundle.HealthCheck.DonationRegID)
		s.Equal(bundle.Registration.ID, bundle.Process.RegistrationID)
		s.Equal([]id.ComponentName{id.ComponentWholeBlood}, bundle.Registration.Components)
	})

	s.Run("disqualifying answer persists a rejected bundle and reports it", func() {
		bundle, err := s.register([]models.ScreeningAnswer{
			{Question: "new tattoo in the last 4 months", Disqualifies: true},
		})
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeEligibilityRejected))
		s.Require().NotNil(bundle)

		// The rejection is on record, and locked.
		reg, err := s.service.GetRegistration(s.ctx, bundle.Registration.ID)
		s.Require().NoError(err)
		s.Equal(models.RegistrationStatusRejected, reg.Status)

		_, err = s.service.RescheduleRegistration(s.ctx, reg.ID, s.now.Add(72*time.Hour))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown blood group is rejected", func() {
		_, err := s.service.CreateRegistration(s.ctx, RegistrationInput{
			DonorID:      s.donorID,
			GroupID:      id.BloodGroupID(uuid.New()),
			DonationType: id.DonationPlasma,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Health Check Tests (Cascade)
// =============================================================================

func (s *DonationServiceSuite) TestRecordHealthCheck() {
	s.Run("approval checks the donor in and approves the collection", func() {
		bundle, err := s.register(nil)
		s.Require().NoError(err)

		hc := s.approveHealthCheck(bundle.HealthCheck.ID, 50)
		s.Equal(models.HealthCheckStatusApproved, hc.Status)

		reg, err := s.service.GetRegistration(s.ctx, bundle.Registration.ID)
		s.Require().NoError(err)
		s.Equal(models.RegistrationStatusCheckedIn, reg.Status)

		proc, err := s.service.GetProcess(s.ctx, bundle.Process.ID)
		s.Require().NoError(err)
		s.Equal(models.ProcessStatusApproved, proc.Status)
		s.InDelta(400.0, proc.VolumeCollectedML, 1e-9) // 50 kg * 8 ml
		s.Equal(s.now, proc.CollectedAt)

		s.Equal(1, s.units.calls)
		s.Equal(bundle.Process.ID, s.units.processID)
		s.Equal(s.groupID, s.units.groupID)
		s.Equal([]id.ComponentName{id.ComponentWholeBlood}, s.units.names)
		s.Equal(1, s.donors.counts[s.donorID])

		volume, err := s.service.CollectedVolume(s.ctx, bundle.Process.ID)
		s.NoError(err)
		s.InDelta(400.0, volume, 1e-9)
	})

	s.Run("volume caps at 450 for heavy donors", func() {
		bundle, err := s.register(nil)
		s.Require().NoError(err)
		s.approveHealthCheck(bundle.HealthCheck.ID, 92.5)

		proc, err := s.service.GetProcess(s.ctx, bundle.Process.ID)
		s.Require().NoError(err)
		s.InDelta(450.0, proc.VolumeCollectedML, 1e-9)
	})

	s.Run("weight below the floor forces rejection everywhere", func() {
		bundle, err := s.register(nil)
		s.Require().NoError(err)

		hc, err := s.service.RecordHealthCheck(s.ctx, bundle.HealthCheck.ID, HealthCheckInput{
			Vitals: models.Vitals{WeightKG: 41.9},
			Status: models.HealthCheckStatusApproved, // staff approval is overridden
		}, id.UserID(uuid.New()))
		s.Require().NoError(err)
		s.Equal(models.HealthCheckStatusRejected, hc.Status)

		reg, err := s.service.GetRegistration(s.ctx, bundle.Registration.ID)
		s.Require().NoError(err)
		s.Equal(models.RegistrationStatusRejected, reg.Status)

		proc, err := s.service.GetProcess(s.ctx, bundle.Process.ID)
		s.Require().NoError(err)
		s.Equal(models.ProcessStatusRejected, proc.Status)
	})

	s.Run("rejected registration refuses further vitals", func() {
		bundle, err := s.register(nil)
		s.Require().NoError(err)

		_, err = s.service.RecordHealthCheck(s.ctx, bundle.HealthCheck.ID, HealthCheckInput{
			Vitals: models.Vitals{WeightKG: 40},
			Status: models.HealthCheckStatusRejected,
		}, id.UserID(uuid.New()))
		s.Require().NoError(err)

		_, err = s.service.RecordHealthCheck(s.ctx, bundle.HealthCheck.ID, HealthCheckInput{
			Vitals: models.Vitals{WeightKG: 80},
			Status: models.HealthCheckStatusApproved,
		}, id.UserID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Process Transition Tests (Approval Trigger)
// =============================================================================

func (s *DonationServiceSuite) TestUpdateProcessStatus() {
	s.Run("approval is gated on the health check", func() {
		bundle, err := s.register(nil)
		s.Require().NoError(err)

		_, err = s.service.UpdateProcessStatus(s.ctx, bundle.Process.ID, ProcessUpdateInput{
			Status: models.ProcessStatusApproved,
		}, id.UserID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Zero(s.units.calls)
	})

	s.Run("re-approval after the cascade does not re-fire the trigger", func() {
		bundle, err := s.register(nil)
		s.Require().NoError(err)
		s.approveHealthCheck(bundle.HealthCheck.ID, 60)
		s.Equal(1, s.units.calls)

		proc, err := s.service.UpdateProcessStatus(s.ctx, bundle.Process.ID, ProcessUpdateInput{
			Status: models.ProcessStatusApproved,
		}, id.UserID(uuid.New()))
		s.Require().NoError(err)

		s.Equal(models.ProcessStatusApproved, proc.Status)
		s.InDelta(480.0, proc.VolumeCollectedML, 1e-9) // stamped once at the cascade
		s.Equal(1, s.units.calls)
		s.Equal(1, s.donors.counts[s.donorID])
	})

	s.Run("rejection locks the registration", func() {
		bundle, err := s.register(nil)
		s.Require().NoError(err)
		s.approveHealthCheck(bundle.HealthCheck.ID, 60)

		_, err = s.service.UpdateProcessStatus(s.ctx, bundle.Process.ID, ProcessUpdateInput{
			Status:      models.ProcessStatusRejected,
			Description: "donor withdrew consent",
		}, id.UserID(uuid.New()))
		s.Require().NoError(err)

		reg, err := s.service.GetRegistration(s.ctx, bundle.Registration.ID)
		s.Require().NoError(err)
		s.Equal(models.RegistrationStatusRejected, reg.Status)
	})

	s.Run("pending is not a reachable target", func() {
		bundle, err := s.register(nil)
		s.Require().NoError(err)

		_, err = s.service.UpdateProcessStatus(s.ctx, bundle.Process.ID, ProcessUpdateInput{
			Status: models.ProcessStatusPending,
		}, id.UserID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Collected Volume Tests
// =============================================================================

func (s *DonationServiceSuite) TestCollectedVolume() {
	s.Run("pending process has no collected volume", func() {
		bundle, err := s.register(nil)
		s.Require().NoError(err)

		_, err = s.service.CollectedVolume(s.ctx, bundle.Process.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
