package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodlink/internal/inventory/models"
	thresholdStore "bloodlink/internal/inventory/store/threshold"
	unitStore "bloodlink/internal/inventory/store/unit"
	refStore "bloodlink/internal/reference/store"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

// =============================================================================
// Inventory Service Test Suite
// =============================================================================
// Justification for unit tests: materialization idempotence, the exact-sum
// collection rule and threshold re-derivation are batch semantics that need
// precise store-level setups to exercise.

type fixedVolumeReader struct {
	volume float64
	err    error
}

func (r fixedVolumeReader) CollectedVolume(context.Context, id.DonationProcessID) (float64, error) {
	return r.volume, r.err
}

type InventoryServiceSuite struct {
	suite.Suite
	units      *unitStore.InMemory
	thresholds *thresholdStore.InMemory
	reference  *refStore.InMemory
	service    *Service
	ctx        context.Context
	now        time.Time
	actor      id.UserID
	groupID    id.BloodGroupID
}

func TestInventoryServiceSuite(t *testing.T) {
	suite.Run(t, new(InventoryServiceSuite))
}

func (s *InventoryServiceSuite) SetupTest() {
	s.units = unitStore.NewInMemory()
	s.thresholds = thresholdStore.NewInMemory()
	s.reference = refStore.NewInMemory()

	var err error
	s.service, err = New(s.units, s.thresholds, s.reference,
		WithDonationReader(fixedVolumeReader{volume: 450}),
	)
	s.Require().NoError(err)

	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.actor = id.UserID(uuid.New())

	group, err := s.reference.GroupByType(s.ctx, id.BloodTypeAPos)
	s.Require().NoError(err)
	s.groupID = group.ID
}

// Each subtest starts from empty unit and threshold stores.
func (s *InventoryServiceSuite) SetupSubTest() {
	s.SetupTest()
}

// materialize creates the unit batch for a fresh donation process so
// subtests never share inventory state.
func (s *InventoryServiceSuite) materialize(components ...id.ComponentName) (id.DonationProcessID, []*models.BloodUnit) {
	processID := id.DonationProcessID(uuid.New())
	units, err := s.service.CreateUnitsForApprovedDonation(s.ctx, processID, s.groupID, components, s.actor)
	s.Require().NoError(err)
	return processID, units
}

// =============================================================================
// Materialization Tests
// =============================================================================

func (s *InventoryServiceSuite) TestCreateUnitsForApprovedDonation() {
	s.Run("creates one available zero-volume unit per component", func() {
		processID, units := s.materialize(id.ComponentWholeBlood)
		s.Require().Len(units, 1)

		unit := units[0]
		s.Equal(models.UnitStatusAvailable, unit.Status)
		s.Zero(unit.VolumeML)
		s.Equal(processID, unit.ProcessID)
		s.Equal(s.groupID, unit.GroupID)
		// Whole blood keeps for 35 days; expiry is fixed at materialization.
		s.Equal(s.now.Add(35*24*time.Hour), unit.ExpiredAt)
	})

	s.Run("duplicate approval returns the existing batch", func() {
		processID, first := s.materialize(id.ComponentPlasma)
		second, err := s.service.CreateUnitsForApprovedDonation(s.ctx, processID, s.groupID, []id.ComponentName{id.ComponentPlasma}, s.actor)
		s.Require().NoError(err)

		s.Require().Len(second, 1)
		s.Equal(first[0].ID, second[0].ID)

		all, err := s.units.FindByProcess(s.ctx, processID)
		s.Require().NoError(err)
		s.Len(all, 1)
	})

	s.Run("empty component list is rejected", func() {
		_, err := s.service.CreateUnitsForApprovedDonation(s.ctx, id.DonationProcessID(uuid.New()), s.groupID, nil, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Collection Recording Tests
// =============================================================================

func (s *InventoryServiceSuite) TestRecordCollectionVolumes() {
	s.Run("batch matching the collected volume writes volumes and expiry", func() {
		processID, units := s.materialize(id.ComponentWholeBlood)

		err := s.service.RecordCollectionVolumes(s.ctx, processID, []CollectionUpdate{
			{UnitID: units[0].ID, VolumeML: 450, Status: models.UnitStatusAvailable, StorageTemp: 4.0},
		}, s.actor)
		s.Require().NoError(err)

		unit, err := s.service.GetUnit(s.ctx, units[0].ID)
		s.Require().NoError(err)
		s.InDelta(450.0, unit.VolumeML, 1e-9)
		// Whole blood keeps for 35 days.
		s.Equal(s.now.Add(35*24*time.Hour), unit.ExpiredAt)
	})

	s.Run("sum mismatch rejects the whole batch", func() {
		processID, units := s.materialize(id.ComponentWholeBlood)

		err := s.service.RecordCollectionVolumes(s.ctx, processID, []CollectionUpdate{
			{UnitID: units[0].ID, VolumeML: 449, Status: models.UnitStatusAvailable},
		}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		unit, err := s.service.GetUnit(s.ctx, units[0].ID)
		s.Require().NoError(err)
		s.Zero(unit.VolumeML, "rejected batch must not partially apply")
	})

	s.Run("unit from another process rejects the batch", func() {
		processID, _ := s.materialize(id.ComponentWholeBlood)
		_, other := s.materialize(id.ComponentPlasma)

		err := s.service.RecordCollectionVolumes(s.ctx, processID, []CollectionUpdate{
			{UnitID: other[0].ID, VolumeML: 450, Status: models.UnitStatusAvailable},
		}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("pending process surfaces the domain error", func() {
		processID, units := s.materialize(id.ComponentWholeBlood)
		pending := dErrors.New(dErrors.CodeValidation, "donation process has no collected volume yet")
		svc, err := New(s.units, s.thresholds, s.reference,
			WithDonationReader(fixedVolumeReader{err: pending}),
		)
		s.Require().NoError(err)

		err = svc.RecordCollectionVolumes(s.ctx, processID, []CollectionUpdate{
			{UnitID: units[0].ID, VolumeML: 450, Status: models.UnitStatusAvailable},
		}, s.actor)
		s.Require().Error(err)
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err), "caller mistakes must not read as internal failures")
	})
}

// =============================================================================
// Expiry Sweep Tests
// =============================================================================

func (s *InventoryServiceSuite) TestMarkExpired() {
	s.Run("sweeps only units past their shelf life", func() {
		processID, units := s.materialize(id.ComponentPlatelets, id.ComponentPlasma)
		err := s.service.RecordCollectionVolumes(s.ctx, processID, []CollectionUpdate{
			{UnitID: units[0].ID, VolumeML: 250, Status: models.UnitStatusAvailable},
			{UnitID: units[1].ID, VolumeML: 200, Status: models.UnitStatusAvailable},
		}, s.actor)
		s.Require().NoError(err)

		// Six days on: platelets (5d) are past due, plasma (365d) is not.
		later := requestcontext.WithTime(context.Background(), s.now.Add(6*24*time.Hour))
		swept, err := s.service.MarkExpired(later, s.actor)
		s.Require().NoError(err)
		s.Equal(1, swept)

		expired, err := s.service.GetUnit(s.ctx, units[0].ID)
		s.Require().NoError(err)
		s.Equal(models.UnitStatusExpired, expired.Status)

		kept, err := s.service.GetUnit(s.ctx, units[1].ID)
		s.Require().NoError(err)
		s.Equal(models.UnitStatusAvailable, kept.Status)
	})

	s.Run("re-running the sweep is a no-op", func() {
		processID, units := s.materialize(id.ComponentWhiteCells)
		err := s.service.RecordCollectionVolumes(s.ctx, processID, []CollectionUpdate{
			{UnitID: units[0].ID, VolumeML: 450, Status: models.UnitStatusAvailable},
		}, s.actor)
		s.Require().NoError(err)

		later := requestcontext.WithTime(context.Background(), s.now.Add(48*time.Hour))
		swept, err := s.service.MarkExpired(later, s.actor)
		s.Require().NoError(err)
		s.Equal(1, swept)

		swept, err = s.service.MarkExpired(later, s.actor)
		s.Require().NoError(err)
		s.Zero(swept)
	})
}

// =============================================================================
// Unit Consumption Tests
// =============================================================================

func (s *InventoryServiceSuite) TestMarkUsed() {
	s.Run("available unit is consumed once", func() {
		processID, units := s.materialize(id.ComponentRedCells)
		err := s.service.RecordCollectionVolumes(s.ctx, processID, []CollectionUpdate{
			{UnitID: units[0].ID, VolumeML: 450, Status: models.UnitStatusAvailable},
		}, s.actor)
		s.Require().NoError(err)

		requestID := id.RequestProcessID(uuid.New())
		unit, err := s.service.MarkUsed(s.ctx, units[0].ID, requestID, s.actor)
		s.Require().NoError(err)
		s.Equal(models.UnitStatusUsed, unit.Status)
		s.Equal(requestID, unit.RequestID)

		_, err = s.service.MarkUsed(s.ctx, units[0].ID, requestID, s.actor)
		s.Error(err, "used is terminal")
	})

	s.Run("expired stock cannot be consumed ahead of the sweep", func() {
		processID, units := s.materialize(id.ComponentWhiteCells)
		err := s.service.RecordCollectionVolumes(s.ctx, processID, []CollectionUpdate{
			{UnitID: units[0].ID, VolumeML: 450, Status: models.UnitStatusAvailable},
		}, s.actor)
		s.Require().NoError(err)

		// Two days on, white cells (1 day) are past due but not yet swept.
		later := requestcontext.WithTime(context.Background(), s.now.Add(48*time.Hour))
		_, err = s.service.MarkUsed(later, units[0].ID, id.RequestProcessID(uuid.New()), s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		unit, err := s.service.GetUnit(s.ctx, units[0].ID)
		s.Require().NoError(err)
		s.Equal(models.UnitStatusAvailable, unit.Status)
	})
}

// =============================================================================
// Threshold Snapshot Tests
// =============================================================================

func (s *InventoryServiceSuite) TestSnapshot() {
	s.Run("covers the full group-component grid", func() {
		thresholds, err := s.service.Snapshot(s.ctx)
		s.Require().NoError(err)
		s.Len(thresholds, 8*5)
		for _, th := range thresholds {
			s.True(th.IsStable, "first sight baselines at observed counts")
		}
	})

	s.Run("stability is a strict greater-than comparison", func() {
		// Five available whole-blood units for one group.
		for i := 0; i < 5; i++ {
			s.materialize(id.ComponentWholeBlood)
		}

		thresholds, err := s.service.Snapshot(s.ctx)
		s.Require().NoError(err)

		var target *models.InventoryThreshold
		component, err := s.reference.ComponentByName(s.ctx, id.ComponentWholeBlood)
		s.Require().NoError(err)
		for _, th := range thresholds {
			if th.GroupID == s.groupID && th.ComponentID == component.ID {
				target = th
			}
		}
		s.Require().NotNil(target)
		s.Equal(5, target.UnitCount)

		// 5 > 3: stable.
		target, err = s.service.UpdateThreshold(s.ctx, target.ID, 3, s.actor)
		s.Require().NoError(err)
		s.True(target.IsStable)

		// 5 > 5 is false: equality is not stable.
		target, err = s.service.UpdateThreshold(s.ctx, target.ID, 5, s.actor)
		s.Require().NoError(err)
		s.False(target.IsStable)

		// 5 > 10 is false.
		target, err = s.service.UpdateThreshold(s.ctx, target.ID, 10, s.actor)
		s.Require().NoError(err)
		s.False(target.IsStable)
	})

	s.Run("negative threshold is rejected", func() {
		thresholds, err := s.service.Snapshot(s.ctx)
		s.Require().NoError(err)
		_, err = s.service.UpdateThreshold(s.ctx, thresholds[0].ID, -1, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
