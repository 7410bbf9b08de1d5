package unit

import (
	"context"
	"sync"
	"time"

	"bloodlink/internal/inventory/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemory keeps blood units in process memory. Used by unit tests and
// single-node development runs.
type InMemory struct {
	mu    sync.RWMutex
	units map[id.BloodUnitID]*models.BloodUnit
	// byProcess backs the create-if-absent guard against duplicate
	// materialization for one donation process.
	byProcess map[id.DonationProcessID][]id.BloodUnitID
}

func NewInMemory() *InMemory {
	return &InMemory{
		units:     make(map[id.BloodUnitID]*models.BloodUnit),
		byProcess: make(map[id.DonationProcessID][]id.BloodUnitID),
	}
}

// CreateForProcess atomically creates the batch of units for one donation
// process. Fails with ErrConflict when units already exist for the process,
// making repeated approval submissions a no-op at the caller.
func (s *InMemory) CreateForProcess(_ context.Context, processID id.DonationProcessID, units []*models.BloodUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.byProcess[processID]) > 0 {
		return sentinel.ErrConflict
	}
	for _, u := range units {
		cp := *u
		s.units[u.ID] = &cp
		s.byProcess[processID] = append(s.byProcess[processID], u.ID)
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, unitID id.BloodUnitID) (*models.BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.units[unitID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByProcess(_ context.Context, processID id.DonationProcessID) ([]*models.BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byProcess[processID]
	out := make([]*models.BloodUnit, 0, len(ids))
	for _, uid := range ids {
		cp := *s.units[uid]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, u *models.BloodUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.units[u.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *u
	s.units[u.ID] = &cp
	return nil
}

// ListAvailable returns Available, non-expired units matching the filter.
// Empty filter slices match everything.
func (s *InMemory) ListAvailable(_ context.Context, groupIDs []id.BloodGroupID, componentIDs []id.BloodComponentID, now time.Time) ([]*models.BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[id.BloodGroupID]bool, len(groupIDs))
	for _, g := range groupIDs {
		groups[g] = true
	}
	components := make(map[id.BloodComponentID]bool, len(componentIDs))
	for _, c := range componentIDs {
		components[c] = true
	}

	var out []*models.BloodUnit
	for _, u := range s.units {
		if u.Status != models.UnitStatusAvailable || u.IsExpiredAt(now) {
			continue
		}
		if len(groups) > 0 && !groups[u.GroupID] {
			continue
		}
		if len(components) > 0 && !components[u.ComponentID] {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

// ListExpiredCandidates returns Available units whose shelf life has elapsed.
func (s *InMemory) ListExpiredCandidates(_ context.Context, now time.Time) ([]*models.BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.BloodUnit
	for _, u := range s.units {
		if u.Status == models.UnitStatusAvailable && u.IsExpiredAt(now) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CountAvailableByPair aggregates Available unit counts and volumes per
// (group, component) pair.
func (s *InMemory) CountAvailableByPair(_ context.Context) (map[models.Pair]models.PairCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.Pair]models.PairCount)
	for _, u := range s.units {
		if u.Status != models.UnitStatusAvailable {
			continue
		}
		key := models.Pair{GroupID: u.GroupID, ComponentID: u.ComponentID}
		pc := out[key]
		pc.UnitCount++
		pc.TotalVolumeML += u.VolumeML
		out[key] = pc
	}
	return out, nil
}
