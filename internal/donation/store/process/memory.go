package process

import (
	"context"
	"sync"

	"bloodlink/internal/donation/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemory keeps donation processes in process memory.
type InMemory struct {
	mu        sync.RWMutex
	processes map[id.DonationProcessID]*models.DonationProcess
}

func NewInMemory() *InMemory {
	return &InMemory{processes: make(map[id.DonationProcessID]*models.DonationProcess)}
}

func (s *InMemory) Create(_ context.Context, p *models.DonationProcess) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.processes[p.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *p
	s.processes[p.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, procID id.DonationProcessID) (*models.DonationProcess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.processes[procID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByRegistration(_ context.Context, regID id.DonationRegistrationID) (*models.DonationProcess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.processes {
		if p.RegistrationID == regID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, p *models.DonationProcess) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processes[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *p
	s.processes[p.ID] = &cp
	return nil
}

func (s *InMemory) ListByDonor(_ context.Context, donorID id.UserID) ([]*models.DonationProcess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.DonationProcess
	for _, p := range s.processes {
		if p.DonorID == donorID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}
