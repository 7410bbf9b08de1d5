package registration

import (
	"context"
	"sync"

	"bloodlink/internal/donation/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemory keeps donation registrations in process memory.
type InMemory struct {
	mu            sync.RWMutex
	registrations map[id.DonationRegistrationID]*models.DonationRegistration
}

func NewInMemory() *InMemory {
	return &InMemory{registrations: make(map[id.DonationRegistrationID]*models.DonationRegistration)}
}

func (s *InMemory) Create(_ context.Context, r *models.DonationRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.registrations[r.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *r
	s.registrations[r.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, regID id.DonationRegistrationID) (*models.DonationRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.registrations[regID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, r *models.DonationRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registrations[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *r
	s.registrations[r.ID] = &cp
	return nil
}

func (s *InMemory) ListByDonor(_ context.Context, donorID id.UserID) ([]*models.DonationRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.DonationRegistration
	for _, r := range s.registrations {
		if r.DonorID == donorID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}
