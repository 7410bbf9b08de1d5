package healthcheck

import (
	"context"
	"sync"

	"bloodlink/internal/donation/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemory keeps health checks in process memory.
type InMemory struct {
	mu     sync.RWMutex
	checks map[id.HealthCheckID]*models.HealthCheck
}

func NewInMemory() *InMemory {
	return &InMemory{checks: make(map[id.HealthCheckID]*models.HealthCheck)}
}

func (s *InMemory) Create(_ context.Context, h *models.HealthCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.checks[h.ID]; exists {
		return sentinel.ErrConflict
	}
	// One health check per donation registration.
	if !h.DonationRegID.IsNil() {
		for _, existing := range s.checks {
			if existing.DonationRegID == h.DonationRegID {
				return sentinel.ErrConflict
			}
		}
	}
	cp := *h
	s.checks[h.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, hcID id.HealthCheckID) (*models.HealthCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if h, ok := s.checks[hcID]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, h *models.HealthCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.checks[h.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *h
	s.checks[h.ID] = &cp
	return nil
}
