package threshold

import (
	"context"
	"sync"

	"bloodlink/internal/inventory/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemory keeps inventory thresholds in process memory.
type InMemory struct {
	mu         sync.RWMutex
	thresholds map[id.InventoryThresholdID]*models.InventoryThreshold
	byPair     map[models.Pair]id.InventoryThresholdID
}

func NewInMemory() *InMemory {
	return &InMemory{
		thresholds: make(map[id.InventoryThresholdID]*models.InventoryThreshold),
		byPair:     make(map[models.Pair]id.InventoryThresholdID),
	}
}

func (s *InMemory) Create(_ context.Context, t *models.InventoryThreshold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair := models.Pair{GroupID: t.GroupID, ComponentID: t.ComponentID}
	if _, exists := s.byPair[pair]; exists {
		return sentinel.ErrConflict
	}
	cp := *t
	s.thresholds[t.ID] = &cp
	s.byPair[pair] = t.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, thresholdID id.InventoryThresholdID) (*models.InventoryThreshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.thresholds[thresholdID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByPair(_ context.Context, pair models.Pair) (*models.InventoryThreshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if tid, ok := s.byPair[pair]; ok {
		cp := *s.thresholds[tid]
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, t *models.InventoryThreshold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.thresholds[t.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *t
	s.thresholds[t.ID] = &cp
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.InventoryThreshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.InventoryThreshold, 0, len(s.thresholds))
	for _, t := range s.thresholds {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}
