package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bloodlink/internal/reference"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemory serves reference data from process memory, seeded at construction.
type InMemory struct {
	mu         sync.RWMutex
	groups     map[id.BloodGroupID]*reference.BloodGroup
	components map[id.BloodComponentID]*reference.BloodComponent
}

// NewInMemory builds a store pre-seeded with the eight blood groups and the
// five blood components.
func NewInMemory() *InMemory {
	s := &InMemory{
		groups:     make(map[id.BloodGroupID]*reference.BloodGroup),
		components: make(map[id.BloodComponentID]*reference.BloodComponent),
	}
	for _, t := range id.AllBloodTypes() {
		g := &reference.BloodGroup{ID: id.BloodGroupID(uuid.New()), Type: t}
		s.groups[g.ID] = g
	}
	for _, name := range id.AllComponents() {
		c := &reference.BloodComponent{ID: id.BloodComponentID(uuid.New()), Name: name}
		s.components[c.ID] = c
	}
	return s
}

func (s *InMemory) GroupByID(_ context.Context, groupID id.BloodGroupID) (*reference.BloodGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if g, ok := s.groups[groupID]; ok {
		return g, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) GroupByType(_ context.Context, bloodType id.BloodType) (*reference.BloodGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.groups {
		if g.Type == bloodType {
			return g, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListGroups(_ context.Context) ([]*reference.BloodGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*reference.BloodGroup, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	return out, nil
}

func (s *InMemory) ComponentByID(_ context.Context, componentID id.BloodComponentID) (*reference.BloodComponent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.components[componentID]; ok {
		return c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ComponentByName(_ context.Context, name id.ComponentName) (*reference.BloodComponent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.components {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListComponents(_ context.Context) ([]*reference.BloodComponent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*reference.BloodComponent, 0, len(s.components))
	for _, c := range s.components {
		out = append(out, c)
	}
	return out, nil
}
