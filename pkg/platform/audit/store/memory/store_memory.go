package memory

import (
	"context"
	"sync"

	id "bloodlink/pkg/domain"
	audit "bloodlink/pkg/platform/audit"
)

// InMemoryStore keeps audit events in memory, ordered per actor.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.UserID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.UserID][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[event.ActorID] = append(s.events[event.ActorID], event)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, actorID id.UserID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.events[actorID]
	out := make([]audit.Event, len(events))
	copy(out, events)
	return out, nil
}
