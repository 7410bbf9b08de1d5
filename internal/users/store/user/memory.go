package user

import (
	"context"
	"strings"
	"sync"

	"bloodlink/internal/users/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemory keeps users in process memory.
type InMemory struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *InMemory) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := s.users[u.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byEmail[email]; exists {
		return sentinel.ErrConflict
	}
	cp := *u
	s.users[u.ID] = &cp
	s.byEmail[email] = u.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if userID, ok := s.byEmail[strings.ToLower(email)]; ok {
		cp := *s.users[userID]
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !strings.EqualFold(existing.Email, u.Email) {
		delete(s.byEmail, strings.ToLower(existing.Email))
		s.byEmail[strings.ToLower(u.Email)] = u.ID
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

// ListActiveByGroups returns active users in any of the given blood groups.
// An empty filter matches no one; proximity search always knows its groups.
func (s *InMemory) ListActiveByGroups(_ context.Context, groupIDs []id.BloodGroupID) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[id.BloodGroupID]bool, len(groupIDs))
	for _, g := range groupIDs {
		wanted[g] = true
	}

	var out []*models.User
	for _, u := range s.users {
		if u.Active && wanted[u.GroupID] {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}
