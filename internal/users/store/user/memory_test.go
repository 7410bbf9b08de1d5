package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodlink/internal/users/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

type UserStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *UserStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestUserStoreSuite(t *testing.T) {
	suite.Run(t, new(UserStoreSuite))
}

func (s *UserStoreSuite) newUser(email string) *models.User {
	return &models.User{
		ID:        id.UserID(uuid.New()),
		Email:     email,
		Role:      "donor",
		GroupID:   id.BloodGroupID(uuid.New()),
		Active:    true,
		CreatedAt: time.Now(),
	}
}

// TestCreationAndLookups verifies the store creates and retrieves users.
func (s *UserStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds user by ID", func() {
		u := s.newUser("first@example.com")
		s.Require().NoError(s.store.Create(s.ctx, u))

		found, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(u.Email, found.Email)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.UserID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("finds user by email ignoring case", func() {
		u := s.newUser("Mixed@Example.com")
		s.Require().NoError(s.store.Create(s.ctx, u))

		found, err := s.store.FindByEmail(s.ctx, "mixed@example.COM")
		s.Require().NoError(err)
		s.Equal(u.ID, found.ID)
	})
}

// TestEmailUniqueness verifies case-insensitive email uniqueness enforcement.
func (s *UserStoreSuite) TestEmailUniqueness() {
	s.Run("rejects duplicate email", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newUser("dup@example.com")))

		err := s.store.Create(s.ctx, s.newUser("DUP@example.com"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("email change frees the old address", func() {
		u := s.newUser("old@example.com")
		s.Require().NoError(s.store.Create(s.ctx, u))

		u.Email = "new@example.com"
		s.Require().NoError(s.store.Update(s.ctx, u))

		s.Require().NoError(s.store.Create(s.ctx, s.newUser("old@example.com")))

		found, err := s.store.FindByEmail(s.ctx, "new@example.com")
		s.Require().NoError(err)
		s.Equal(u.ID, found.ID)
	})
}

// TestCopySemantics verifies callers cannot mutate stored state through
// returned pointers.
func (s *UserStoreSuite) TestCopySemantics() {
	u := s.newUser("isolated@example.com")
	s.Require().NoError(s.store.Create(s.ctx, u))

	found, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	found.FullName = "mutated"

	again, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Empty(again.FullName)
}

// TestListActiveByGroups verifies directory filtering.
func (s *UserStoreSuite) TestListActiveByGroups() {
	groupID := id.BloodGroupID(uuid.New())

	active := s.newUser("active@example.com")
	active.GroupID = groupID
	s.Require().NoError(s.store.Create(s.ctx, active))

	inactive := s.newUser("inactive@example.com")
	inactive.GroupID = groupID
	inactive.Active = false
	s.Require().NoError(s.store.Create(s.ctx, inactive))

	other := s.newUser("other@example.com")
	s.Require().NoError(s.store.Create(s.ctx, other))

	s.Run("matches active users in the given groups", func() {
		listed, err := s.store.ListActiveByGroups(s.ctx, []id.BloodGroupID{groupID})
		s.Require().NoError(err)
		s.Require().Len(listed, 1)
		s.Equal(active.ID, listed[0].ID)
	})

	s.Run("empty filter matches no one", func() {
		listed, err := s.store.ListActiveByGroups(s.ctx, nil)
		s.Require().NoError(err)
		s.Empty(listed)
	})
}
