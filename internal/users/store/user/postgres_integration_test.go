//go:build integration

package user_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	refstore "bloodlink/internal/reference/store"
	"bloodlink/internal/users/models"
	"bloodlink/internal/users/store/user"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.Postgres
	groupID  id.BloodGroupID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = user.NewPostgres(s.postgres.DB)

	ctx := context.Background()
	ref := refstore.NewPostgres(s.postgres.DB)
	s.Require().NoError(ref.Seed(ctx))
	group, err := ref.GroupByType(ctx, id.BloodTypeOPos)
	s.Require().NoError(err)
	s.groupID = group.ID
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func (s *PostgresStoreSuite) newUser(email string) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.User{
		ID:           id.UserID(uuid.New()),
		Email:        email,
		PasswordHash: "x",
		FullName:     "Test Donor",
		Role:         "donor",
		GroupID:      s.groupID,
		WeightKG:     70,
		Location:     models.Geo{Latitude: 42.7, Longitude: 23.3},
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// === email uniqueness ===

func (s *PostgresStoreSuite) TestFindByEmailIsCaseInsensitive() {
	ctx := context.Background()
	u := s.newUser("Donor@Example.com")
	s.Require().NoError(s.store.Create(ctx, u))

	found, err := s.store.FindByEmail(ctx, "donor@example.COM")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)
	s.Equal("Donor@Example.com", found.Email)
}

func (s *PostgresStoreSuite) TestCreateRejectsDuplicateEmailIgnoringCase() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newUser("dup@example.com")))

	err := s.store.Create(ctx, s.newUser("DUP@example.com"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

// TestConcurrentDuplicateEmail verifies that concurrent signups with the same
// email result in exactly one stored account.
func (s *PostgresStoreSuite) TestConcurrentDuplicateEmail() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, s.newUser("race@example.com"))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should conflict")
}

// === round trips ===

func (s *PostgresStoreSuite) TestUpdateRoundTrip() {
	ctx := context.Background()
	u := s.newUser("update@example.com")
	s.Require().NoError(s.store.Create(ctx, u))

	u.FullName = "Renamed Donor"
	u.WeightKG = 82.5
	u.DonationCount = 3
	u.Active = false
	s.Require().NoError(s.store.Update(ctx, u))

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("Renamed Donor", found.FullName)
	s.Equal(82.5, found.WeightKG)
	s.Equal(3, found.DonationCount)
	s.False(found.Active)
}

func (s *PostgresStoreSuite) TestUpdateMissingUserIsNotFound() {
	err := s.store.Update(context.Background(), s.newUser("ghost@example.com"))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// === directory queries ===

func (s *PostgresStoreSuite) TestListActiveByGroupsFiltersInactive() {
	ctx := context.Background()

	active := s.newUser("active@example.com")
	s.Require().NoError(s.store.Create(ctx, active))

	inactive := s.newUser("inactive@example.com")
	inactive.Active = false
	s.Require().NoError(s.store.Create(ctx, inactive))

	listed, err := s.store.ListActiveByGroups(ctx, []id.BloodGroupID{s.groupID})
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(active.ID, listed[0].ID)
}

func (s *PostgresStoreSuite) TestListActiveByGroupsEmptyFilterMatchesNone() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newUser("someone@example.com")))

	listed, err := s.store.ListActiveByGroups(ctx, nil)
	s.Require().NoError(err)
	s.Empty(listed)
}
