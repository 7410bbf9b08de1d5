package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodlink/internal/locator/index"
	"bloodlink/internal/notify"
	refStore "bloodlink/internal/reference/store"
	usermodels "bloodlink/internal/users/models"
	userStore "bloodlink/internal/users/store/user"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// =============================================================================
// Locator Service Test Suite
// =============================================================================

// Central Sofia; donor fixtures sit at known offsets from here.
var center = usermodels.Geo{Latitude: 42.6977, Longitude: 23.3219}

type LocatorServiceSuite struct {
	suite.Suite
	users      *userStore.InMemory
	reference  *refStore.InMemory
	dispatcher *notify.InMemory
	service    *Service
	ctx        context.Context
	actor      id.UserID
}

func TestLocatorServiceSuite(t *testing.T) {
	suite.Run(t, new(LocatorServiceSuite))
}

func (s *LocatorServiceSuite) SetupTest() {
	s.users = userStore.NewInMemory()
	s.reference = refStore.NewInMemory()
	s.dispatcher = notify.NewInMemory()

	var err error
	s.service, err = New(s.users, s.reference, WithDispatcher(s.dispatcher))
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.actor = id.UserID(uuid.New())
}

// Each subtest seeds its own donor population from an empty store.
func (s *LocatorServiceSuite) SetupSubTest() {
	s.SetupTest()
}

// addDonor registers an active donor of the given type offset north of the
// search center. One degree of latitude is ~111 km.
func (s *LocatorServiceSuite) addDonor(bloodType id.BloodType, weightKG, kmNorth float64) *usermodels.User {
	group, err := s.reference.GroupByType(s.ctx, bloodType)
	s.Require().NoError(err)

	u := &usermodels.User{
		ID:       id.UserID(uuid.New()),
		Email:    uuid.NewString() + "@example.org",
		Role:     "donor",
		GroupID:  group.ID,
		WeightKG: weightKG,
		Location: usermodels.Geo{
			Latitude:  center.Latitude + kmNorth/111.0,
			Longitude: center.Longitude,
		},
		Active: true,
	}
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u
}

func (s *LocatorServiceSuite) search(recipient id.BloodType, radiusKm float64) ([]Match, error) {
	return s.service.Search(s.ctx, SearchInput{
		RecipientType: recipient,
		Center:        center,
		RadiusKM:      radiusKm,
	}, s.actor)
}

func (s *LocatorServiceSuite) TestSearch() {
	s.Run("radius separates near from far donors", func() {
		near := s.addDonor(id.BloodTypeONeg, 70, 3)
		s.addDonor(id.BloodTypeONeg, 70, 10)

		matches, err := s.search(id.BloodTypeAPos, 5)
		s.Require().NoError(err)
		s.Require().Len(matches, 1)
		s.Equal(near.ID, matches[0].Donor.ID)
		s.InDelta(3.0, matches[0].DistanceKM, 0.1)
	})

	s.Run("matches come back nearest first", func() {
		far := s.addDonor(id.BloodTypeAPos, 80, 8)
		nearest := s.addDonor(id.BloodTypeONeg, 60, 1)
		mid := s.addDonor(id.BloodTypeOPos, 65, 4)

		matches, err := s.search(id.BloodTypeAPos, 20)
		s.Require().NoError(err)
		s.Require().Len(matches, 3)
		s.Equal(nearest.ID, matches[0].Donor.ID)
		s.Equal(mid.ID, matches[1].Donor.ID)
		s.Equal(far.ID, matches[2].Donor.ID)
	})

	s.Run("incompatible types never match", func() {
		// AB+ blood serves nobody but AB+ recipients.
		s.addDonor(id.BloodTypeABPos, 90, 1)

		_, err := s.search(id.BloodTypeONeg, 50)
		s.True(dErrors.HasCode(err, dErrors.CodeNoCompatibleDonors))
	})

	s.Run("underweight and inactive donors are filtered", func() {
		s.addDonor(id.BloodTypeONeg, 41.9, 1)

		inactive := s.addDonor(id.BloodTypeONeg, 75, 1)
		inactive.Active = false
		s.Require().NoError(s.users.Update(s.ctx, inactive))

		_, err := s.search(id.BloodTypeBNeg, 50)
		s.True(dErrors.HasCode(err, dErrors.CodeNoCompatibleDonors))
	})

	s.Run("every match gets an appeal", func() {
		s.addDonor(id.BloodTypeONeg, 70, 2)
		s.addDonor(id.BloodTypeAPos, 70, 3)

		matches, err := s.search(id.BloodTypeAPos, 10)
		s.Require().NoError(err)
		s.Require().Len(matches, 2)

		// Dispatch is asynchronous.
		s.Eventually(func() bool {
			return len(s.dispatcher.Sent()) == 2
		}, 2*time.Second, 10*time.Millisecond)
	})

	s.Run("unknown recipient type is an input error", func() {
		_, err := s.search(id.BloodType("H+"), 10)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("missing center is rejected", func() {
		_, err := s.service.Search(s.ctx, SearchInput{RecipientType: id.BloodTypeAPos}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("oversized radius is rejected", func() {
		_, err := s.search(id.BloodTypeAPos, MaxRadiusKM+1)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *LocatorServiceSuite) TestSearchWithGeoIndex() {
	idx := index.NewInMemory()
	svc, err := New(s.users, s.reference, WithGeoIndex(idx))
	s.Require().NoError(err)

	near := s.addDonor(id.BloodTypeONeg, 70, 3)
	far := s.addDonor(id.BloodTypeONeg, 70, 40)
	s.Require().NoError(idx.Upsert(s.ctx, near.ID, near.Location))
	s.Require().NoError(idx.Upsert(s.ctx, far.ID, far.Location))

	matches, err := svc.Search(s.ctx, SearchInput{
		RecipientType: id.BloodTypeAPos,
		Center:        center,
		RadiusKM:      10,
	}, s.actor)
	s.Require().NoError(err)
	s.Require().Len(matches, 1)
	s.Equal(near.ID, matches[0].Donor.ID)
}
