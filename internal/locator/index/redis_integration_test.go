//go:build integration

package index_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodlink/internal/locator/index"
	platformredis "bloodlink/internal/platform/redis"
	"bloodlink/internal/users/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/testutil/containers"
)

// Sofia city center.
var center = models.Geo{Latitude: 42.6977, Longitude: 23.3219}

type RedisIndexSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	index *index.Redis
}

func TestRedisIndexSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisIndexSuite))
}

func (s *RedisIndexSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.index = index.NewRedis(&platformredis.Client{Client: s.redis.Client})
}

func (s *RedisIndexSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

// kmNorth shifts a point north by roughly the given number of kilometers.
func kmNorth(base models.Geo, km float64) models.Geo {
	return models.Geo{Latitude: base.Latitude + km/111.0, Longitude: base.Longitude}
}

func (s *RedisIndexSuite) TestWithinReturnsDistances() {
	ctx := context.Background()
	near := id.UserID(uuid.New())
	far := id.UserID(uuid.New())

	s.Require().NoError(s.index.Upsert(ctx, near, kmNorth(center, 2)))
	s.Require().NoError(s.index.Upsert(ctx, far, kmNorth(center, 40)))

	found, err := s.index.Within(ctx, center, 10)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.InDelta(2.0, found[near], 0.1)
}

func (s *RedisIndexSuite) TestUpsertMovesExistingMember() {
	ctx := context.Background()
	donor := id.UserID(uuid.New())

	s.Require().NoError(s.index.Upsert(ctx, donor, kmNorth(center, 100)))
	s.Require().NoError(s.index.Upsert(ctx, donor, kmNorth(center, 1)))

	found, err := s.index.Within(ctx, center, 5)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.InDelta(1.0, found[donor], 0.1)
}

func (s *RedisIndexSuite) TestRemoveDropsMember() {
	ctx := context.Background()
	donor := id.UserID(uuid.New())

	s.Require().NoError(s.index.Upsert(ctx, donor, center))
	s.Require().NoError(s.index.Remove(ctx, donor))

	found, err := s.index.Within(ctx, center, 50)
	s.Require().NoError(err)
	s.Empty(found)
}

func (s *RedisIndexSuite) TestRemoveMissingMemberIsIdempotent() {
	s.Require().NoError(s.index.Remove(context.Background(), id.UserID(uuid.New())))
}
