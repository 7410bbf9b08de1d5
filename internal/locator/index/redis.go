package index

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	platformredis "bloodlink/internal/platform/redis"
	"bloodlink/internal/users/models"
	id "bloodlink/pkg/domain"
)

// donorGeoKey is the sorted set backing the GEO index.
const donorGeoKey = "bloodlink:donors:geo"

// Redis keeps donor locations in a Redis GEO set so proximity queries stay
// O(log n) and survive restarts.
type Redis struct {
	client *platformredis.Client
}

func NewRedis(client *platformredis.Client) *Redis {
	return &Redis{client: client}
}

func (x *Redis) Upsert(ctx context.Context, userID id.UserID, loc models.Geo) error {
	err := x.client.GeoAdd(ctx, donorGeoKey, &goredis.GeoLocation{
		Name:      userID.String(),
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}).Err()
	if err != nil {
		return fmt.Errorf("geo upsert donor: %w", err)
	}
	return nil
}

func (x *Redis) Remove(ctx context.Context, userID id.UserID) error {
	if err := x.client.ZRem(ctx, donorGeoKey, userID.String()).Err(); err != nil {
		return fmt.Errorf("geo remove donor: %w", err)
	}
	return nil
}

func (x *Redis) Within(ctx context.Context, center models.Geo, radiusKm float64) (map[id.UserID]float64, error) {
	locations, err := x.client.GeoSearchLocation(ctx, donorGeoKey, &goredis.GeoSearchLocationQuery{
		GeoSearchQuery: goredis.GeoSearchQuery{
			Latitude:   center.Latitude,
			Longitude:  center.Longitude,
			Radius:     radiusKm,
			RadiusUnit: "km",
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo search donors: %w", err)
	}

	out := make(map[id.UserID]float64, len(locations))
	for _, loc := range locations {
		userID, err := id.ParseUserID(loc.Name)
		if err != nil {
			// Foreign member in the set; skip rather than fail the search.
			continue
		}
		out[userID] = loc.Dist
	}
	return out, nil
}
