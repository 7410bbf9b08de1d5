// Package index maintains the donor location index queried by proximity
// search.
package index

import (
	"context"
	"math"

	"bloodlink/internal/users/models"
	id "bloodlink/pkg/domain"
)

// Index answers "which donors are within R km of here". Distances returned
// by Within are kilometers.
type Index interface {
	Upsert(ctx context.Context, userID id.UserID, loc models.Geo) error
	Remove(ctx context.Context, userID id.UserID) error
	Within(ctx context.Context, center models.Geo, radiusKm float64) (map[id.UserID]float64, error)
}

const earthRadiusKM = 6371.0

// HaversineKM is the great-circle distance between two coordinates.
func HaversineKM(a, b models.Geo) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}
