package index

import (
	"context"
	"sync"

	"bloodlink/internal/users/models"
	id "bloodlink/pkg/domain"
)

// InMemory computes distances with the haversine formula over a plain map.
type InMemory struct {
	mu        sync.RWMutex
	locations map[id.UserID]models.Geo
}

func NewInMemory() *InMemory {
	return &InMemory{locations: make(map[id.UserID]models.Geo)}
}

func (x *InMemory) Upsert(_ context.Context, userID id.UserID, loc models.Geo) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.locations[userID] = loc
	return nil
}

func (x *InMemory) Remove(_ context.Context, userID id.UserID) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.locations, userID)
	return nil
}

func (x *InMemory) Within(_ context.Context, center models.Geo, radiusKm float64) (map[id.UserID]float64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make(map[id.UserID]float64)
	for userID, loc := range x.locations {
		if d := HaversineKM(center, loc); d <= radiusKm {
			out[userID] = d
		}
	}
	return out, nil
}
