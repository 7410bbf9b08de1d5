package store

import (
	"context"

	"bloodlink/internal/reference"
	id "bloodlink/pkg/domain"
)

// Store serves blood-group and blood-component reference data. Rows are
// immutable after seeding; there are no update or delete operations.
type Store interface {
	GroupByID(ctx context.Context, groupID id.BloodGroupID) (*reference.BloodGroup, error)
	GroupByType(ctx context.Context, bloodType id.BloodType) (*reference.BloodGroup, error)
	ListGroups(ctx context.Context) ([]*reference.BloodGroup, error)

	ComponentByID(ctx context.Context, componentID id.BloodComponentID) (*reference.BloodComponent, error)
	ComponentByName(ctx context.Context, name id.ComponentName) (*reference.BloodComponent, error)
	ListComponents(ctx context.Context) ([]*reference.BloodComponent, error)
}
