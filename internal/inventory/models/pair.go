package models

import id "bloodlink/pkg/domain"

// Pair is the (blood group, blood component) composite key inventory is
// aggregated by.
type Pair struct {
	GroupID     id.BloodGroupID
	ComponentID id.BloodComponentID
}

// PairCount is a live aggregation of available stock for one pair.
type PairCount struct {
	UnitCount     int
	TotalVolumeML float64
}
