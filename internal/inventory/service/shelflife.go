package service

import (
	"time"

	id "bloodlink/pkg/domain"
)

const day = 24 * time.Hour

// shelfLife is the fixed per-component storage policy. Expiry is derived
// from it when a unit is materialized; recording a collection re-derives it
// from the same table.
var shelfLife = map[id.ComponentName]time.Duration{
	id.ComponentRedCells:   42 * day,
	id.ComponentPlatelets:  5 * day,
	id.ComponentPlasma:     365 * day,
	id.ComponentWholeBlood: 35 * day,
	id.ComponentWhiteCells: 1 * day,
}

// defaultShelfLife applies to components without an explicit policy.
const defaultShelfLife = 30 * day

// ShelfLife returns the storage duration for a component.
func ShelfLife(component id.ComponentName) time.Duration {
	if d, ok := shelfLife[component]; ok {
		return d
	}
	return defaultShelfLife
}
