// Package reference holds the immutable blood-group and blood-component
// reference data every other module keys against.
package reference

import (
	id "bloodlink/pkg/domain"
)

// BloodGroup is one of the eight ABO/Rh reference rows.
type BloodGroup struct {
	ID   id.BloodGroupID `json:"id"`
	Type id.BloodType    `json:"type"`
}

// BloodComponent is a separable blood product with a fixed shelf-life policy.
// The shelf-life table itself lives with the inventory service, which applies
// it at collection time.
type BloodComponent struct {
	ID   id.BloodComponentID `json:"id"`
	Name id.ComponentName    `json:"name"`
}
