package domain

import dErrors "bloodlink/pkg/domain-errors"

// BloodType is one of the eight ABO/Rh combinations.
// Invariant: the value must be one of the supported canonical names.
//
// Usage: construct via ParseBloodType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
)

// validBloodTypes is the single source of truth for canonical type names.
var validBloodTypes = map[BloodType]bool{
	BloodTypeAPos:  true,
	BloodTypeANeg:  true,
	BloodTypeBPos:  true,
	BloodTypeBNeg:  true,
	BloodTypeABPos: true,
	BloodTypeABNeg: true,
	BloodTypeOPos:  true,
	BloodTypeONeg:  true,
}

// AllBloodTypes lists the eight canonical types in display order.
func AllBloodTypes() []BloodType {
	return []BloodType{
		BloodTypeAPos, BloodTypeANeg,
		BloodTypeBPos, BloodTypeBNeg,
		BloodTypeABPos, BloodTypeABNeg,
		BloodTypeOPos, BloodTypeONeg,
	}
}

// ParseBloodType constructs a BloodType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or not one of the
// eight ABO/Rh combinations.
func ParseBloodType(s string) (BloodType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "blood type cannot be empty")
	}
	t := BloodType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown blood type")
	}
	return t, nil
}

func (t BloodType) IsValid() bool {
	return validBloodTypes[t]
}

func (t BloodType) String() string {
	return string(t)
}
