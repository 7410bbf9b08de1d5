// Package bloodtype holds the static transfusion-compatibility table. It is
// pure reference logic: no state, no failure modes.
package bloodtype

import id "bloodlink/pkg/domain"

// compatibleDonors maps a recipient blood type to the donor types that may be
// safely transfused into it, per standard ABO/Rh rules. O- is the universal
// donor; AB+ the universal recipient.
var compatibleDonors = map[id.BloodType][]id.BloodType{
	id.BloodTypeAPos: {id.BloodTypeAPos, id.BloodTypeANeg, id.BloodTypeOPos, id.BloodTypeONeg},
	id.BloodTypeANeg: {id.BloodTypeANeg, id.BloodTypeONeg},
	id.BloodTypeBPos: {id.BloodTypeBPos, id.BloodTypeBNeg, id.BloodTypeOPos, id.BloodTypeONeg},
	id.BloodTypeBNeg: {id.BloodTypeBNeg, id.BloodTypeONeg},
	id.BloodTypeABPos: {
		id.BloodTypeAPos, id.BloodTypeANeg,
		id.BloodTypeBPos, id.BloodTypeBNeg,
		id.BloodTypeABPos, id.BloodTypeABNeg,
		id.BloodTypeOPos, id.BloodTypeONeg,
	},
	id.BloodTypeABNeg: {id.BloodTypeANeg, id.BloodTypeBNeg, id.BloodTypeABNeg, id.BloodTypeONeg},
	id.BloodTypeOPos:  {id.BloodTypeOPos, id.BloodTypeONeg},
	id.BloodTypeONeg:  {id.BloodTypeONeg},
}

// CompatibleDonors returns the donor types compatible with the recipient
// type. An unrecognized type yields an empty set; callers must treat that as
// "no compatible donors found", never as a crash.
func CompatibleDonors(recipient id.BloodType) []id.BloodType {
	donors := compatibleDonors[recipient]
	out := make([]id.BloodType, len(donors))
	copy(out, donors)
	return out
}

// CanDonateTo reports whether blood of donor type may be transfused into a
// recipient of the given type.
func CanDonateTo(donor, recipient id.BloodType) bool {
	for _, d := range compatibleDonors[recipient] {
		if d == donor {
			return true
		}
	}
	return false
}
