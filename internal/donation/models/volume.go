package models

import (
	dErrors "bloodlink/pkg/domain-errors"
)

// MaxDonationVolumeML caps a single collection.
const MaxDonationVolumeML = 450.0

// VolumeMLPerKG scales donor weight to collectable volume.
const VolumeMLPerKG = 8.0

// CalculateDonationVolume derives the collectable volume from donor weight:
// weight * 8 ml, capped at 450. The result is an unrounded float64, so
// weight 56.24 yields exactly 449.92 and the cap engages at 56.25.
//
// Weights below the donation floor fail with an eligibility error rather
// than silently computing an invalid volume; the health check enforces the
// same floor independently.
func CalculateDonationVolume(weightKG float64) (float64, error) {
	if weightKG < MinDonationWeightKG {
		return 0, dErrors.New(dErrors.CodeEligibilityRejected,
			"donor weight is below the minimum donation threshold")
	}
	volume := weightKG * VolumeMLPerKG
	if volume > MaxDonationVolumeML {
		volume = MaxDonationVolumeML
	}
	return volume, nil
}
