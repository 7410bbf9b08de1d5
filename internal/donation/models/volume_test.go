package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "bloodlink/pkg/domain-errors"
)

func TestCalculateDonationVolume(t *testing.T) {
	t.Run("below floor fails with eligibility error", func(t *testing.T) {
		for _, w := range []float64{0, 20, 41.99} {
			_, err := CalculateDonationVolume(w)
			require.Error(t, err, "weight %v", w)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeEligibilityRejected))
		}
	})

	t.Run("linear region is weight times eight", func(t *testing.T) {
		v, err := CalculateDonationVolume(42)
		require.NoError(t, err)
		assert.Equal(t, 336.0, v)

		v, err = CalculateDonationVolume(50)
		require.NoError(t, err)
		assert.Equal(t, 400.0, v)
	})

	t.Run("cap boundary", func(t *testing.T) {
		// 56.25 kg is the exact cap point.
		v, err := CalculateDonationVolume(56.25)
		require.NoError(t, err)
		assert.Equal(t, 450.0, v)

		// Just below the cap the value is unrounded.
		v, err = CalculateDonationVolume(56.24)
		require.NoError(t, err)
		assert.InDelta(t, 449.92, v, 1e-9)

		v, err = CalculateDonationVolume(100)
		require.NoError(t, err)
		assert.Equal(t, 450.0, v)
	})
}
