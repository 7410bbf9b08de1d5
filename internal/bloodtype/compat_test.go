package bloodtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bloodlink/pkg/domain"
)

func TestCompatibleDonors(t *testing.T) {
	// The full transfusion matrix, pinned row by row.
	table := map[id.BloodType][]id.BloodType{
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

	for recipient, want := range table {
		t.Run(recipient.String(), func(t *testing.T) {
			assert.ElementsMatch(t, want, CompatibleDonors(recipient))
		})
	}
}

func TestUniversalDonorAndRecipient(t *testing.T) {
	t.Run("O- can donate to every type", func(t *testing.T) {
		for _, recipient := range id.AllBloodTypes() {
			assert.Contains(t, CompatibleDonors(recipient), id.BloodTypeONeg,
				"O- missing from %s's donor set", recipient)
		}
	})

	t.Run("AB+ accepts every type", func(t *testing.T) {
		donors := CompatibleDonors(id.BloodTypeABPos)
		require.Len(t, donors, 8)
		assert.ElementsMatch(t, id.AllBloodTypes(), donors)
	})
}

func TestUnrecognizedTypeYieldsEmptySet(t *testing.T) {
	assert.Empty(t, CompatibleDonors(id.BloodType("C+")))
	assert.False(t, CanDonateTo(id.BloodTypeONeg, id.BloodType("C+")))
}

func TestCanDonateTo(t *testing.T) {
	assert.True(t, CanDonateTo(id.BloodTypeONeg, id.BloodTypeAPos))
	assert.True(t, CanDonateTo(id.BloodTypeAPos, id.BloodTypeABPos))
	assert.False(t, CanDonateTo(id.BloodTypeAPos, id.BloodTypeONeg))
	assert.False(t, CanDonateTo(id.BloodTypeABPos, id.BloodTypeAPos))
}
