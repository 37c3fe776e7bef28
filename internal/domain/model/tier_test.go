package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierValidity(t *testing.T) {
	assert.False(t, Tier(0).Valid())
	assert.True(t, TierApprentice.Valid())
	assert.True(t, TierCompanion.Valid())
	assert.True(t, TierMaster.Valid())
	assert.False(t, Tier(4).Valid())
	assert.False(t, Tier(-1).Valid())
}

func TestTierNames(t *testing.T) {
	assert.Equal(t, "apprentice", TierApprentice.Name())
	assert.Equal(t, "companion", TierCompanion.Name())
	assert.Equal(t, "master", TierMaster.Name())
	assert.Empty(t, Tier(9).Name())
}

func TestTierOrdering(t *testing.T) {
	tiers := Tiers()
	assert.Len(t, tiers, 3)
	for i := 1; i < len(tiers); i++ {
		assert.Less(t, tiers[i-1], tiers[i])
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "vg@admin.com", NormalizeEmail("  VG@Admin.Com "))
	assert.Equal(t, "", NormalizeEmail("   "))
}
